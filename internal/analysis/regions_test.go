package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskFromRows(rows []string) ([]bool, int, int) {
	height := len(rows)
	width := len(rows[0])
	mask := make([]bool, width*height)
	for y, row := range rows {
		for x, c := range row {
			mask[y*width+x] = c == '#'
		}
	}
	return mask, width, height
}

func TestConnectedRegionsSingle(t *testing.T) {
	mask, w, h := maskFromRows([]string{
		"....",
		".##.",
		".##.",
		"....",
	})

	regions := connectedRegions(mask, w, h)
	require.Len(t, regions, 1)
	r := regions[0]
	assert.Equal(t, 4, r.area)
	assert.Equal(t, 1, r.minX)
	assert.Equal(t, 1, r.minY)
	assert.Equal(t, 2, r.maxX)
	assert.Equal(t, 2, r.maxY)
}

func TestConnectedRegionsSeparate(t *testing.T) {
	mask, w, h := maskFromRows([]string{
		"#..#",
		"#...",
		"....",
		"..##",
	})

	regions := connectedRegions(mask, w, h)
	assert.Len(t, regions, 3)
}

func TestDiagonalNotConnected(t *testing.T) {
	// 4-connectivity: diagonal neighbors are distinct regions
	mask, w, h := maskFromRows([]string{
		"#.",
		".#",
	})

	regions := connectedRegions(mask, w, h)
	assert.Len(t, regions, 2)
}

func TestEmptyMask(t *testing.T) {
	mask, w, h := maskFromRows([]string{
		"....",
		"....",
	})

	assert.Empty(t, connectedRegions(mask, w, h))
}

func TestLShapedRegion(t *testing.T) {
	mask, w, h := maskFromRows([]string{
		"#...",
		"#...",
		"###.",
	})

	regions := connectedRegions(mask, w, h)
	require.Len(t, regions, 1)
	assert.Equal(t, 5, regions[0].area)
	assert.Equal(t, 0, regions[0].minX)
	assert.Equal(t, 2, regions[0].maxX)
}
