package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBasics(t *testing.T) {
	base := stderrors.New("calibration file truncated")

	ee := New(base).
		Component("conf").
		Category(CategoryCalibration).
		Context("path", "boson_calibration.json").
		Build()

	assert.Equal(t, "calibration file truncated", ee.Error())
	assert.Equal(t, CategoryCalibration, ee.Category)
	assert.Equal(t, "conf", ee.Component)
	assert.True(t, Is(ee, base), "enhanced error should unwrap to the base error")

	ctx := ee.GetContext()
	require.NotNil(t, ctx)
	assert.Equal(t, "boson_calibration.json", ctx["path"])
}

func TestDefaultCategory(t *testing.T) {
	ee := Newf("boom").Build()
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestCategoryMatching(t *testing.T) {
	a := Newf("first").Category(CategoryFrameDecode).Build()
	b := Newf("second").Category(CategoryFrameDecode).Build()
	c := Newf("third").Category(CategoryRouting).Build()

	assert.True(t, Is(a, b), "errors with the same category should match")
	assert.False(t, Is(a, c), "errors with different categories should not match")
}

func TestInvalidPriorityFallsBack(t *testing.T) {
	ee := Newf("oops").Priority("urgent-ish").Build()
	assert.Equal(t, PriorityMedium, ee.Priority)
}

func TestAs(t *testing.T) {
	ee := Newf("wrapped").Category(CategoryDatabase).Build()
	var target *EnhancedError
	require.True(t, As(ee, &target))
	assert.Equal(t, CategoryDatabase, target.Category)
}
