package analysis

// region is one connected component of a binary mask.
type region struct {
	minX, minY int
	maxX, maxY int // inclusive
	area       int // pixel count
}

// connectedRegions labels 4-connected components of mask (row-major,
// width×height) and returns one region per component. There is no contour
// library in our dependency set; an iterative flood fill over the mask is
// equivalent for bounding boxes and areas.
func connectedRegions(mask []bool, width, height int) []region {
	visited := make([]bool, len(mask))
	var regions []region
	var stack []int

	for start, set := range mask {
		if !set || visited[start] {
			continue
		}

		r := region{
			minX: start % width, minY: start / width,
			maxX: start % width, maxY: start / width,
		}
		stack = append(stack[:0], start)
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%width, idx/width
			r.area++
			if x < r.minX {
				r.minX = x
			}
			if x > r.maxX {
				r.maxX = x
			}
			if y < r.minY {
				r.minY = y
			}
			if y > r.maxY {
				r.maxY = y
			}

			// 4-connectivity
			if x > 0 {
				push(&stack, visited, mask, idx-1)
			}
			if x < width-1 {
				push(&stack, visited, mask, idx+1)
			}
			if y > 0 {
				push(&stack, visited, mask, idx-width)
			}
			if y < height-1 {
				push(&stack, visited, mask, idx+width)
			}
		}

		regions = append(regions, r)
	}

	return regions
}

func push(stack *[]int, visited, mask []bool, idx int) {
	if mask[idx] && !visited[idx] {
		visited[idx] = true
		*stack = append(*stack, idx)
	}
}
