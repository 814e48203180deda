package handwriting

// #region component

// component is one connected ink region with its bounding box and the
// central moments needed for slant estimation.
type component struct {
	area                   int
	minX, minY, maxX, maxY int
	mu11, mu02             float64
}

func (c component) width() int  { return c.maxX - c.minX + 1 }
func (c component) height() int { return c.maxY - c.minY + 1 }

// #endregion component

// #region labeling

// minComponentArea suppresses specks left by binarization noise.
const minComponentArea = 50

// findComponents extracts 8-connected foreground components with area
// above minComponentArea.
func findComponents(b binaryImage) []component {
	visited := make([]bool, len(b.pix))
	var out []component

	var stack [][2]int
	for sy := 0; sy < b.h; sy++ {
		for sx := 0; sx < b.w; sx++ {
			idx := sy*b.w + sx
			if visited[idx] || !b.pix[idx] {
				continue
			}

			comp := component{minX: sx, minY: sy, maxX: sx, maxY: sy}
			var sumX, sumY float64
			var pixels [][2]int

			stack = stack[:0]
			stack = append(stack, [2]int{sx, sy})
			visited[idx] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				x, y := p[0], p[1]

				comp.area++
				sumX += float64(x)
				sumY += float64(y)
				pixels = append(pixels, p)
				comp.minX = minInt(comp.minX, x)
				comp.maxX = maxInt(comp.maxX, x)
				comp.minY = minInt(comp.minY, y)
				comp.maxY = maxInt(comp.maxY, y)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := x+dx, y+dy
						if nx < 0 || ny < 0 || nx >= b.w || ny >= b.h {
							continue
						}
						nidx := ny*b.w + nx
						if !visited[nidx] && b.pix[nidx] {
							visited[nidx] = true
							stack = append(stack, [2]int{nx, ny})
						}
					}
				}
			}

			if comp.area <= minComponentArea {
				continue
			}

			// Second-order central moments about the centroid.
			cx := sumX / float64(comp.area)
			cy := sumY / float64(comp.area)
			for _, p := range pixels {
				dx := float64(p[0]) - cx
				dy := float64(p[1]) - cy
				comp.mu11 += dx * dy
				comp.mu02 += dy * dy
			}
			out = append(out, comp)
		}
	}
	return out
}

// #endregion labeling
