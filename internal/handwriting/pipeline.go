package handwriting

// #region imports
import (
	"image"
	"math"
)

// #endregion

// #region grayscale

// grayImage is a dense row-major grayscale raster.
type grayImage struct {
	pix  []float64
	w, h int
}

func (g grayImage) at(x, y int) float64 {
	return g.pix[y*g.w+x]
}

func (g grayImage) set(x, y int, v float64) {
	g.pix[y*g.w+x] = v
}

func newGray(w, h int) grayImage {
	return grayImage{pix: make([]float64, w*h), w: w, h: h}
}

// toGray converts any image to luminance values in [0, 255].
func toGray(img image.Image) grayImage {
	b := img.Bounds()
	g := newGray(b.Dx(), b.Dy())
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			r, gr, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// Rec. 601 luma on 16-bit channel values.
			g.set(x, y, (0.299*float64(r)+0.587*float64(gr)+0.114*float64(bl))/257)
		}
	}
	return g
}

// #endregion grayscale

// #region smoothing

// smoothEdgePreserving applies a 3x3 range-weighted filter: neighbors
// close in intensity contribute fully, neighbors across an edge are
// down-weighted, so strokes keep their boundaries.
func smoothEdgePreserving(g grayImage) grayImage {
	const sigmaRange = 25.0
	out := newGray(g.w, g.h)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			center := g.at(x, y)
			var sum, wsum float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= g.w || ny >= g.h {
						continue
					}
					v := g.at(nx, ny)
					d := v - center
					w := math.Exp(-d * d / (2 * sigmaRange * sigmaRange))
					sum += w * v
					wsum += w
				}
			}
			out.set(x, y, sum/wsum)
		}
	}
	return out
}

// #endregion smoothing

// #region binarization

// binaryImage is a dense foreground mask.
type binaryImage struct {
	pix  []bool
	w, h int
}

func newBinary(w, h int) binaryImage {
	return binaryImage{pix: make([]bool, w*h), w: w, h: h}
}

func (b binaryImage) at(x, y int) bool {
	return b.pix[y*b.w+x]
}

func (b binaryImage) set(x, y int, v bool) {
	b.pix[y*b.w+x] = v
}

// adaptiveThreshold binarizes with a local-mean window, inverted so ink
// (darker than its neighborhood) becomes foreground.
func adaptiveThreshold(g grayImage, window int, offset float64) binaryImage {
	half := window / 2
	integral := integralImage(g)
	out := newBinary(g.w, g.h)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			x0, y0 := maxInt(x-half, 0), maxInt(y-half, 0)
			x1, y1 := minInt(x+half, g.w-1), minInt(y+half, g.h-1)
			area := float64((x1 - x0 + 1) * (y1 - y0 + 1))
			mean := boxSum(integral, g.w, x0, y0, x1, y1) / area
			out.set(x, y, g.at(x, y) < mean-offset)
		}
	}
	return out
}

// integralImage builds a (w+1)x(h+1) summed-area table.
func integralImage(g grayImage) []float64 {
	w, h := g.w, g.h
	it := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum float64
		for x := 0; x < w; x++ {
			rowSum += g.at(x, y)
			it[(y+1)*(w+1)+x+1] = it[y*(w+1)+x+1] + rowSum
		}
	}
	return it
}

func boxSum(it []float64, w, x0, y0, x1, y1 int) float64 {
	stride := w + 1
	return it[(y1+1)*stride+x1+1] - it[y0*stride+x1+1] - it[(y1+1)*stride+x0] + it[y0*stride+x0]
}

// #endregion binarization

// #region gradients

// sobelMagnitude computes the gradient magnitude of a grayscale image.
func sobelMagnitude(g grayImage) grayImage {
	out := newGray(g.w, g.h)
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			gx := -g.at(x-1, y-1) - 2*g.at(x-1, y) - g.at(x-1, y+1) +
				g.at(x+1, y-1) + 2*g.at(x+1, y) + g.at(x+1, y+1)
			gy := -g.at(x-1, y-1) - 2*g.at(x, y-1) - g.at(x+1, y-1) +
				g.at(x-1, y+1) + 2*g.at(x, y+1) + g.at(x+1, y+1)
			out.set(x, y, math.Hypot(gx, gy))
		}
	}
	return out
}

// edgeDensity is the fraction of pixels whose binary-mask gradient is
// non-zero: a boundary pixel of the ink mask.
func edgeDensity(b binaryImage) float64 {
	if b.w == 0 || b.h == 0 {
		return 0
	}
	edges := 0
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			if !b.at(x, y) {
				continue
			}
			boundary := x == 0 || y == 0 || x == b.w-1 || y == b.h-1 ||
				!b.at(x-1, y) || !b.at(x+1, y) || !b.at(x, y-1) || !b.at(x, y+1)
			if boundary {
				edges++
			}
		}
	}
	return float64(edges) / float64(b.w*b.h)
}

// #endregion gradients

// #region morphology

// dilate3x3 grows the foreground by one pixel in every direction,
// reconnecting broken strokes before thickness measurement.
func dilate3x3(b binaryImage) binaryImage {
	out := newBinary(b.w, b.h)
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			hit := false
			for dy := -1; dy <= 1 && !hit; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < b.w && ny < b.h && b.at(nx, ny) {
						hit = true
						break
					}
				}
			}
			out.set(x, y, hit)
		}
	}
	return out
}

// distanceTransform computes a two-pass chamfer approximation of the
// Euclidean distance from each foreground pixel to the background.
func distanceTransform(b binaryImage) grayImage {
	const inf = math.MaxFloat64 / 4
	const diag = math.Sqrt2
	d := newGray(b.w, b.h)
	seeded := false
	for i, fg := range b.pix {
		if fg {
			d.pix[i] = inf
		} else {
			seeded = true
		}
	}
	// With no background pixel the passes have nothing to relax from and
	// every distance stays at the sentinel. Such a page carries no stroke
	// structure, so report zero everywhere instead.
	if !seeded {
		return newGray(b.w, b.h)
	}
	// Forward pass: top-left neighbors.
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			if !b.at(x, y) {
				continue
			}
			v := d.at(x, y)
			if x > 0 {
				v = math.Min(v, d.at(x-1, y)+1)
			}
			if y > 0 {
				v = math.Min(v, d.at(x, y-1)+1)
				if x > 0 {
					v = math.Min(v, d.at(x-1, y-1)+diag)
				}
				if x < b.w-1 {
					v = math.Min(v, d.at(x+1, y-1)+diag)
				}
			}
			d.set(x, y, v)
		}
	}
	// Backward pass: bottom-right neighbors.
	for y := b.h - 1; y >= 0; y-- {
		for x := b.w - 1; x >= 0; x-- {
			if !b.at(x, y) {
				continue
			}
			v := d.at(x, y)
			if x < b.w-1 {
				v = math.Min(v, d.at(x+1, y)+1)
			}
			if y < b.h-1 {
				v = math.Min(v, d.at(x, y+1)+1)
				if x < b.w-1 {
					v = math.Min(v, d.at(x+1, y+1)+diag)
				}
				if x > 0 {
					v = math.Min(v, d.at(x-1, y+1)+diag)
				}
			}
			d.set(x, y, v)
		}
	}
	return d
}

// #endregion morphology

// #region helpers

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// #endregion helpers
