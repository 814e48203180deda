// Package handwriting decomposes a scanned or photographed writing sample
// into the geometric, stroke, and layout descriptors used by the
// writing-domain screens.
package handwriting

// #region imports
import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"

	_ "golang.org/x/image/bmp"

	"gonum.org/v1/gonum/stat"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region load

var errEmptyImage = errors.New("empty image")

// LoadImage decodes a PNG, JPEG, or BMP raster from disk.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// ExtractFile loads and extracts in one step; load failures become an
// error-tagged set like any other extraction failure.
func ExtractFile(path string) *feature.Set {
	img, err := LoadImage(path)
	if err != nil {
		return feature.ErrorSet(err)
	}
	return Extract(img)
}

// #endregion load

// #region extract

// slantMinArea gates slant estimation to larger components where second
// moments are stable.
const slantMinArea = 100

// Extract computes the full handwriting feature set. Failures are
// recovered locally as an error-tagged set; callers substitute the fixed
// zero vector for model input.
func Extract(img image.Image) *feature.Set {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return feature.ErrorSet(errEmptyImage)
	}

	gray := toGray(img)
	width, height := gray.w, gray.h

	smoothed := smoothEdgePreserving(gray)
	binary := adaptiveThreshold(smoothed, 11, 2)

	density := edgeDensity(binary)
	comps := findComponents(binary)

	var areas, widths, heights, aspects, ys []float64
	for _, c := range comps {
		areas = append(areas, float64(c.area))
		widths = append(widths, float64(c.width()))
		heights = append(heights, float64(c.height()))
		if c.height() > 0 {
			aspects = append(aspects, float64(c.width())/float64(c.height()))
		} else {
			aspects = append(aspects, 0)
		}
		ys = append(ys, float64(c.minY))
	}
	avgArea, stdArea := meanStd(areas)
	avgWidth, stdWidth := meanStd(widths)
	avgHeight, stdHeight := meanStd(heights)
	avgAspect, _ := meanStd(aspects)
	sizeConsistency := consistency(avgHeight, stdHeight)

	// Horizontal spacing: positive gaps between boxes sorted by x.
	sorted := append([]component(nil), comps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].minX < sorted[j].minX })
	var spacings []float64
	for i := 0; i+1 < len(sorted); i++ {
		gap := sorted[i+1].minX - (sorted[i].minX + sorted[i].width())
		if gap > 0 {
			spacings = append(spacings, float64(gap))
		}
	}
	avgSpacing, stdSpacing := meanStd(spacings)
	spacingConsistency := consistency(avgSpacing, stdSpacing)

	avgY, stdY := meanStd(ys)
	alignmentQuality := 0.0
	if height > 0 {
		alignmentQuality = 1.0 - stdY/float64(height)
	}

	// Stroke thickness from the distance transform of the dilated mask.
	dist := distanceTransform(dilate3x3(binary))
	var thickness []float64
	for _, v := range dist.pix {
		if v > 0 {
			thickness = append(thickness, v)
		}
	}
	avgThickness, stdThickness := meanStd(thickness)
	thicknessConsistency := consistency(avgThickness, stdThickness)

	// Slant from second-order moments of the larger components.
	var slants []float64
	for _, c := range comps {
		if c.area > slantMinArea && c.mu02 != 0 {
			slants = append(slants, c.mu11/c.mu02)
		}
	}
	avgSlant, stdSlant := meanStd(slants)

	// Texture energy: mean gradient magnitude of the grayscale image.
	grad := sobelMagnitude(gray)
	textureEnergy, _ := meanStd(grad.pix)

	fs := feature.NewSet()
	fs.Put("image_width", float64(width))
	fs.Put("image_height", float64(height))
	fs.Put("edge_density", density)
	fs.Put("n_contours", float64(len(comps)))
	fs.Put("avg_contour_area", avgArea)
	fs.Put("std_contour_area", stdArea)
	fs.Put("avg_width", avgWidth)
	fs.Put("std_width", stdWidth)
	fs.Put("avg_height", avgHeight)
	fs.Put("std_height", stdHeight)
	fs.Put("size_consistency", sizeConsistency)
	fs.Put("avg_aspect_ratio", avgAspect)
	fs.Put("avg_spacing", avgSpacing)
	fs.Put("std_spacing", stdSpacing)
	fs.Put("spacing_consistency", spacingConsistency)
	fs.Put("avg_y_position", avgY)
	fs.Put("std_y_position", stdY)
	fs.Put("alignment_quality", alignmentQuality)
	fs.Put("avg_thickness", avgThickness)
	fs.Put("std_thickness", stdThickness)
	fs.Put("thickness_consistency", thicknessConsistency)
	fs.Put("avg_slant", avgSlant)
	fs.Put("std_slant", stdSlant)
	fs.Put("texture_energy", textureEnergy)
	return fs
}

// #endregion extract

// #region stats

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return stat.Mean(xs, nil), stat.PopStdDev(xs, nil)
}

// consistency is 1 minus the coefficient of variation, floored to 0 when
// the mean is not positive.
func consistency(mean, std float64) float64 {
	if mean <= 0 {
		return 0
	}
	return 1.0 - std/mean
}

// #endregion stats
