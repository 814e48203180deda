package feature

// #region audio-vector

// AudioVectorLen is the fixed length of the model-ready audio feature array.
const AudioVectorLen = 50

// audioScalarOrder is the canonical scalar prefix of the audio vector.
var audioScalarOrder = []string{
	"duration",
	"pitch_mean",
	"pitch_std",
	"pitch_range",
	"spectral_centroid_mean",
	"spectral_centroid_std",
	"spectral_rolloff_mean",
	"spectral_rolloff_std",
	"tempo",
	"beat_strength_mean",
	"rms_energy_mean",
	"rms_energy_std",
	"zero_crossing_rate_mean",
	"n_pauses",
	"avg_pause_duration",
	"speaking_rate",
	"speaking_time",
	"jitter",
	"shimmer",
}

// AudioVector assembles the fixed 50-element model input from an audio
// feature set: 19 scalars, 13 MFCC means, 13 MFCC stds, and the first 5
// mel-band means. Error-tagged sets yield the all-zero vector; that
// fallback is a compatibility contract with numeric model consumers.
func AudioVector(s *Set) []float64 {
	out := make([]float64, AudioVectorLen)
	if s == nil || s.IsError() {
		return out
	}
	i := 0
	for _, name := range audioScalarOrder {
		out[i] = s.GetOr(name, 0)
		i++
	}
	i = fillVec(out, i, s.Vec("mfcc_mean"), 13)
	i = fillVec(out, i, s.Vec("mfcc_std"), 13)
	fillVec(out, i, s.Vec("mel_mean"), 5)
	return out
}

// #endregion audio-vector

// #region handwriting-vector

// HandwritingVectorLen is the fixed length of the model-ready handwriting
// feature array.
const HandwritingVectorLen = 20

// handwritingOrder excludes the raw image dimensions.
var handwritingOrder = []string{
	"edge_density",
	"n_contours",
	"avg_contour_area",
	"std_contour_area",
	"avg_width",
	"std_width",
	"avg_height",
	"std_height",
	"size_consistency",
	"avg_aspect_ratio",
	"avg_spacing",
	"std_spacing",
	"spacing_consistency",
	"avg_y_position",
	"std_y_position",
	"alignment_quality",
	"avg_thickness",
	"std_thickness",
	"thickness_consistency",
	"texture_energy",
}

// HandwritingVector assembles the fixed 20-element model input from a
// handwriting feature set. Error-tagged sets yield the all-zero vector.
func HandwritingVector(s *Set) []float64 {
	out := make([]float64, HandwritingVectorLen)
	if s == nil || s.IsError() {
		return out
	}
	for i, name := range handwritingOrder {
		out[i] = s.GetOr(name, 0)
	}
	return out
}

// #endregion handwriting-vector

// #region named-vector

// NamedVector assembles a model input by indexing the set with a fixed
// ordered name list. Absent keys contribute 0.
func NamedVector(s *Set, names []string) []float64 {
	out := make([]float64, len(names))
	if s == nil {
		return out
	}
	for i, name := range names {
		out[i] = s.GetOr(name, 0)
	}
	return out
}

// #endregion named-vector

// #region helpers

// fillVec copies up to n elements of v into out starting at i, zero-padding
// short vectors, and returns the next write position.
func fillVec(out []float64, i int, v []float64, n int) int {
	for j := 0; j < n; j++ {
		if j < len(v) {
			out[i] = v[j]
		}
		i++
	}
	return i
}

// #endregion helpers
