// Package audio decomposes a finite speech recording into the fluency,
// prosody, and spectral descriptors used by the reading-domain screens.
package audio

// #region imports
import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// #endregion

// #region clip

// Clip is a finite mono waveform with a known sample rate.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

var (
	errEmptyClip  = errors.New("empty audio clip")
	errSampleRate = errors.New("non-positive sample rate")
)

// #endregion clip

// #region extract

const (
	nMFCC     = 13
	nMelBands = 128
	nContrast = 7
)

// Extract computes the full audio feature set. Extraction failure is
// recovered locally: the returned set carries a single error key and the
// caller substitutes a zero vector when assembling model input.
func Extract(clip Clip) *feature.Set {
	if len(clip.Samples) == 0 {
		return feature.ErrorSet(errEmptyClip)
	}
	if clip.SampleRate <= 0 {
		return feature.ErrorSet(errSampleRate)
	}

	duration := clip.Duration()
	sp := stft(clip.Samples, clip.SampleRate)
	nBins := frameLength/2 + 1

	// MFCC summary over a 26-filter mel bank.
	mfccBank := melFilterBank(26, nBins, clip.SampleRate)
	mfccPerFrame := make([][]float64, len(sp.mags))
	power := make([]float64, nBins)
	for i, mag := range sp.mags {
		for k, m := range mag {
			power[k] = m * m
		}
		logMel := melEnergies(mfccBank, power)
		for j := range logMel {
			logMel[j] = math.Log(logMel[j] + 1e-10)
		}
		mfccPerFrame[i] = dctII(logMel, nMFCC)
	}
	mfccMean, mfccStd := columnStats(mfccPerFrame, nMFCC)

	// Fundamental frequency from the maximum-magnitude bin per frame;
	// frames with non-positive pitch are discarded.
	var pitches []float64
	for _, mag := range sp.mags {
		best, bestMag := 0, 0.0
		for k, m := range mag {
			if m > bestMag {
				bestMag = m
				best = k
			}
		}
		if p := sp.freqs[best]; p > 0 {
			pitches = append(pitches, p)
		}
	}
	pitchMean, pitchStd := meanStd(pitches)
	pitchRange := 0.0
	if len(pitches) > 0 {
		lo, hi := pitches[0], pitches[0]
		for _, p := range pitches {
			lo = math.Min(lo, p)
			hi = math.Max(hi, p)
		}
		pitchRange = hi - lo
	}

	centroids := make([]float64, len(sp.mags))
	rolloffs := make([]float64, len(sp.mags))
	zcrs := make([]float64, 0, len(sp.mags))
	rmsValues := make([]float64, len(sp.mags))
	for i, mag := range sp.mags {
		centroids[i] = spectralCentroid(mag, sp.freqs)
		rolloffs[i] = spectralRolloff(mag, sp.freqs)
	}
	for _, f := range frames(clip.Samples) {
		zcrs = append(zcrs, zeroCrossingRate(f))
	}
	for i, f := range frames(clip.Samples) {
		var sum float64
		for _, s := range f {
			sum += s * s
		}
		rmsValues[i] = math.Sqrt(sum / float64(len(f)))
	}
	centroidMean, centroidStd := meanStd(centroids)
	rolloffMean, rolloffStd := meanStd(rolloffs)
	rmsMean, rmsStd := meanStd(rmsValues)
	zcrMean, _ := meanStd(zcrs)

	contrast := spectralContrast(sp, clip.SampleRate)

	env := onsetEnvelope(sp)
	tempoBPM := estimateTempo(env, clip.SampleRate)
	beatStrength, _ := meanStd(env)

	// Fluency: silence-gap detection over the amplitude envelope.
	intervals := splitNonSilent(clip.Samples)
	nPauses := 0
	if len(intervals) > 0 {
		nPauses = len(intervals) - 1
	}
	var pauseDurations []float64
	for i := 0; i+1 < len(intervals); i++ {
		gap := float64(intervals[i+1].start-intervals[i].end) / float64(clip.SampleRate)
		pauseDurations = append(pauseDurations, gap)
	}
	avgPause, _ := meanStd(pauseDurations)
	speakingTime := 0.0
	for _, iv := range intervals {
		speakingTime += float64(iv.end-iv.start) / float64(clip.SampleRate)
	}
	speakingRate := 0.0
	if duration > 0 {
		speakingRate = float64(len(intervals)) / duration
	}

	// Jitter and shimmer proxies from per-frame energy differences.
	energies := frameEnergies(clip.Samples)
	jitter, shimmer := 0.0, 0.0
	if len(energies) > 1 {
		diffs := make([]float64, len(energies)-1)
		absSum := 0.0
		for i := 1; i < len(energies); i++ {
			diffs[i-1] = energies[i] - energies[i-1]
			absSum += math.Abs(diffs[i-1])
		}
		_, jitter = meanStd(diffs)
		shimmer = absSum / float64(len(diffs))
	}

	// First 10 mean mel-band energies over the full-resolution bank.
	melBank := melFilterBank(nMelBands, nBins, clip.SampleRate)
	melSums := make([]float64, nMelBands)
	for _, mag := range sp.mags {
		for k, m := range mag {
			power[k] = m * m
		}
		for j, e := range melEnergies(melBank, power) {
			melSums[j] += e
		}
	}
	melMean := make([]float64, 10)
	for j := range melMean {
		melMean[j] = melSums[j] / float64(len(sp.mags))
	}

	fs := feature.NewSet()
	fs.Put("duration", duration)
	fs.Put("sample_rate", float64(clip.SampleRate))
	fs.PutVec("mfcc_mean", mfccMean)
	fs.PutVec("mfcc_std", mfccStd)
	fs.Put("pitch_mean", pitchMean)
	fs.Put("pitch_std", pitchStd)
	fs.Put("pitch_range", pitchRange)
	fs.Put("spectral_centroid_mean", centroidMean)
	fs.Put("spectral_centroid_std", centroidStd)
	fs.Put("spectral_rolloff_mean", rolloffMean)
	fs.Put("spectral_rolloff_std", rolloffStd)
	fs.PutVec("spectral_contrast_mean", contrast)
	fs.Put("tempo", tempoBPM)
	fs.Put("beat_strength_mean", beatStrength)
	fs.Put("rms_energy_mean", rmsMean)
	fs.Put("rms_energy_std", rmsStd)
	fs.Put("zero_crossing_rate_mean", zcrMean)
	fs.Put("n_pauses", float64(nPauses))
	fs.Put("avg_pause_duration", avgPause)
	fs.Put("speaking_rate", speakingRate)
	fs.Put("speaking_time", speakingTime)
	fs.Put("jitter", jitter)
	fs.Put("shimmer", shimmer)
	fs.PutVec("mel_mean", melMean)
	return fs
}

// #endregion extract

// #region spectral-helpers

// spectralCentroid is the magnitude-weighted mean frequency of one frame.
func spectralCentroid(mag, freqs []float64) float64 {
	var num, den float64
	for k, m := range mag {
		num += freqs[k] * m
		den += m
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// spectralRolloff is the frequency below which 85% of the spectral energy
// sits.
func spectralRolloff(mag, freqs []float64) float64 {
	var total float64
	for _, m := range mag {
		total += m
	}
	if total == 0 {
		return 0
	}
	target := 0.85 * total
	var cum float64
	for k, m := range mag {
		cum += m
		if cum >= target {
			return freqs[k]
		}
	}
	return freqs[len(freqs)-1]
}

// contrastEdges bound the octave-spaced bands used for spectral contrast.
var contrastEdges = []float64{0, 200, 400, 800, 1600, 3200, 6400, math.MaxFloat64}

// spectralContrast computes per-band mean peak-to-valley log-magnitude
// differences across frames, one value per band.
func spectralContrast(sp spectrogram, sampleRate int) []float64 {
	out := make([]float64, nContrast)
	if len(sp.mags) == 0 {
		return out
	}
	for band := 0; band < nContrast; band++ {
		lo, hi := contrastEdges[band], contrastEdges[band+1]
		var sum float64
		for _, mag := range sp.mags {
			var bins []float64
			for k, f := range sp.freqs {
				if f >= lo && f < hi {
					bins = append(bins, math.Log(mag[k]+1e-10))
				}
			}
			if len(bins) == 0 {
				continue
			}
			sort.Float64s(bins)
			q := len(bins) / 5
			if q < 1 {
				q = 1
			}
			valley, _ := meanStd(bins[:q])
			peak, _ := meanStd(bins[len(bins)-q:])
			sum += peak - valley
		}
		out[band] = sum / float64(len(sp.mags))
	}
	return out
}

// zeroCrossingRate is the fraction of adjacent sample pairs with a sign
// change.
func zeroCrossingRate(f []float64) float64 {
	if len(f) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(f); i++ {
		if (f[i-1] >= 0) != (f[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(f)-1)
}

// frameEnergies sums squared samples per analysis frame.
func frameEnergies(samples []float64) []float64 {
	fr := frames(samples)
	out := make([]float64, len(fr))
	for i, f := range fr {
		var sum float64
		for _, s := range f {
			sum += s * s
		}
		out[i] = sum
	}
	return out
}

// #endregion spectral-helpers

// #region stats

// meanStd returns mean and population standard deviation, (0, 0) on empty
// input.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return stat.Mean(xs, nil), stat.PopStdDev(xs, nil)
}

// columnStats computes per-column mean and std over a ragged-safe matrix.
func columnStats(rows [][]float64, cols int) ([]float64, []float64) {
	means := make([]float64, cols)
	stds := make([]float64, cols)
	if len(rows) == 0 {
		return means, stds
	}
	col := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for i, row := range rows {
			if j < len(row) {
				col[i] = row[j]
			} else {
				col[i] = 0
			}
		}
		means[j], stds[j] = meanStd(col)
	}
	return means, stds
}

// #endregion stats
