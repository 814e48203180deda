package audio

// #region imports
import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// #endregion

// #region framing

// analysis window parameters shared by the spectral and energy paths.
const (
	frameLength = 2048
	hopLength   = 512
)

// frames slices samples into overlapping windows of length frameLength
// at hopLength stride. Short signals yield a single zero-padded frame.
func frames(samples []float64) [][]float64 {
	if len(samples) == 0 {
		return nil
	}
	if len(samples) < frameLength {
		padded := make([]float64, frameLength)
		copy(padded, samples)
		return [][]float64{padded}
	}
	n := 1 + (len(samples)-frameLength)/hopLength
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = samples[i*hopLength : i*hopLength+frameLength]
	}
	return out
}

// hannWindow returns the length-n Hann window.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// #endregion framing

// #region stft

// spectrogram holds per-frame magnitude spectra (frames x bins) with the
// bin center frequencies.
type spectrogram struct {
	mags  [][]float64
	freqs []float64
}

// stft computes a Hann-windowed magnitude spectrogram.
func stft(samples []float64, sampleRate int) spectrogram {
	fr := frames(samples)
	window := hannWindow(frameLength)
	fft := fourier.NewFFT(frameLength)

	nBins := frameLength/2 + 1
	sp := spectrogram{
		mags:  make([][]float64, len(fr)),
		freqs: make([]float64, nBins),
	}
	for k := 0; k < nBins; k++ {
		sp.freqs[k] = float64(k) * float64(sampleRate) / frameLength
	}

	windowed := make([]float64, frameLength)
	for i, f := range fr {
		for j := range windowed {
			windowed[j] = f[j] * window[j]
		}
		coeffs := fft.Coefficients(nil, windowed)
		mag := make([]float64, nBins)
		for k, c := range coeffs {
			mag[k] = math.Hypot(real(c), imag(c))
		}
		sp.mags[i] = mag
	}
	return sp
}

// #endregion stft

// #region mel

// hzToMel and melToHz use the HTK mel scale.
func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterBank builds nFilters triangular filters over the FFT bins up
// to the Nyquist frequency. Each row weights one filter.
func melFilterBank(nFilters, nBins, sampleRate int) [][]float64 {
	nyquist := float64(sampleRate) / 2
	melMax := hzToMel(nyquist)

	// Filter edge frequencies, evenly spaced on the mel scale.
	edges := make([]float64, nFilters+2)
	for i := range edges {
		edges[i] = melToHz(melMax * float64(i) / float64(nFilters+1))
	}

	binFreq := func(k int) float64 {
		return float64(k) * float64(sampleRate) / frameLength
	}

	bank := make([][]float64, nFilters)
	for m := 0; m < nFilters; m++ {
		row := make([]float64, nBins)
		lo, center, hi := edges[m], edges[m+1], edges[m+2]
		for k := 0; k < nBins; k++ {
			f := binFreq(k)
			switch {
			case f <= lo || f >= hi:
			case f <= center:
				if center > lo {
					row[k] = (f - lo) / (center - lo)
				}
			default:
				if hi > center {
					row[k] = (hi - f) / (hi - center)
				}
			}
		}
		bank[m] = row
	}
	return bank
}

// melEnergies applies a filter bank to one power spectrum.
func melEnergies(bank [][]float64, power []float64) []float64 {
	out := make([]float64, len(bank))
	for m, row := range bank {
		var sum float64
		for k, w := range row {
			if w != 0 {
				sum += w * power[k]
			}
		}
		out[m] = sum
	}
	return out
}

// dctII computes the first nCoeffs DCT-II coefficients of xs with
// orthonormal scaling, the cepstral lifting step of MFCC extraction.
func dctII(xs []float64, nCoeffs int) []float64 {
	n := len(xs)
	out := make([]float64, nCoeffs)
	scale0 := math.Sqrt(1 / float64(n))
	scale := math.Sqrt(2 / float64(n))
	for k := 0; k < nCoeffs && k < n; k++ {
		var sum float64
		for i, x := range xs {
			sum += x * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		if k == 0 {
			out[k] = sum * scale0
		} else {
			out[k] = sum * scale
		}
	}
	return out
}

// #endregion mel

// #region silence

// silenceTopDB is the threshold below the peak frame level at which a
// frame counts as silent, matching a 30 dB split.
const silenceTopDB = 30.0

// interval is a [start, end) sample range of contiguous non-silence.
type interval struct {
	start, end int
}

// splitNonSilent finds non-silent intervals by thresholding per-frame RMS
// at silenceTopDB below the loudest frame.
func splitNonSilent(samples []float64) []interval {
	fr := frames(samples)
	if len(fr) == 0 {
		return nil
	}

	rms := make([]float64, len(fr))
	peak := 0.0
	for i, f := range fr {
		var sum float64
		for _, s := range f {
			sum += s * s
		}
		rms[i] = math.Sqrt(sum / float64(len(f)))
		if rms[i] > peak {
			peak = rms[i]
		}
	}
	if peak == 0 {
		return nil
	}

	threshold := peak * math.Pow(10, -silenceTopDB/20)
	var out []interval
	open := false
	var start int
	for i, v := range rms {
		loud := v > threshold
		if loud && !open {
			start = i * hopLength
			open = true
		}
		if !loud && open {
			out = append(out, interval{start: start, end: i * hopLength})
			open = false
		}
	}
	if open {
		out = append(out, interval{start: start, end: len(samples)})
	}
	return out
}

// #endregion silence

// #region tempo

// tempo estimation bounds in beats per minute.
const (
	minBPM = 40.0
	maxBPM = 220.0
)

// onsetEnvelope computes half-wave rectified spectral flux per frame.
func onsetEnvelope(sp spectrogram) []float64 {
	if len(sp.mags) < 2 {
		return nil
	}
	env := make([]float64, len(sp.mags)-1)
	for i := 1; i < len(sp.mags); i++ {
		var flux float64
		for k := range sp.mags[i] {
			d := sp.mags[i][k] - sp.mags[i-1][k]
			if d > 0 {
				flux += d
			}
		}
		env[i-1] = flux
	}
	return env
}

// estimateTempo picks the autocorrelation peak of the onset envelope
// within the BPM search range and maps the lag back to beats per minute.
func estimateTempo(env []float64, sampleRate int) float64 {
	if len(env) < 4 {
		return 0
	}
	framesPerSecond := float64(sampleRate) / hopLength
	minLag := int(framesPerSecond * 60 / maxBPM)
	maxLag := int(framesPerSecond * 60 / minBPM)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(env) {
		maxLag = len(env) - 1
	}
	if maxLag < minLag {
		return 0
	}

	mean := 0.0
	for _, v := range env {
		mean += v
	}
	mean /= float64(len(env))

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := lag; i < len(env); i++ {
			corr += (env[i] - mean) * (env[i-lag] - mean)
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return 0
	}
	return 60 * framesPerSecond / float64(bestLag)
}

// #endregion tempo
