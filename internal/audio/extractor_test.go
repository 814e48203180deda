package audio

import (
	"math"
	"testing"

	"github.com/sojwal000/learning-screen/internal/feature"
)

// sineClip synthesizes one second of a pure tone.
func sineClip(freq float64, sampleRate int) Clip {
	samples := make([]float64, sampleRate)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return Clip{Samples: samples, SampleRate: sampleRate}
}

func TestExtractEmptyClipIsErrorSet(t *testing.T) {
	fs := Extract(Clip{SampleRate: 22050})
	if !fs.IsError() {
		t.Fatal("expected error set for empty clip")
	}
	if fs.Len() != 1 {
		t.Fatalf("error set must carry the single error key, got %v", fs.Keys())
	}
	if got := feature.AudioVector(fs); len(got) != feature.AudioVectorLen {
		t.Fatalf("fallback vector length: got %d", len(got))
	}
}

func TestExtractBadSampleRateIsErrorSet(t *testing.T) {
	if fs := Extract(Clip{Samples: []float64{0.1, 0.2}}); !fs.IsError() {
		t.Fatal("expected error set for non-positive sample rate")
	}
}

func TestExtractToneFeatureSchema(t *testing.T) {
	fs := Extract(sineClip(440, 22050))
	if fs.IsError() {
		t.Fatalf("unexpected error: %s", fs.ErrorMessage())
	}

	if got := fs.GetOr("duration", 0); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("duration: expected 1s, got %v", got)
	}
	if got := fs.GetOr("sample_rate", 0); got != 22050 {
		t.Fatalf("sample_rate: got %v", got)
	}
	if vec := fs.Vec("mfcc_mean"); len(vec) != nMFCC {
		t.Fatalf("mfcc_mean: expected %d coefficients, got %d", nMFCC, len(vec))
	}
	if vec := fs.Vec("spectral_contrast_mean"); len(vec) != nContrast {
		t.Fatalf("spectral_contrast_mean: expected %d bands, got %d", nContrast, len(vec))
	}

	// A 440 Hz tone: the dominant bin should land near 440 within one
	// bin width (22050/2048 ~ 10.8 Hz).
	if got := fs.GetOr("pitch_mean", 0); math.Abs(got-440) > 22050.0/2048.0 {
		t.Fatalf("pitch_mean: expected ~440 Hz, got %v", got)
	}
	if got := fs.GetOr("pitch_std", -1); got < 0 || got > 1 {
		t.Fatalf("pitch_std: a steady tone should be near 0, got %v", got)
	}
	if got := fs.GetOr("rms_energy_mean", 0); got <= 0 {
		t.Fatalf("rms_energy_mean: expected positive energy, got %v", got)
	}

	if got := feature.AudioVector(fs); len(got) != feature.AudioVectorLen {
		t.Fatalf("model vector length: got %d, want %d", len(got), feature.AudioVectorLen)
	}
}

func TestExtractDeterministic(t *testing.T) {
	clip := sineClip(220, 16000)
	a := Extract(clip)
	b := Extract(clip)
	av, bv := feature.AudioVector(a), feature.AudioVector(b)
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("element %d differs between runs: %v vs %v", i, av[i], bv[i])
		}
	}
}

func TestSilenceHasNoSpeech(t *testing.T) {
	fs := Extract(Clip{Samples: make([]float64, 22050), SampleRate: 22050})
	if fs.IsError() {
		t.Fatalf("silence is a valid clip: %s", fs.ErrorMessage())
	}
	if got := fs.GetOr("speaking_time", -1); got != 0 {
		t.Fatalf("speaking_time: expected 0 for silence, got %v", got)
	}
	if got := fs.GetOr("speaking_rate", -1); got != 0 {
		t.Fatalf("speaking_rate: expected 0 for silence, got %v", got)
	}
}

func TestMelConversionRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 100, 440, 4000, 8000} {
		back := melToHz(hzToMel(hz))
		if math.Abs(back-hz) > 1e-6 {
			t.Fatalf("mel round trip for %v Hz drifted to %v", hz, back)
		}
	}
}

func TestHannWindowEndpoints(t *testing.T) {
	w := hannWindow(8)
	if w[0] != 0 {
		t.Fatalf("hann window must start at 0, got %v", w[0])
	}
	max := 0.0
	for _, v := range w {
		if v > max {
			max = v
		}
	}
	if max <= 0.9 {
		t.Fatalf("hann window peak too low: %v", max)
	}
}
