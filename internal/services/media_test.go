package services

import "testing"

func TestEffectiveDuration(t *testing.T) {
	const (
		window     = 1.5
		minSilence = 0.25
	)

	tests := []struct {
		name   string
		raw    float64
		starts []float64
		want   float64
	}{
		{"no silence detected", 4.0, nil, 4.0},
		{"trailing silence inside window", 4.0, []float64{3.6}, 3.6},
		{"silence at window lower bound", 4.0, []float64{4.0 - window - minSilence}, 4.0 - window - minSilence},
		{"silence at window upper bound", 4.0, []float64{4.0 - minSilence}, 4.0 - minSilence},
		{"silence too early ignored", 4.0, []float64{1.0}, 4.0},
		{"silence too close to end ignored", 4.0, []float64{3.9}, 4.0},
		{"only last silence considered", 4.0, []float64{1.0, 3.6}, 3.6},
		{"earlier match masked by late last", 4.0, []float64{3.0, 3.9}, 4.0},
		{"floored at minimum", 0.7, []float64{0.4}, 0.6},
		{"raw below floor", 0.3, nil, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveDuration(tt.raw, tt.starts, window, minSilence)
			if got != tt.want {
				t.Errorf("EffectiveDuration(%.2f, %v) = %.4f, want %.4f", tt.raw, tt.starts, got, tt.want)
			}
		})
	}
}

func TestEstimateDurationMs(t *testing.T) {
	// 140 words per minute at normal speed: 14 words ≈ 6s
	got := EstimateDurationMs("one two three four five six seven eight nine ten eleven twelve thirteen fourteen", 1.0)
	if got < 5500 || got > 6500 {
		t.Errorf("expected roughly 6000ms for 14 words, got %d", got)
	}

	faster := EstimateDurationMs("one two three four five six seven eight nine ten eleven twelve thirteen fourteen", 1.5)
	if faster >= got {
		t.Errorf("expected faster speech to shorten the estimate: %d >= %d", faster, got)
	}
}
