package effects_test

import (
	"testing"

	"bloompyramid/effects"
)

func TestDeriveParamsDefaults(t *testing.T) {
	params := effects.DeriveParams(effects.DefaultBloomSettings())

	if !approx(params.Threshold, 0.78741229, 1e-6) {
		t.Errorf("threshold = %v, want 0.78741229", params.Threshold)
	}
	if params.ThresholdKnee != params.Threshold*0.5 {
		t.Errorf("knee = %v, want half of %v", params.ThresholdKnee, params.Threshold)
	}
	if !approx(params.Scatter, 0.68, 1e-6) {
		t.Errorf("scatter = %v, want 0.68", params.Scatter)
	}
	if params.Clamp != effects.DefaultClamp {
		t.Errorf("clamp = %v, want %v", params.Clamp, effects.DefaultClamp)
	}
}

func TestDeriveParamsScatterRange(t *testing.T) {
	tests := []struct {
		scatter, want float32
	}{
		{0, 0.05},
		{0.5, 0.5},
		{1, 0.95},
	}
	for _, test := range tests {
		s := effects.DefaultBloomSettings()
		s.Scatter = test.scatter
		got := effects.DeriveParams(s).Scatter
		if !approx(got, test.want, 1e-6) {
			t.Errorf("scatter %v mapped to %v, want %v", test.scatter, got, test.want)
		}
	}
}

func TestParamsVec4Order(t *testing.T) {
	params := effects.BloomParams{Scatter: 1, Clamp: 2, Threshold: 3, ThresholdKnee: 4}
	v := params.Vec4()
	if v[0] != 1 || v[1] != 2 || v[2] != 3 || v[3] != 4 {
		t.Errorf("Vec4() = %v, want [1 2 3 4]", v)
	}
}

func TestGammaToLinear(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{0, 0},
		{0.04045, 0.04045 / 12.92},
		{0.5, 0.21404114},
		{0.9, 0.78741229},
		{1, 1},
		{2, 4.5947934},
	}
	for _, test := range tests {
		got := effects.GammaToLinear(test.in)
		if !approx(got, test.want, 1e-5) {
			t.Errorf("GammaToLinear(%v) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestDeriveParamsZeroThreshold(t *testing.T) {
	s := effects.DefaultBloomSettings()
	s.Threshold = 0
	params := effects.DeriveParams(s)
	if params.Threshold != 0 || params.ThresholdKnee != 0 {
		t.Errorf("got threshold %v knee %v, want 0 0", params.Threshold, params.ThresholdKnee)
	}
}
