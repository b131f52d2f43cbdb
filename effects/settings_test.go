package effects_test

import (
	"testing"

	"bloompyramid/effects"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDefaultBloomSettings(t *testing.T) {
	s := effects.DefaultBloomSettings()
	if s.Threshold != 0.9 || s.Intensity != 1 || s.Scatter != 0.7 || s.Clamp != 65472 || s.MaxIterations != 6 {
		t.Errorf("unexpected defaults %+v", s)
	}
	if s.Tint != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("tint = %v, want white", s.Tint)
	}
	if s.Sanitize() != s {
		t.Errorf("defaults should already be valid")
	}
	if !s.IsActive() {
		t.Errorf("default bloom should be active")
	}
	if s.IsTileCompatible() {
		t.Errorf("bloom is never tile compatible")
	}
}

func TestSanitize(t *testing.T) {
	s := effects.BloomSettings{
		Threshold:     -1,
		Intensity:     -2,
		Scatter:       3,
		Clamp:         0,
		MaxIterations: 99,
		Tint:          mgl32.Vec3{-1, 0.5, 2},
	}.Sanitize()

	if s.Threshold != 0 || s.Intensity != 0 || s.Scatter != 1 {
		t.Errorf("threshold %v intensity %v scatter %v not clamped", s.Threshold, s.Intensity, s.Scatter)
	}
	if s.Clamp != effects.DefaultClamp {
		t.Errorf("clamp = %v, want default", s.Clamp)
	}
	if s.MaxIterations != effects.MaxIterationsLimit {
		t.Errorf("max iterations = %d, want %d", s.MaxIterations, effects.MaxIterationsLimit)
	}
	if s.Tint != (mgl32.Vec3{0, 0.5, 2}) {
		t.Errorf("tint = %v", s.Tint)
	}
	if s.IsActive() {
		t.Errorf("zero intensity should be inactive")
	}

	s = effects.BloomSettings{MaxIterations: -3, Scatter: -1}.Sanitize()
	if s.MaxIterations != 0 || s.Scatter != 0 {
		t.Errorf("max iterations %d scatter %v, want 0 0", s.MaxIterations, s.Scatter)
	}
}
