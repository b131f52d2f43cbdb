package effects

import (
	"bloompyramid/libutil"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultThreshold     = 0.9
	DefaultIntensity     = 1.0
	DefaultScatter       = 0.7
	DefaultClamp         = 65472.0
	DefaultMaxIterations = 6
	MaxIterationsLimit   = 10
)

// BloomSettings are the user facing bloom parameters. They are read once per frame.
type BloomSettings struct {
	// Brightness where bloom starts, in gamma space
	Threshold float32
	// Strength of the bloom in the composite
	Intensity float32
	// Blend between tight (0) and wide (1) glow
	Scatter float32
	// Upper limit for the brightness of prefiltered pixels
	Clamp         float32
	MaxIterations int
	Tint          mgl32.Vec3
	// Pass-through values for the composite shader
	Cutoff  float32
	Density float32
}

func DefaultBloomSettings() BloomSettings {
	return BloomSettings{
		Threshold:     DefaultThreshold,
		Intensity:     DefaultIntensity,
		Scatter:       DefaultScatter,
		Clamp:         DefaultClamp,
		MaxIterations: DefaultMaxIterations,
		Tint:          mgl32.Vec3{1, 1, 1},
		Cutoff:        1,
		Density:       1,
	}
}

// Sanitize returns a copy with every field forced into its valid range.
func (s BloomSettings) Sanitize() BloomSettings {
	if s.Threshold < 0 {
		s.Threshold = 0
	}
	if s.Intensity < 0 {
		s.Intensity = 0
	}
	s.Scatter = libutil.Clamp(s.Scatter, 0, 1)
	if !(s.Clamp > 0) {
		s.Clamp = DefaultClamp
	}
	s.MaxIterations = libutil.ClampI(s.MaxIterations, 0, MaxIterationsLimit)
	for i := range s.Tint {
		if s.Tint[i] < 0 {
			s.Tint[i] = 0
		}
	}
	return s
}

func (s BloomSettings) IsActive() bool {
	return s.Intensity > 0
}

func (s BloomSettings) IsTileCompatible() bool {
	return false
}
