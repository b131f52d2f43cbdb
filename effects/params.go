package effects

import (
	"bloompyramid/libutil"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	minScatter = 0.05
	maxScatter = 0.95
	// soft knee width relative to the threshold
	kneeFactor = 0.5
)

// BloomParams is the parameter vector shared by all bloom passes.
type BloomParams struct {
	Scatter       float32
	Clamp         float32
	Threshold     float32
	ThresholdKnee float32
}

func DeriveParams(s BloomSettings) BloomParams {
	threshold := GammaToLinear(s.Threshold)
	return BloomParams{
		Scatter:       libutil.Lerp(minScatter, maxScatter, s.Scatter),
		Clamp:         s.Clamp,
		Threshold:     threshold,
		ThresholdKnee: threshold * kneeFactor,
	}
}

// Vec4 packs the parameters in the order the shaders expect: scatter, clamp, threshold, knee.
func (p BloomParams) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{p.Scatter, p.Clamp, p.Threshold, p.ThresholdKnee}
}

// GammaToLinear converts an sRGB encoded value to linear light.
// Values above 1 follow a plain 2.2 power curve.
func GammaToLinear(v float32) float32 {
	switch {
	case v <= 0.04045:
		return v / 12.92
	case v < 1.0:
		return math32.Pow((v+0.055)/1.055, 2.4)
	default:
		return math32.Pow(v, 2.2)
	}
}
