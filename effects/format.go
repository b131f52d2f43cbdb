package effects

import (
	"bloompyramid/libio"

	"github.com/chewxy/math32"
)

type Format int

const (
	FormatUnknown = Format(iota)
	// R11 G11 B10 unsigned floats packed into 32 bits
	FormatB10G11R11UFloatPack32
	FormatR8G8B8A8SRGB
	FormatR8G8B8A8UNorm
	FormatR16G16B16A16SFloat
	FormatR32G32B32A32SFloat
)

func (f Format) String() string {
	switch f {
	case FormatB10G11R11UFloatPack32:
		return "B10G11R11_UFloatPack32"
	case FormatR8G8B8A8SRGB:
		return "R8G8B8A8_SRGB"
	case FormatR8G8B8A8UNorm:
		return "R8G8B8A8_UNorm"
	case FormatR16G16B16A16SFloat:
		return "R16G16B16A16_SFloat"
	case FormatR32G32B32A32SFloat:
		return "R32G32B32A32_SFloat"
	}
	return "Unknown"
}

func (f Format) IsHdr() bool {
	switch f {
	case FormatB10G11R11UFloatPack32, FormatR16G16B16A16SFloat, FormatR32G32B32A32SFloat:
		return true
	}
	return false
}

type ColorSpace int

const (
	ColorSpaceLinear = ColorSpace(iota)
	ColorSpaceGamma
)

func (cs ColorSpace) String() string {
	if cs == ColorSpaceGamma {
		return "gamma"
	}
	return "linear"
}

// FormatSupport reports whether a format can be rendered to and sampled linearly.
type FormatSupport interface {
	IsFormatSupported(format Format) bool
}

// SelectHdrFormat picks the storage format of the bloom mips.
// The packed float format is preferred, the 8-bit fallback follows the color space.
func SelectHdrFormat(caps FormatSupport, space ColorSpace) Format {
	if caps.IsFormatSupported(FormatB10G11R11UFloatPack32) {
		return FormatB10G11R11UFloatPack32
	}
	if space == ColorSpaceLinear {
		return FormatR8G8B8A8SRGB
	}
	return FormatR8G8B8A8UNorm
}

const (
	maxUFloat11 = 65024.0
	maxUFloat10 = 64512.0
	maxHalf     = 65504.0
)

// Quantize rounds a linear rgb color to the precision the format can store.
func (f Format) Quantize(rgb []float32) {
	switch f {
	case FormatB10G11R11UFloatPack32:
		rgb[0] = quantizeFloat(math32.Max(rgb[0], 0), 6, maxUFloat11)
		rgb[1] = quantizeFloat(math32.Max(rgb[1], 0), 6, maxUFloat11)
		rgb[2] = quantizeFloat(math32.Max(rgb[2], 0), 5, maxUFloat10)
	case FormatR16G16B16A16SFloat:
		for c := range rgb {
			rgb[c] = quantizeFloat(rgb[c], 10, maxHalf)
		}
	case FormatR8G8B8A8UNorm:
		for c := range rgb {
			rgb[c] = quantizeUNorm8(rgb[c])
		}
	case FormatR8G8B8A8SRGB:
		for c := range rgb {
			rgb[c] = libio.SrgbToLinear(quantizeUNorm8(libio.LinearToSrgb(math32.Max(rgb[c], 0))))
		}
	}
}

func quantizeUNorm8(v float32) float32 {
	v = math32.Min(math32.Max(v, 0), 1)
	return math32.Floor(v*0xff+0.5) / 0xff
}

// quantizeFloat rounds v to a float with 5 exponent bits and the given mantissa bits.
func quantizeFloat(v float32, mantissa int, max float32) float32 {
	if v != v {
		return 0
	}
	sign := float32(1)
	if v < 0 {
		sign, v = -1, -v
	}
	if v == 0 {
		return 0
	}
	if v >= max {
		return sign * max
	}
	_, exp := math32.Frexp(v)
	// v is in [2^(exp-1), 2^exp), denormals share the smallest exponent
	exp--
	if exp < -14 {
		exp = -14
	}
	step := math32.Ldexp(1, exp-mantissa)
	return sign * math32.Min(math32.Floor(v/step+0.5)*step, max)
}
