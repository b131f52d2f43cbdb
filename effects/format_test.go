package effects_test

import (
	"testing"

	"bloompyramid/effects"
)

func TestSelectHdrFormat(t *testing.T) {
	tests := []struct {
		name  string
		caps  effects.FormatSupport
		space effects.ColorSpace
		want  effects.Format
	}{
		{"packed linear", effects.NewSwExecutor(), effects.ColorSpaceLinear, effects.FormatB10G11R11UFloatPack32},
		{"packed gamma", effects.NewSwExecutor(), effects.ColorSpaceGamma, effects.FormatB10G11R11UFloatPack32},
		{"fallback linear", effects.NewSwExecutor(effects.FormatB10G11R11UFloatPack32), effects.ColorSpaceLinear, effects.FormatR8G8B8A8SRGB},
		{"fallback gamma", effects.NewSwExecutor(effects.FormatB10G11R11UFloatPack32), effects.ColorSpaceGamma, effects.FormatR8G8B8A8UNorm},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := effects.SelectHdrFormat(test.caps, test.space); got != test.want {
				t.Errorf("got %s, want %s", got, test.want)
			}
			effect := effects.NewBloomEffect(test.caps, test.space, nil)
			if effect.Format() != test.want || effect.ColorSpace() != test.space {
				t.Errorf("effect uses %s in %s", effect.Format(), effect.ColorSpace())
			}
		})
	}
}

func TestFormatIsHdr(t *testing.T) {
	if !effects.FormatB10G11R11UFloatPack32.IsHdr() || !effects.FormatR16G16B16A16SFloat.IsHdr() {
		t.Errorf("float formats should be hdr")
	}
	if effects.FormatR8G8B8A8SRGB.IsHdr() || effects.FormatR8G8B8A8UNorm.IsHdr() {
		t.Errorf("8-bit formats should not be hdr")
	}
}

func TestQuantizePackedFloat(t *testing.T) {
	tests := []struct {
		in, want [3]float32
	}{
		{[3]float32{1, 0.5, 0.25}, [3]float32{1, 0.5, 0.25}},
		// 6 mantissa bits for red and green, 5 for blue
		{[3]float32{1.01, 1.01, 1.01}, [3]float32{1.015625, 1.015625, 1}},
		{[3]float32{-2, 0, 3}, [3]float32{0, 0, 3}},
		{[3]float32{1e6, 1e6, 1e6}, [3]float32{65024, 65024, 64512}},
	}
	for _, test := range tests {
		rgb := test.in
		effects.FormatB10G11R11UFloatPack32.Quantize(rgb[:])
		if rgb != test.want {
			t.Errorf("Quantize(%v) = %v, want %v", test.in, rgb, test.want)
		}
	}
}

func TestQuantizeUNorm(t *testing.T) {
	rgb := []float32{0.5, 2, -1}
	effects.FormatR8G8B8A8UNorm.Quantize(rgb)
	if !approx(rgb[0], 128.0/255, 1e-6) || rgb[1] != 1 || rgb[2] != 0 {
		t.Errorf("got %v", rgb)
	}

	rgb = []float32{0, 1, 4}
	effects.FormatR8G8B8A8SRGB.Quantize(rgb)
	if rgb[0] != 0 || !approx(rgb[1], 1, 1e-6) || !approx(rgb[2], 1, 1e-6) {
		t.Errorf("got %v", rgb)
	}
}

func TestQuantizeFullFloat(t *testing.T) {
	rgb := []float32{1.01, 123456.7, -3}
	effects.FormatR32G32B32A32SFloat.Quantize(rgb)
	if rgb[0] != 1.01 || rgb[1] != 123456.7 || rgb[2] != -3 {
		t.Errorf("32-bit float should be unchanged, got %v", rgb)
	}
}
