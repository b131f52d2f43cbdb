package effects

import (
	"fmt"

	"bloompyramid/libio"

	"github.com/chewxy/math32"
)

// 9-tap gaussian, symmetric, the center weight is last
var blurWeightsA = [5]float32{0.01621622, 0.05405405, 0.12162162, 0.19459459, 0.22702703}

// 9-tap gaussian folded into 5 bilinear taps
var blurOffsetsB = [3]float32{0.0, 1.38461538, 3.23076923}
var blurWeightsB = [3]float32{0.22702703, 0.31621622, 0.07027027}

type swTarget struct {
	desc  TargetDesc
	image *libio.FloatImage
}

type swExecutor struct {
	targets     [MaxPyramidSize * 2]swTarget
	unsupported map[Format]bool
	source      *libio.FloatImage
}

// NewSwExecutor runs bloom on the cpu. Formats listed as unsupported are
// reported as such, which is mostly useful to exercise the format fallback.
func NewSwExecutor(unsupported ...Format) Executor {
	exec := &swExecutor{
		unsupported: map[Format]bool{},
	}
	for _, f := range unsupported {
		exec.unsupported[f] = true
	}
	return exec
}

func (exec *swExecutor) IsFormatSupported(format Format) bool {
	return format != FormatUnknown && !exec.unsupported[format]
}

func (exec *swExecutor) Allocate(target Target, desc TargetDesc) error {
	if !target.IsMip() {
		return nil
	}
	exec.targets[target] = swTarget{
		desc:  desc,
		image: libio.NewBlankFloatImage(3, desc.Width, desc.Height),
	}
	return nil
}

func (exec *swExecutor) Release() {
	for i := range exec.targets {
		exec.targets[i] = swTarget{}
	}
	exec.source = nil
}

func (exec *swExecutor) lookup(target Target) (*swTarget, error) {
	if !target.IsMip() {
		return nil, fmt.Errorf("%s is not a mip target", target)
	}
	t := &exec.targets[target]
	if t.image == nil {
		return nil, fmt.Errorf("%s has not been allocated", target)
	}
	return t, nil
}

func (exec *swExecutor) input(target Target) (*libio.FloatImage, error) {
	if target == SourceTarget {
		if exec.source == nil {
			return nil, fmt.Errorf("no source image")
		}
		return exec.source, nil
	}
	t, err := exec.lookup(target)
	if err != nil {
		return nil, err
	}
	return t.image, nil
}

func (exec *swExecutor) Execute(list *CommandList, source *libio.FloatImage) error {
	if list.Empty() {
		return nil
	}
	if source.Channels < 3 {
		return fmt.Errorf("source needs at least 3 channels, has %d", source.Channels)
	}
	exec.source = source

	params := list.Params
	for i, b := range list.Blits {
		src, err := exec.input(b.Src)
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}
		dst, err := exec.lookup(b.Dst)
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}

		switch b.Pass {
		case PassPrefilter:
			swPrefilter(src, dst.image, params)
		case PassDownsampleBlurA:
			swBlurA(src, dst.image)
		case PassDownsampleBlurB:
			swBlurB(src, dst.image)
		case PassUpsampleCombine:
			low, err := exec.input(b.LowMip)
			if err != nil {
				return fmt.Errorf("blit %d low mip: %w", i, err)
			}
			swUpsample(src, low, dst.image, params)
		default:
			return fmt.Errorf("blit %d: unknown pass %s", i, b.Pass)
		}

		for p := 0; p < dst.image.Count(); p++ {
			dst.desc.Format.Quantize(dst.image.Pix[p*3 : p*3+3 : p*3+3])
		}
	}

	return nil
}

func (exec *swExecutor) Read(target Target) (*libio.FloatImage, error) {
	img, err := exec.input(target)
	if err != nil {
		return nil, err
	}
	return img.Clone(), nil
}

// forEachPixel calls cb with the uv of each pixel center and the pixel's rgb slot.
func forEachPixel(dst *libio.FloatImage, cb func(u, v float32, out []float32)) {
	iw, ih := 1.0/float32(dst.Width), 1.0/float32(dst.Height)
	for y := 0; y < dst.Height; y++ {
		v := (float32(y) + 0.5) * ih
		for x := 0; x < dst.Width; x++ {
			u := (float32(x) + 0.5) * iw
			i := dst.Index(x, y)
			cb(u, v, dst.Pix[i:i+3:i+3])
		}
	}
}

func swPrefilter(src, dst *libio.FloatImage, params BloomParams) {
	threshold, knee := params.Threshold, params.ThresholdKnee
	forEachPixel(dst, func(u, v float32, out []float32) {
		r, g, b := sampleBilinear(src, u, v)
		r = math32.Min(params.Clamp, r)
		g = math32.Min(params.Clamp, g)
		b = math32.Min(params.Clamp, b)

		brightness := math32.Max(r, math32.Max(g, b))
		softness := math32.Min(math32.Max(brightness-threshold+knee, 0), 2*knee)
		softness = (softness * softness) / (4*knee + 1e-4)
		multiplier := math32.Max(brightness-threshold, softness) / math32.Max(brightness, 1e-4)

		out[0] = math32.Max(r*multiplier, 0)
		out[1] = math32.Max(g*multiplier, 0)
		out[2] = math32.Max(b*multiplier, 0)
	})
}

func swBlurA(src, dst *libio.FloatImage) {
	texel := 2.0 / float32(src.Width)
	forEachPixel(dst, func(u, v float32, out []float32) {
		var cr, cg, cb float32
		for k := -4; k <= 4; k++ {
			w := blurWeightsA[4-absI(k)]
			r, g, b := sampleBilinear(src, u+float32(k)*texel, v)
			cr += r * w
			cg += g * w
			cb += b * w
		}
		out[0], out[1], out[2] = cr, cg, cb
	})
}

func swBlurB(src, dst *libio.FloatImage) {
	texel := 1.0 / float32(src.Height)
	forEachPixel(dst, func(u, v float32, out []float32) {
		r, g, b := sampleBilinear(src, u, v)
		cr, cg, cb := r*blurWeightsB[0], g*blurWeightsB[0], b*blurWeightsB[0]
		for k := 1; k < len(blurOffsetsB); k++ {
			w := blurWeightsB[k]
			o := blurOffsetsB[k] * texel
			r0, g0, b0 := sampleBilinear(src, u, v-o)
			r1, g1, b1 := sampleBilinear(src, u, v+o)
			cr += (r0 + r1) * w
			cg += (g0 + g1) * w
			cb += (b0 + b1) * w
		}
		out[0], out[1], out[2] = cr, cg, cb
	})
}

func swUpsample(high, low, dst *libio.FloatImage, params BloomParams) {
	s := params.Scatter
	forEachPixel(dst, func(u, v float32, out []float32) {
		hr, hg, hb := sampleBilinear(high, u, v)
		lr, lg, lb := sampleBilinear(low, u, v)
		out[0] = hr + (lr-hr)*s
		out[1] = hg + (lg-hg)*s
		out[2] = hb + (lb-hb)*s
	})
}

// Composite adds the bloom image on top of scene, scaled by tint and intensity.
// The bloom is resampled to the scene size. Alpha is copied from scene.
func Composite(scene, bloom *libio.FloatImage, input CompositeInput) *libio.FloatImage {
	result := scene.Clone()
	tr := input.Tint[0] * input.Intensity
	tg := input.Tint[1] * input.Intensity
	tb := input.Tint[2] * input.Intensity
	forEachPixel(result, func(u, v float32, out []float32) {
		r, g, b := sampleBilinear(bloom, u, v)
		out[0] += r * tr
		out[1] += g * tg
		out[2] += b * tb
	})
	return result
}

func absI(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// sampleBilinear samples the first three channels with clamp to edge addressing.
func sampleBilinear(img *libio.FloatImage, u, v float32) (r, g, b float32) {
	w, h := img.Width, img.Height
	// -0.5 to adjust for the pixel center offset
	u = u*float32(w) - 0.5
	v = v*float32(h) - 0.5
	ufloor := math32.Floor(u)
	vfloor := math32.Floor(v)
	ufrac, vfrac := u-ufloor, v-vfloor
	ufloori, vfloori := int(ufloor), int(vfloor)
	uceili, vceili := ufloori+1, vfloori+1

	if ufloori < 0 {
		ufloori = 0
	}
	if vfloori < 0 {
		vfloori = 0
	}
	if uceili < 0 {
		uceili = 0
	}
	if vceili < 0 {
		vceili = 0
	}
	if uceili >= w {
		uceili = w - 1
	}
	if ufloori >= w {
		ufloori = w - 1
	}
	if vceili >= h {
		vceili = h - 1
	}
	if vfloori >= h {
		vfloori = h - 1
	}

	pix := img.Pix
	o00 := img.Index(ufloori, vfloori)
	o10 := img.Index(uceili, vfloori)
	o01 := img.Index(ufloori, vceili)
	o11 := img.Index(uceili, vceili)

	r00, g00, b00 := pix[o00+0], pix[o00+1], pix[o00+2]
	r10, g10, b10 := pix[o10+0], pix[o10+1], pix[o10+2]
	r01, g01, b01 := pix[o01+0], pix[o01+1], pix[o01+2]
	r11, g11, b11 := pix[o11+0], pix[o11+1], pix[o11+2]

	rh0 := r00*(1.0-ufrac) + r10*ufrac
	gh0 := g00*(1.0-ufrac) + g10*ufrac
	bh0 := b00*(1.0-ufrac) + b10*ufrac

	rh1 := r01*(1.0-ufrac) + r11*ufrac
	gh1 := g01*(1.0-ufrac) + g11*ufrac
	bh1 := b01*(1.0-ufrac) + b11*ufrac

	r = rh0*(1.0-vfrac) + rh1*vfrac
	g = gh0*(1.0-vfrac) + gh1*vfrac
	b = bh0*(1.0-vfrac) + bh1*vfrac

	return r, g, b
}
