package effects

import (
	"fmt"
	"io"
)

// Pass selects the bloom shader pass a blit runs.
type Pass int

const (
	// threshold, soft knee and clamp
	PassPrefilter = Pass(iota)
	// 2x downsample with a wide horizontal gaussian
	PassDownsampleBlurA
	// vertical gaussian using bilinear taps
	PassDownsampleBlurB
	// lerp(high, upsample(low), scatter)
	PassUpsampleCombine
)

func (p Pass) String() string {
	switch p {
	case PassPrefilter:
		return "prefilter"
	case PassDownsampleBlurA:
		return "downsample-blur-pass-A"
	case PassDownsampleBlurB:
		return "downsample-blur-pass-B"
	case PassUpsampleCombine:
		return "upsample-combine"
	}
	return fmt.Sprintf("pass(%d)", int(p))
}

type LoadAction int

const (
	LoadDontCare = LoadAction(iota)
	LoadLoad
	LoadClear
)

type StoreAction int

const (
	StoreStore = StoreAction(iota)
	StoreDontCare
)

type Blit struct {
	Src, Dst Target
	Pass     Pass
	Load     LoadAction
	Store    StoreAction
	// Auxiliary input of the upsample pass, NoTarget otherwise
	LowMip Target
}

func (b Blit) String() string {
	if b.LowMip != NoTarget {
		return fmt.Sprintf("%s -> %s [%s, low=%s]", b.Src, b.Dst, b.Pass, b.LowMip)
	}
	return fmt.Sprintf("%s -> %s [%s]", b.Src, b.Dst, b.Pass)
}

// CommandList is everything a backend needs to run one frame of bloom.
// Blits must be executed in order.
type CommandList struct {
	Params                BloomParams
	MipCount              int
	BaseWidth, BaseHeight int
	Format                Format
	Blits                 []Blit
}

func (list *CommandList) Empty() bool {
	return list == nil || len(list.Blits) == 0
}

// Output is the target holding the finished bloom image.
func (list *CommandList) Output() Target {
	if list.MipCount <= 1 {
		return MipDown(0)
	}
	return MipUp(0)
}

func (list *CommandList) Dump(w io.Writer) {
	fmt.Fprintf(w, "format %s, base %dx%d, %d mips\n", list.Format, list.BaseWidth, list.BaseHeight, list.MipCount)
	fmt.Fprintf(w, "params scatter=%.4f clamp=%.1f threshold=%.6f knee=%.6f\n",
		list.Params.Scatter, list.Params.Clamp, list.Params.Threshold, list.Params.ThresholdKnee)
	for i, b := range list.Blits {
		fmt.Fprintf(w, "%3d  %s\n", i, b)
	}
}

// BuildBloomCommands sizes the pool for the frame and records the bloom blits.
// Sizing and recording happen together so no blit can target a stale mip.
func BuildBloomCommands(settings BloomSettings, frame FrameDesc, pool *TargetPool, format Format) *CommandList {
	settings = settings.Sanitize()

	tw, th := BaseSize(frame.Width, frame.Height)
	mipCount := MipCount(tw, th, settings.MaxIterations)

	pool.EnsureSized(mipCount, tw, th, format)

	list := &CommandList{
		Params:     DeriveParams(settings),
		MipCount:   mipCount,
		BaseWidth:  tw,
		BaseHeight: th,
		Format:     format,
		Blits:      make([]Blit, 0, 1+3*(mipCount-1)),
	}

	blit := func(src, dst Target, pass Pass, low Target) {
		list.Blits = append(list.Blits, Blit{
			Src:    src,
			Dst:    dst,
			Pass:   pass,
			Load:   LoadDontCare,
			Store:  StoreStore,
			LowMip: low,
		})
	}

	blit(SourceTarget, MipDown(0), PassPrefilter, NoTarget)

	// gaussian pyramid, up[i] is scratch space for the first blur pass
	lastDown := MipDown(0)
	for i := 1; i < mipCount; i++ {
		blit(lastDown, MipUp(i), PassDownsampleBlurA, NoTarget)
		blit(MipUp(i), MipDown(i), PassDownsampleBlurB, NoTarget)
		lastDown = MipDown(i)
	}

	for i := mipCount - 2; i >= 0; i-- {
		lowMip := MipUp(i + 1)
		if i == mipCount-2 {
			lowMip = MipDown(i + 1)
		}
		blit(MipDown(i), MipUp(i), PassUpsampleCombine, lowMip)
	}

	return list
}
