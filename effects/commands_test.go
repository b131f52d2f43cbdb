package effects_test

import (
	"bytes"
	"strings"
	"testing"

	"bloompyramid/effects"
)

func recordFrame(settings effects.BloomSettings, width, height int) (*effects.CommandList, effects.CompositeInput, *effects.BloomEffect) {
	effect := effects.NewBloomEffect(effects.NewSwExecutor(), effects.ColorSpaceLinear, newCountingAllocator())
	list, input := effect.Record(settings, effects.FrameDesc{Width: width, Height: height})
	return list, input, effect
}

func TestBuildBloomCommandsSequence(t *testing.T) {
	s := effects.DefaultBloomSettings()
	s.MaxIterations = 3
	list, input, _ := recordFrame(s, 1920, 1080)

	d, u := effects.MipDown, effects.MipUp
	want := []effects.Blit{
		{Src: effects.SourceTarget, Dst: d(0), Pass: effects.PassPrefilter, LowMip: effects.NoTarget},
		{Src: d(0), Dst: u(1), Pass: effects.PassDownsampleBlurA, LowMip: effects.NoTarget},
		{Src: u(1), Dst: d(1), Pass: effects.PassDownsampleBlurB, LowMip: effects.NoTarget},
		{Src: d(1), Dst: u(2), Pass: effects.PassDownsampleBlurA, LowMip: effects.NoTarget},
		{Src: u(2), Dst: d(2), Pass: effects.PassDownsampleBlurB, LowMip: effects.NoTarget},
		{Src: d(1), Dst: u(1), Pass: effects.PassUpsampleCombine, LowMip: d(2)},
		{Src: d(0), Dst: u(0), Pass: effects.PassUpsampleCombine, LowMip: u(1)},
	}

	if list.MipCount != 3 || list.BaseWidth != 960 || list.BaseHeight != 540 {
		t.Errorf("got %d mips at %dx%d, want 3 at 960x540", list.MipCount, list.BaseWidth, list.BaseHeight)
	}
	if len(list.Blits) != len(want) {
		t.Fatalf("got %d blits, want %d", len(list.Blits), len(want))
	}
	for i, b := range list.Blits {
		w := want[i]
		w.Load = effects.LoadDontCare
		w.Store = effects.StoreStore
		if b != w {
			t.Errorf("blit %d = %s, want %s", i, b, w)
		}
	}
	if input.Bloom != u(0) {
		t.Errorf("output = %s, want %s", input.Bloom, u(0))
	}
}

func TestBuildBloomCommandsDefaultFrame(t *testing.T) {
	list, _, effect := recordFrame(effects.DefaultBloomSettings(), 1920, 1080)

	if list.MipCount != 6 {
		t.Errorf("MipCount = %d, want 6", list.MipCount)
	}
	if len(list.Blits) != 1+3*5 {
		t.Errorf("got %d blits, want 16", len(list.Blits))
	}
	if list.Format != effects.FormatB10G11R11UFloatPack32 || effect.Format() != list.Format {
		t.Errorf("format = %s, want %s", list.Format, effects.FormatB10G11R11UFloatPack32)
	}
	level := effect.Pool().Level(5)
	if level.Down.Desc.Width != 30 || level.Down.Desc.Height != 16 {
		t.Errorf("level 5 is %dx%d, want 30x16", level.Down.Desc.Width, level.Down.Desc.Height)
	}
}

func TestBuildBloomCommandsSingleLevel(t *testing.T) {
	s := effects.DefaultBloomSettings()
	s.MaxIterations = 0
	list, input, _ := recordFrame(s, 1920, 1080)

	if list.MipCount != 1 || len(list.Blits) != 1 {
		t.Fatalf("got %d mips and %d blits, want 1 and 1", list.MipCount, len(list.Blits))
	}
	if list.Blits[0].Pass != effects.PassPrefilter {
		t.Errorf("only blit is %s, want prefilter", list.Blits[0].Pass)
	}
	if input.Bloom != effects.MipDown(0) {
		t.Errorf("output = %s, want %s", input.Bloom, effects.MipDown(0))
	}
}

// Every blit must only read targets that an earlier blit wrote, and stay inside the pyramid.
func TestBuildBloomCommandsDataFlow(t *testing.T) {
	sizes := [][2]int{{1920, 1080}, {1, 1}, {7, 300}, {4096, 16}}
	for _, size := range sizes {
		for iterations := 0; iterations <= effects.MaxIterationsLimit; iterations++ {
			s := effects.DefaultBloomSettings()
			s.MaxIterations = iterations
			list, input, _ := recordFrame(s, size[0], size[1])

			written := map[effects.Target]bool{effects.SourceTarget: true}
			for i, b := range list.Blits {
				if !written[b.Src] {
					t.Fatalf("%v iterations %d: blit %d reads unwritten %s", size, iterations, i, b.Src)
				}
				if b.LowMip != effects.NoTarget && !written[b.LowMip] {
					t.Fatalf("%v iterations %d: blit %d reads unwritten %s", size, iterations, i, b.LowMip)
				}
				if b.Dst.Level() >= list.MipCount {
					t.Fatalf("%v iterations %d: blit %d writes %s outside of %d mips", size, iterations, i, b.Dst, list.MipCount)
				}
				written[b.Dst] = true
			}
			if !written[input.Bloom] {
				t.Errorf("%v iterations %d: output %s is never written", size, iterations, input.Bloom)
			}
		}
	}
}

func TestRecordSkip(t *testing.T) {
	alloc := newCountingAllocator()
	effect := effects.NewBloomEffect(effects.NewSwExecutor(), effects.ColorSpaceLinear, alloc)
	list, input := effect.Record(effects.DefaultBloomSettings(), effects.FrameDesc{Width: 1920, Height: 1080, Skip: true})

	if !list.Empty() {
		t.Errorf("skipped frame recorded %d blits", len(list.Blits))
	}
	if input.Bloom != effects.NoTarget {
		t.Errorf("skipped frame output = %s, want none", input.Bloom)
	}
	if len(alloc.calls) != 0 {
		t.Errorf("skipped frame allocated %d targets", len(alloc.calls))
	}
}

func TestRecordCompositeInput(t *testing.T) {
	s := effects.DefaultBloomSettings()
	s.Intensity = 2.5
	s.Tint[1] = -1
	s.Cutoff = 0.3
	s.Density = 0.6
	_, input, _ := recordFrame(s, 256, 256)

	if input.Intensity != 2.5 || input.Cutoff != 0.3 || input.Density != 0.6 {
		t.Errorf("unexpected composite input %+v", input)
	}
	if input.Tint[0] != 1 || input.Tint[1] != 0 || input.Tint[2] != 1 {
		t.Errorf("tint = %v, want [1 0 1]", input.Tint)
	}
}

func TestCommandListDump(t *testing.T) {
	s := effects.DefaultBloomSettings()
	s.MaxIterations = 2
	list, _, _ := recordFrame(s, 64, 64)

	buf := new(bytes.Buffer)
	list.Dump(buf)
	out := buf.String()

	for _, want := range []string{
		"base 32x32, 2 mips",
		"source -> BloomMipDown0 [prefilter]",
		"BloomMipDown0 -> BloomMipUp0 [upsample-combine, low=BloomMipDown1]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump is missing %q:\n%s", want, out)
		}
	}
}
