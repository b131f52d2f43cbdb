package effects

import (
	"fmt"

	"bloompyramid/libio"
	"bloompyramid/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// FrameDesc describes the camera target of the current frame.
type FrameDesc struct {
	Width, Height int
	Format        Format
	// Set for cameras that should not get bloom, e.g. scene view or preview cameras
	Skip bool
}

// CompositeInput is what the composite stage needs to blend bloom over the scene.
type CompositeInput struct {
	Bloom     Target
	Intensity float32
	Tint      mgl32.Vec3
	Cutoff    float32
	Density   float32
}

type BloomEffect struct {
	format Format
	space  ColorSpace
	pool   *TargetPool
	// last camera format reported as clipped by the mip format
	clipped Format
}

// NewBloomEffect chooses the mip format once. A later color space change is not
// picked up, create a new effect in that case.
func NewBloomEffect(caps FormatSupport, space ColorSpace, alloc TargetAllocator) *BloomEffect {
	format := SelectHdrFormat(caps, space)
	if format != FormatB10G11R11UFloatPack32 {
		logger.Log.Info("packed float format unsupported, using 8-bit bloom targets",
			zap.Stringer("format", format),
			zap.Stringer("colorSpace", space))
	}
	return &BloomEffect{
		format: format,
		space:  space,
		pool:   NewTargetPool(alloc),
	}
}

func (effect *BloomEffect) Format() Format {
	return effect.format
}

func (effect *BloomEffect) ColorSpace() ColorSpace {
	return effect.space
}

func (effect *BloomEffect) Pool() *TargetPool {
	return effect.pool
}

// Record builds the commands for one frame. The returned composite input refers
// to a pool target that stays valid until the next call to Record.
func (effect *BloomEffect) Record(settings BloomSettings, frame FrameDesc) (*CommandList, CompositeInput) {
	if frame.Skip {
		return &CommandList{Format: effect.format}, CompositeInput{Bloom: NoTarget}
	}

	if frame.Format.IsHdr() && !effect.format.IsHdr() && frame.Format != effect.clipped {
		logger.Log.Warn("bloom targets clip the camera range to [0, 1]",
			zap.Stringer("camera", frame.Format),
			zap.Stringer("format", effect.format))
		effect.clipped = frame.Format
	}

	settings = settings.Sanitize()
	list := BuildBloomCommands(settings, frame, effect.pool, effect.format)

	return list, CompositeInput{
		Bloom:     list.Output(),
		Intensity: settings.Intensity,
		Tint:      settings.Tint,
		Cutoff:    settings.Cutoff,
		Density:   settings.Density,
	}
}

// Render records and executes one frame of bloom on source and reads back the result.
// The effect must have been created with exec as its allocator.
func (effect *BloomEffect) Render(exec Executor, settings BloomSettings, source *libio.FloatImage) (*libio.FloatImage, CompositeInput, error) {
	list, input := effect.Record(settings, FrameDesc{
		Width:  source.Width,
		Height: source.Height,
		Format: FormatR32G32B32A32SFloat,
	})

	if err := exec.Execute(list, source); err != nil {
		return nil, input, fmt.Errorf("could not execute bloom: %w", err)
	}

	bloom, err := exec.Read(input.Bloom)
	if err != nil {
		return nil, input, fmt.Errorf("could not read %s: %w", input.Bloom, err)
	}
	return bloom, input, nil
}
