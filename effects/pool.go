package effects

import (
	"fmt"

	"bloompyramid/logger"

	"go.uber.org/zap"
)

// Target identifies an image a blit reads from or writes to.
// Mip targets are numbered down0, up0, down1, up1, ...
type Target int

const (
	NoTarget     = Target(-2)
	SourceTarget = Target(-1)
)

func MipDown(level int) Target {
	return Target(level * 2)
}

func MipUp(level int) Target {
	return Target(level*2 + 1)
}

func (t Target) IsMip() bool {
	return t >= 0 && int(t) < MaxPyramidSize*2
}

func (t Target) Level() int {
	return int(t) / 2
}

func (t Target) IsUp() bool {
	return t >= 0 && t%2 == 1
}

func (t Target) String() string {
	switch {
	case t == NoTarget:
		return "none"
	case t == SourceTarget:
		return "source"
	case t.IsUp():
		return fmt.Sprintf("BloomMipUp%d", t.Level())
	default:
		return fmt.Sprintf("BloomMipDown%d", t.Level())
	}
}

type FilterMode int

const (
	FilterPoint = FilterMode(iota)
	FilterBilinear
)

type WrapMode int

const (
	WrapRepeat = WrapMode(iota)
	WrapClamp
)

type TargetDesc struct {
	Width, Height int
	Format        Format
	Filter        FilterMode
	Wrap          WrapMode
}

// TargetAllocator creates or replaces the backing storage of a target.
// A target whose allocation failed must be left without storage.
type TargetAllocator interface {
	Allocate(target Target, desc TargetDesc) error
}

type RenderTarget struct {
	Id   Target
	Name string
	// Zero until the first allocation
	Desc TargetDesc
}

func (rt *RenderTarget) Allocated() bool {
	return rt.Desc.Width > 0 && rt.Desc.Height > 0
}

type MipLevel struct {
	Down, Up RenderTarget
}

// TargetPool owns the bloom mip targets. It persists across frames and only
// reallocates a target when its descriptor changes.
type TargetPool struct {
	levels        [MaxPyramidSize]MipLevel
	alloc         TargetAllocator
	reallocations int
}

func NewTargetPool(alloc TargetAllocator) *TargetPool {
	pool := &TargetPool{alloc: alloc}
	for i := range pool.levels {
		pool.levels[i].Down = RenderTarget{Id: MipDown(i), Name: MipDown(i).String()}
		pool.levels[i].Up = RenderTarget{Id: MipUp(i), Name: MipUp(i).String()}
	}
	return pool
}

// EnsureSized makes the first levels match the given base size and format.
// Levels past the count keep whatever they had.
func (pool *TargetPool) EnsureSized(levels, baseWidth, baseHeight int, format Format) {
	if levels > MaxPyramidSize {
		levels = MaxPyramidSize
	}
	for i := 0; i < levels; i++ {
		desc := TargetDesc{
			Width:  MipSize(baseWidth, i),
			Height: MipSize(baseHeight, i),
			Format: format,
			Filter: FilterBilinear,
			Wrap:   WrapClamp,
		}
		pool.reallocateIfNeeded(&pool.levels[i].Down, desc)
		pool.reallocateIfNeeded(&pool.levels[i].Up, desc)
	}
}

func (pool *TargetPool) reallocateIfNeeded(rt *RenderTarget, desc TargetDesc) {
	if rt.Desc == desc {
		return
	}
	logger.Log.Debug("reallocating bloom target",
		zap.String("name", rt.Name),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height),
		zap.Stringer("format", desc.Format))
	rt.Desc = desc
	pool.reallocations++
	if pool.alloc == nil {
		return
	}
	if err := pool.alloc.Allocate(rt.Id, desc); err != nil {
		// forget the descriptor so the next frame tries again
		rt.Desc = TargetDesc{}
		logger.Log.Error("could not allocate bloom target", zap.String("name", rt.Name), zap.Error(err))
	}
}

func (pool *TargetPool) Level(i int) *MipLevel {
	return &pool.levels[i]
}

func (pool *TargetPool) Get(t Target) *RenderTarget {
	if !t.IsMip() {
		return nil
	}
	if t.IsUp() {
		return &pool.levels[t.Level()].Up
	}
	return &pool.levels[t.Level()].Down
}

// Reallocations counts how many targets were (re)allocated since the pool was created.
func (pool *TargetPool) Reallocations() int {
	return pool.reallocations
}
