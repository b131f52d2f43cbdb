package effects

import "bloompyramid/libio"

// Executor runs recorded bloom commands against its own copies of the mip targets.
type Executor interface {
	FormatSupport
	TargetAllocator
	// source is uploaded as SourceTarget before the first blit
	Execute(list *CommandList, source *libio.FloatImage) error
	Read(target Target) (*libio.FloatImage, error)
	Release()
}
