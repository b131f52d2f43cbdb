package effects

import (
	"math/bits"

	"bloompyramid/libutil"
)

//	For my sanity:
//
//	src=1 * (w x h)
//
//		Down	Up
//	0=	1/2		1/2		prefilter(src) -> Down[0]
//	1=	1/4		1/4		blurA(Down[0]) -> Up[1], blurB(Up[1]) -> Down[1]
//	2=	1/8		1/8		blurA(Down[1]) -> Up[2], blurB(Up[2]) -> Down[2]
//	3=	1/16	1/16	...
//
//	Up, with n = mipCount:
//
//	Down[n-2] + up(Down[n-1]) -> Up[n-2]
//	Down[n-3] + up(Up[n-2]) -> Up[n-3]
//	...
//	Down[0] + up(Up[1]) -> Up[0]

// Upper bound of the mip target pool
const MaxPyramidSize = 16

// The pyramid always starts at half resolution
const downres = 1

// BaseSize returns the size of mip level 0 for a frame of the given size.
func BaseSize(width, height int) (int, int) {
	return libutil.MaxI(1, width>>downres), libutil.MaxI(1, height>>downres)
}

// MipSize returns the size of one dimension at the given level.
func MipSize(base, level int) int {
	return libutil.MaxI(1, base>>level)
}

// MipCount returns the pyramid depth for a base size.
// It is floor(log2(max(w, h)) - 1) clamped to [1, maxIterations] and never exceeds MaxPyramidSize.
// The lower bound wins, so maxIterations = 0 still yields a single prefiltered level.
func MipCount(baseWidth, baseHeight, maxIterations int) int {
	maxSize := libutil.MaxI(1, libutil.MaxI(baseWidth, baseHeight))
	// floor(log2(n)) for integers, exact at powers of two
	iterations := bits.Len(uint(maxSize)) - 1 - 1
	return libutil.ClampI(iterations, 1, libutil.MinI(maxIterations, MaxPyramidSize))
}
