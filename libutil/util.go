package libutil

const InvalidAddress uintptr = 0xffff_ffff_ffff_ffff

type Deleter interface {
	Delete()
}

func MaxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MinI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func ClampI(v, min, max int) int {
	if v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}

func Clamp(v, min, max float32) float32 {
	if v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}

func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
