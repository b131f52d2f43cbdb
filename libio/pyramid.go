package libio

const MagicNumberBloom = 0x42a7f10d

type PyramidVersion uint32

const (
	PyramidVersion1_000_000 = PyramidVersion(1_000_000)
)

type PyramidCompression uint32

const (
	PyramidCompressionNone = PyramidCompression(iota)
	PyramidCompressionFixedPoint16Lz4
)

type PyramidHeader struct {
	Check       uint32
	Version     PyramidVersion
	Compression PyramidCompression
	Levels      uint32
	Channels    uint8
	Unused      [15]uint8
}

// PyramidLevelHeader is followed by NameLength bytes of name and Length bytes of payload.
type PyramidLevelHeader struct {
	Width, Height uint32
	Length        uint32
	NameLength    uint32
}

// Pyramid is an ordered set of float images, one per mip level.
// Level sizes are stored per level and are not required to halve.
type Pyramid struct {
	Channels int
	Levels   []*FloatImage
	// Optional per level labels
	Names []string
}

func NewPyramid(channels int, levels ...*FloatImage) *Pyramid {
	return &Pyramid{
		Channels: channels,
		Levels:   levels,
	}
}

func (p *Pyramid) Append(name string, img *FloatImage) {
	if len(p.Names) < len(p.Levels) {
		p.Names = append(p.Names, make([]string, len(p.Levels)-len(p.Names))...)
	}
	p.Levels = append(p.Levels, img.ToChannels(p.Channels))
	p.Names = append(p.Names, name)
}

func (p *Pyramid) Name(level int) string {
	if level < len(p.Names) {
		return p.Names[level]
	}
	return ""
}
