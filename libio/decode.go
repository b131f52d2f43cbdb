package libio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

const (
	maxNameLength = 1 << 12
	// 8192x8192 rgba
	maxLevelValues = 1 << 28
)

func DecodePyramid(r io.Reader) (p *Pyramid, err error) {
	br := &BinaryReader{
		Src:   r,
		Order: binary.LittleEndian,
	}

	header := PyramidHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected pyramid header; byte 0x%08x: %w", br.LastIndex, br.Err)
	}

	if header.Check != MagicNumberBloom {
		return nil, fmt.Errorf("pyramid header is corrupt; byte 0x%08x", br.LastIndex)
	}

	if header.Version != PyramidVersion1_000_000 {
		return nil, fmt.Errorf("pyramid version %d unsupported; byte 0x%08x", header.Version, br.LastIndex)
	}

	if header.Channels == 0 {
		return nil, fmt.Errorf("pyramid has no channels; byte 0x%08x", br.LastIndex)
	}
	channels := int(header.Channels)
	p = NewPyramid(channels)

	for i := 0; i < int(header.Levels); i++ {
		levelHeader := PyramidLevelHeader{}
		if !br.ReadRef(&levelHeader) {
			return nil, fmt.Errorf("expected level %d header; byte 0x%08x: %w", i, br.LastIndex, br.Err)
		}

		if levelHeader.NameLength > maxNameLength {
			return nil, fmt.Errorf("level %d name is too long; byte 0x%08x", i, br.LastIndex)
		}
		name := make([]byte, levelHeader.NameLength)
		if !br.ReadFull(name) {
			return nil, fmt.Errorf("level %d name is truncated; byte 0x%08x: %w", i, br.LastIndex, br.Err)
		}

		values := uint64(levelHeader.Width) * uint64(levelHeader.Height) * uint64(channels)
		if values == 0 || values > maxLevelValues {
			return nil, fmt.Errorf("level %d has invalid size %dx%dx%d; byte 0x%08x", i, levelHeader.Width, levelHeader.Height, channels, br.LastIndex)
		}
		count := int(values) / channels

		if header.Compression == PyramidCompressionNone && uint64(levelHeader.Length) != values*4 {
			return nil, fmt.Errorf("level %d holds %d bytes, want %d; byte 0x%08x", i, levelHeader.Length, values*4, br.LastIndex)
		}

		payload := make([]byte, levelHeader.Length)
		if !br.ReadFull(payload) {
			return nil, fmt.Errorf("level %d is truncated; byte 0x%08x: %w", i, br.LastIndex, br.Err)
		}

		var data []float32

		switch header.Compression {
		case PyramidCompressionNone:
			data = make([]float32, count*channels)
			err = binary.Read(bytes.NewReader(payload), br.Order, data)
		case PyramidCompressionFixedPoint16Lz4:
			data, err = decompressLevel(channels, count, payload)
		default:
			err = fmt.Errorf("unknown compression %d", header.Compression)
		}

		if err != nil {
			return nil, fmt.Errorf("could not decompress level %d: %w", i, err)
		}

		p.Levels = append(p.Levels, NewFloatImage(data, channels, int(levelHeader.Width), int(levelHeader.Height)))
		p.Names = append(p.Names, string(name))
	}

	return p, nil
}

func decompressLevel(channels, count int, payload []byte) ([]float32, error) {
	rangeBytes := 4 * 2 * channels
	dataBytes := count * channels * 2
	buf := make([]byte, rangeBytes+dataBytes)
	lzr := lz4.NewReader(bytes.NewReader(payload))
	_, err := io.ReadFull(lzr, buf)
	if err != nil {
		return nil, err
	}
	return decompressFixedPoint16(channels, count, buf)
}

func decompressFixedPoint16(channels, count int, data []byte) ([]float32, error) {
	result := make([]float32, count*channels)
	br := &BinaryReader{
		Src:   bytes.NewReader(data),
		Order: binary.LittleEndian,
	}
	for ch := 0; ch < channels; ch++ {
		decompressChannelFixedPoint16(channels, count, result, br, ch)
		if br.Err != nil {
			return nil, br.Err
		}
	}
	return result, nil
}

func decompressChannelFixedPoint16(channels, count int, pix []float32, br *BinaryReader, ch int) {
	var imin, imax uint32
	br.ReadUInt32(&imin)
	br.ReadUInt32(&imax)

	min := math32.Float32frombits(imin)
	max := math32.Float32frombits(imax)

	data := make([]uint16, count)
	br.ReadRef(data)

	r := max - min
	for i := 0; i < count; i++ {
		pix[i*channels+ch] = (float32(data[i])/0xffff)*r + min
	}
}
