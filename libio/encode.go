package libio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

func EncodePyramid(w io.Writer, p *Pyramid, compression PyramidCompression) (err error) {
	bw := &BinaryWriter{
		Dst:   w,
		Order: binary.LittleEndian,
	}

	header := PyramidHeader{
		Check:       MagicNumberBloom,
		Version:     PyramidVersion1_000_000,
		Compression: compression,
		Levels:      uint32(len(p.Levels)),
		Channels:    uint8(p.Channels),
	}

	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write pyramid header: %w", bw.Err)
	}

	for i, img := range p.Levels {
		if img.Channels != p.Channels {
			return fmt.Errorf("level %d has %d channels, pyramid has %d", i, img.Channels, p.Channels)
		}

		var data []byte
		switch compression {
		case PyramidCompressionNone:
			buf := bytes.NewBuffer(make([]byte, 0, img.Bytes()))
			err = binary.Write(buf, bw.Order, img.Pix)
			data = buf.Bytes()
		case PyramidCompressionFixedPoint16Lz4:
			data, err = compressLevel(img)
		default:
			err = fmt.Errorf("unknown compression %d", compression)
		}
		if err != nil {
			return fmt.Errorf("could not compress level %d: %w", i, err)
		}

		name := []byte(p.Name(i))
		levelHeader := PyramidLevelHeader{
			Width:      uint32(img.Width),
			Height:     uint32(img.Height),
			Length:     uint32(len(data)),
			NameLength: uint32(len(name)),
		}
		if !bw.WriteRef(levelHeader) || !bw.WriteBytes(name) || !bw.WriteBytes(data) {
			return fmt.Errorf("could not write level %d: %w", i, bw.Err)
		}
	}

	return nil
}

func compressLevel(img *FloatImage) ([]byte, error) {
	raw, err := compressFixedPoint16(img.Channels, img.Count(), img.Pix)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	lzw := lz4.NewWriter(buf)
	err = lzw.Apply(lz4.CompressionLevelOption(lz4.Fast))
	if err != nil {
		return nil, err
	}
	_, err = lzw.Write(raw)
	if err != nil {
		return nil, err
	}
	err = lzw.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressFixedPoint16(channels int, count int, pix []float32) ([]byte, error) {
	rangeBytes := 4 * 2 * channels
	dataBytes := count * channels * 2
	buf := bytes.NewBuffer(make([]byte, 0, rangeBytes+dataBytes))
	bw := &BinaryWriter{Order: binary.LittleEndian, Dst: buf}
	for ch := 0; ch < channels; ch++ {
		compressChannelFixedPoint16(channels, count, pix, bw, ch)
		if bw.Err != nil {
			return nil, bw.Err
		}
	}
	return buf.Bytes(), nil
}

func compressChannelFixedPoint16(channels int, count int, pix []float32, bw *BinaryWriter, ch int) {
	var min, max float32 = math32.Inf(1), math32.Inf(-1)

	for i := 0; i < count; i++ {
		v := pix[i*channels+ch]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	bw.WriteUInt32(math32.Float32bits(min))
	bw.WriteUInt32(math32.Float32bits(max))

	r := max - min
	for i := 0; i < count; i++ {
		var fix uint16
		// constant channels encode as all zeros
		if r > 0 {
			fix = uint16(((pix[i*channels+ch]-min)/r)*0xffff + 0.5)
		}
		bw.WriteUInt16(fix)
	}
}
