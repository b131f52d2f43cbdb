package libio

import (
	"encoding/binary"
	"io"
)

// BinaryReader keeps the first error and turns every later read into a no-op,
// so a decoder can check Err once after a run of reads.
type BinaryReader struct {
	Order     binary.ByteOrder
	Src       io.Reader
	Index     int
	LastIndex int
	Err       error
}

func (br *BinaryReader) Read(p []byte) (n int, err error) {
	return br.Src.Read(p)
}

func (br *BinaryReader) ReadFull(p []byte) (ok bool) {
	if br.Err != nil {
		return false
	}
	n, err := io.ReadFull(br.Src, p)
	br.Err = err
	br.LastIndex = br.Index
	br.Index += n
	return err == nil
}

func (br *BinaryReader) ReadUInt32(i *uint32) (ok bool) {
	var buf [4]byte
	if !br.ReadFull(buf[:]) {
		return false
	}
	*i = br.Order.Uint32(buf[:])
	return true
}

func (br *BinaryReader) ReadRef(data any) (ok bool) {
	if br.Err != nil {
		return false
	}
	err := binary.Read(br.Src, br.Order, data)
	br.Err = err
	br.LastIndex = br.Index
	if err == nil {
		br.Index += binary.Size(data)
	}
	return err == nil
}

type BinaryWriter struct {
	Order binary.ByteOrder
	Dst   io.Writer
	Err   error
}

func (bw *BinaryWriter) Write(p []byte) (n int, err error) {
	return bw.Dst.Write(p)
}

func (bw *BinaryWriter) WriteBytes(p []byte) (ok bool) {
	if bw.Err != nil {
		return false
	}
	_, err := bw.Dst.Write(p)
	bw.Err = err
	return err == nil
}

func (bw *BinaryWriter) WriteUInt32(i uint32) (ok bool) {
	var buf [4]byte
	bw.Order.PutUint32(buf[:], i)
	return bw.WriteBytes(buf[:])
}

func (bw *BinaryWriter) WriteUInt16(i uint16) (ok bool) {
	var buf [2]byte
	bw.Order.PutUint16(buf[:], i)
	return bw.WriteBytes(buf[:])
}

func (bw *BinaryWriter) WriteRef(data any) (ok bool) {
	if bw.Err != nil {
		return false
	}
	err := binary.Write(bw.Dst, bw.Order, data)
	bw.Err = err
	return err == nil
}
