// Package bitio provides the little-endian byte primitives shared by the
// TLG readers and writers, plus an in-memory seekable sink used when a
// caller hands the encoder a plain io.Writer.
package bitio

import (
	"encoding/binary"
	"io"
	"slices"
)

// minGrow is the first capacity step of ReadSized.
const minGrow = 4096

// ReadU8 reads a single byte from r.
func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU32 reads a little-endian uint32 from r.
func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// WriteU8 writes a single byte to w.
func WriteU8(w io.Writer, v uint8) error {
	b := [1]byte{v}
	_, err := w.Write(b[:])
	return err
}

// WriteU32 writes v to w in little-endian order.
func WriteU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// Fetch32 returns the little-endian uint32 starting at data[off].
// ok is false when fewer than 4 bytes remain.
func Fetch32(data []byte, off int) (v uint32, ok bool) {
	if off < 0 || off+4 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[off:]), true
}

// ReadSized reads exactly n bytes from r into buf, reusing its capacity.
// The buffer grows as data arrives rather than up front, so a size field
// larger than the remaining stream costs no more memory than the stream
// holds. A short read returns io.ErrUnexpectedEOF.
func ReadSized(r io.Reader, buf []byte, n int) ([]byte, error) {
	buf = buf[:0]
	for len(buf) < n {
		if len(buf) == cap(buf) {
			buf = slices.Grow(buf, min(n-len(buf), max(len(buf), minGrow)))
		}
		m, err := r.Read(buf[len(buf):min(n, cap(buf))])
		buf = buf[:len(buf)+m]
		if err != nil {
			if len(buf) == n {
				break
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return buf, err
		}
	}
	return buf, nil
}
