package bitio

import (
	"errors"
	"io"
)

// ErrNegativeOffset is returned by Buffer.Seek for a target before the start.
var ErrNegativeOffset = errors.New("bitio: seek to negative offset")

// Buffer is a growable in-memory io.WriteSeeker. Writing past the current
// end extends the buffer; seeking back and writing overwrites in place,
// which is how the encoders patch size fields reserved up front.
type Buffer struct {
	buf []byte
	pos int
}

// NewBuffer returns a Buffer with capacity for expectedSize bytes.
func NewBuffer(expectedSize int) *Buffer {
	if expectedSize < 1024 {
		expectedSize = 1024
	}
	return &Buffer{buf: make([]byte, 0, expectedSize)}
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	b.grow(end)
	copy(b.buf[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

// grow makes len(b.buf) at least n, zero filling any gap.
func (b *Buffer) grow(n int) {
	if n <= len(b.buf) {
		return
	}
	if n <= cap(b.buf) {
		old := len(b.buf)
		b.buf = b.buf[:n]
		clear(b.buf[old:n])
		return
	}
	newCap := cap(b.buf) * 3 / 2
	if newCap < n {
		newCap = n
	}
	tmp := make([]byte, n, newCap)
	copy(tmp, b.buf)
	b.buf = tmp
}

// Seek implements io.Seeker.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("bitio: invalid whence")
	}
	if abs < 0 {
		return 0, ErrNegativeOffset
	}
	b.pos = int(abs)
	return abs, nil
}

// Bytes returns the written contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.buf) }
