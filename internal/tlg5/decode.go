package tlg5

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/deepteams/tlg/internal/bitio"
	"github.com/deepteams/tlg/internal/container"
	"github.com/deepteams/tlg/internal/lzss"
)

// Decode reads a TLG5 stream positioned just after its signature.
func Decode(r io.Reader) (*container.Frame, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	slog.Debug("tlg5: header",
		slog.Int("colors", int(h.Colors)),
		slog.Int("width", int(h.Width)),
		slog.Int("height", int(h.Height)),
		slog.Int("blockHeight", int(h.BlockHeight)))

	// The block size index is only needed for random access.
	if _, err := io.CopyN(io.Discard, r, int64(h.BlockCount())*4); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("tlg5: skipping block index: %w", err)
	}

	colors := int(h.Colors)
	width := int(h.Width)
	height := int(h.Height)
	bh := int(h.BlockHeight)
	stride := width * colors

	// Channel buffers keep their contents from block to block and only
	// grow to what the data read so far can fill, or to what the rows
	// being composed need. A header alone never sizes them.
	bufSize := min(bh, height)*width + 10
	var in []byte
	chans := make([][]byte, colors)

	dec := lzss.NewDecoder()
	var pix []byte
	for y0 := 0; y0 < height; y0 += bh {
		for c := range chans {
			mark, err := bitio.ReadU8(r)
			if err != nil {
				return nil, fmt.Errorf("tlg5: reading block mark: %w", err)
			}
			size, err := bitio.ReadU32(r)
			if err != nil {
				return nil, fmt.Errorf("tlg5: reading block size: %w", err)
			}
			if uint64(size) > uint64(bufSize) {
				return nil, &container.FormatError{
					Msg: fmt.Sprintf("block at row %d channel %d is %d bytes, buffer holds %d", y0, c, size, bufSize),
				}
			}

			in, err = bitio.ReadSized(r, in, int(size))
			if err != nil {
				if mark != 0 {
					return nil, fmt.Errorf("tlg5: reading raw block: %w", err)
				}
				return nil, fmt.Errorf("tlg5: reading compressed block: %w", err)
			}
			if mark != 0 {
				chans[c] = growZero(chans[c], len(in))
				copy(chans[c], in)
				continue
			}
			chans[c] = growZero(chans[c], min(bufSize, lzss.MaxDecodedLen(len(in))))
			if _, err := dec.Decode(chans[c], in); err != nil {
				return nil, &container.FormatError{
					Msg: fmt.Sprintf("block at row %d channel %d", y0, c),
					Err: err,
				}
			}
		}

		ylim := min(y0+bh, height)
		for c := range chans {
			chans[c] = growZero(chans[c], (ylim-y0)*width)
		}
		n := (ylim - y0) * stride
		pix = slices.Grow(pix, n)[:len(pix)+n]
		for y := y0; y < ylim; y++ {
			row := pix[y*stride : (y+1)*stride]
			var upper []byte
			if y > 0 {
				upper = pix[(y-1)*stride : y*stride]
			}
			composeRow(row, upper, chans, (y-y0)*width)
		}
	}

	return &container.Frame{
		Colors: colors,
		Width:  h.Width,
		Height: h.Height,
		Pix:    pix,
	}, nil
}

// growZero extends b to at least n bytes. Bytes past the old length are
// zero, as if never written.
func growZero(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	old := len(b)
	b = slices.Grow(b, n-old)[:n]
	clear(b[old:])
	return b
}

// composeRow rebuilds one scanline from the channel delta buffers starting
// at off. Blue and red are stored relative to green; each channel is then
// a running sum along the row, added to the row above when there is one.
func composeRow(dst, upper []byte, chans [][]byte, off int) {
	n := len(chans)
	if n == 1 {
		var acc byte
		for x := range dst {
			acc += chans[0][off+x]
			dst[x] = acc
		}
	} else {
		var acc [4]byte
		for x, o := off, 0; o < len(dst); x, o = x+1, o+n {
			g := chans[1][x]
			acc[0] += chans[0][x] + g
			acc[1] += g
			acc[2] += chans[2][x] + g
			if n == 4 {
				acc[3] += chans[3][x]
			}
			copy(dst[o:o+n], acc[:n])
		}
	}
	if upper != nil {
		for i := range dst {
			dst[i] += upper[i]
		}
	}
}
