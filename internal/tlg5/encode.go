package tlg5

import (
	"fmt"
	"io"

	"github.com/deepteams/tlg/internal/bitio"
	"github.com/deepteams/tlg/internal/container"
	"github.com/deepteams/tlg/internal/lzss"
	"github.com/deepteams/tlg/internal/pool"
)

// Encode writes f as a complete TLG5 stream, signature included. The
// block size index is reserved up front and patched once every block has
// been written, so w is left positioned at the end of the stream.
func Encode(w io.WriteSeeker, f *container.Frame) error {
	if f.Colors < 0 || f.Colors > 4 || !container.ValidColors(uint8(f.Colors)) {
		return &container.ColorsError{Colors: uint8(f.Colors)}
	}
	if f.Width == 0 || f.Height == 0 {
		return &container.FormatError{Msg: fmt.Sprintf("cannot encode %dx%d image", f.Width, f.Height)}
	}
	colors := f.Colors
	width := int(f.Width)
	height := int(f.Height)
	stride := width * colors
	if len(f.Pix) < stride*height {
		return &container.FormatError{Msg: fmt.Sprintf("pixel data is %d bytes, need %d", len(f.Pix), stride*height)}
	}

	h := Header{Colors: uint8(colors), Width: f.Width, Height: f.Height, BlockHeight: BlockHeight}
	if err := writeHeader(w, h); err != nil {
		return err
	}
	indexPos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	blockSizes := make([]uint32, h.BlockCount())
	if _, err := w.Write(make([]byte, 4*len(blockSizes))); err != nil {
		return err
	}

	chans := make([][]byte, colors)
	for c := range chans {
		chans[c] = pool.Get(width * BlockHeight)
		defer pool.Put(chans[c])
	}
	packed := pool.Get(2 * width * BlockHeight)
	defer pool.Put(packed)

	comp := lzss.NewCompressor()
	for block, y0 := 0, 0; y0 < height; block, y0 = block+1, y0+BlockHeight {
		ylim := min(y0+BlockHeight, height)
		n := 0
		for y := y0; y < ylim; y++ {
			cur := f.Pix[y*stride : (y+1)*stride]
			var upper []byte
			if y > 0 {
				upper = f.Pix[(y-1)*stride : y*stride]
			}
			n = splitRow(chans, cur, upper, n)
		}

		var size uint32
		for c := range chans {
			raw := chans[c][:n]
			comp.Store()
			packed = comp.Encode(packed[:0], raw)
			mark, payload := uint8(0), packed
			if len(packed) >= n {
				comp.Restore()
				mark, payload = 1, raw
			}
			if err := bitio.WriteU8(w, mark); err != nil {
				return err
			}
			if err := bitio.WriteU32(w, uint32(len(payload))); err != nil {
				return err
			}
			if _, err := w.Write(payload); err != nil {
				return err
			}
			size += uint32(len(payload)) + 5
		}
		blockSizes[block] = size
	}

	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.Seek(indexPos, io.SeekStart); err != nil {
		return err
	}
	for _, s := range blockSizes {
		if err := bitio.WriteU32(w, s); err != nil {
			return err
		}
	}
	_, err = w.Seek(end, io.SeekStart)
	return err
}

// splitRow appends the deltas of one scanline to the channel buffers at
// offset n and returns the new offset. It is the inverse of composeRow.
func splitRow(chans [][]byte, cur, upper []byte, n int) int {
	colors := len(chans)
	var prev, val [4]byte
	for o := 0; o < len(cur); o += colors {
		for c := 0; c < colors; c++ {
			cl := cur[o+c]
			if upper != nil {
				cl -= upper[o+c]
			}
			val[c] = cl - prev[c]
			prev[c] = cl
		}
		if colors == 1 {
			chans[0][n] = val[0]
		} else {
			chans[0][n] = val[0] - val[1]
			chans[1][n] = val[1]
			chans[2][n] = val[2] - val[1]
			if colors == 4 {
				chans[3][n] = val[3]
			}
		}
		n++
	}
	return n
}
