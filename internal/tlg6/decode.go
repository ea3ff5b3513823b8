package tlg6

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/deepteams/tlg/internal/bitio"
	"github.com/deepteams/tlg/internal/container"
	"github.com/deepteams/tlg/internal/dsp"
	"github.com/deepteams/tlg/internal/golomb"
	"github.com/deepteams/tlg/internal/lzss"
	"github.com/deepteams/tlg/internal/pool"
)

// methodGolomb is the only entropy coding method defined for band data.
const methodGolomb = 0

// primer is the fixed dictionary the filter map is decoded against: for
// each i in 0..31 and j in 0..15, four bytes of i then four bytes of j.
var primer [lzss.WindowSize]byte

func init() {
	p := 0
	for i := byte(0); i < 0x20; i++ {
		for j := byte(0); j < 0x10; j++ {
			for k := 0; k < 4; k++ {
				primer[p+k] = i
				primer[p+4+k] = j
			}
			p += 8
		}
	}
}

// Decode reads a TLG6 stream positioned just after its signature.
func Decode(r io.Reader) (*container.Frame, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	slog.Debug("tlg6: header",
		slog.Int("colors", int(h.Colors)),
		slog.Int("width", int(h.Width)),
		slog.Int("height", int(h.Height)),
		slog.Int("maxBitLength", int(h.MaxBitLength)))

	colors := int(h.Colors)
	width := int(h.Width)
	height := int(h.Height)
	xBlocks := h.XBlockCount()
	mainCount := width / BlockWidth
	fraction := width - mainCount*BlockWidth

	filterTypes, err := readFilterMap(r, xBlocks*h.YBlockCount())
	if err != nil {
		return nil, err
	}

	// Three-channel images carry an opaque alpha lane through prediction.
	var seed uint32
	if colors == 3 {
		seed = 0xff000000
	}

	poolLen := int(h.MaxBitLength/8) + 5
	var bits []byte

	// The residual and row buffers are taken once the first band's data
	// has been read, so a header alone never sizes them.
	var residuals, prev, cur []uint32
	defer func() {
		pool.PutUint32(residuals)
		pool.PutUint32(prev)
		pool.PutUint32(cur)
	}()

	stride := width * colors
	var pix []byte
	for y := 0; y < height; y += BlockHeight {
		ylim := min(y+BlockHeight, height)
		rows := ylim - y
		pixelCount := rows * width

		for c := 0; c < colors; c++ {
			v, err := bitio.ReadU32(r)
			if err != nil {
				return nil, fmt.Errorf("tlg6: reading band header: %w", err)
			}
			method := uint8(v >> 30)
			byteLen := int((v&0x3fffffff + 7) / 8)
			if byteLen >= poolLen {
				return nil, &container.FormatError{Msg: "Bit pool is too small for the given bit length"}
			}

			bits, err = bitio.ReadSized(r, bits, byteLen)
			if err != nil {
				return nil, fmt.Errorf("tlg6: reading band data: %w", err)
			}
			// Keep a little zeroed slack past the data for the 32-bit
			// window reads, never more than the declared pool.
			n := min(poolLen, byteLen+8)
			bits = slices.Grow(bits, n-byteLen)[:n]
			clear(bits[byteLen:])

			if method != methodGolomb {
				return nil, &container.MethodError{Method: method}
			}
			if residuals == nil {
				residuals = pool.GetUint32(min(BlockHeight, height)*width + 1)
				prev = pool.GetUint32(width)
				cur = pool.GetUint32(width)
				for i := range prev {
					prev[i] = seed
				}
			}
			first := c == 0 && colors != 1
			if err := golomb.DecodeValues(residuals, pixelCount, width*BlockHeight+1, bits, first, c); err != nil {
				return nil, golombError(err, y, c)
			}
		}

		ft := filterTypes[min(len(filterTypes), (y/BlockHeight)*xBlocks):]
		skip := rows * BlockWidth
		pix = slices.Grow(pix, rows*stride)
		for yy := y; yy < ylim; yy++ {
			forward := yy&1 == 0
			oddSkip := (ylim - yy - 1) - (yy - y)
			if mainCount != 0 {
				start := min(BlockWidth, width) * (yy - y)
				if err := decodeLine(prev, cur, width, 0, mainCount, ft, skip, residuals, start, seed, oddSkip, forward); err != nil {
					return nil, err
				}
			}
			if mainCount != xBlocks {
				start := min(BlockWidth, fraction) * (yy - y)
				if err := decodeLine(prev, cur, width, mainCount, xBlocks, ft, skip, residuals, start, seed, oddSkip, forward); err != nil {
					return nil, err
				}
			}
			pix = appendRow(pix, cur, colors)
			prev, cur = cur, prev
		}
	}

	return &container.Frame{
		Colors: colors,
		Width:  h.Width,
		Height: h.Height,
		Pix:    pix,
	}, nil
}

// readFilterMap reads the compressed filter map of n entries, one per
// block. The result is only as long as the payload can expand to; blocks
// past its end were never written and use filter 0.
func readFilterMap(r io.Reader, n int) ([]byte, error) {
	size, err := bitio.ReadU32(r)
	if err != nil {
		return nil, fmt.Errorf("tlg6: reading filter map size: %w", err)
	}
	in, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("tlg6: reading filter map: %w", err)
	}
	if len(in) != int(size) {
		return nil, fmt.Errorf("tlg6: reading filter map: %w", io.ErrUnexpectedEOF)
	}

	filterTypes := make([]byte, min(n, lzss.MaxDecodedLen(len(in))))
	if _, err := lzss.NewDecoderWithDictionary(primer[:]).Decode(filterTypes, in); err != nil {
		return nil, &container.FormatError{Msg: "filter map", Err: err}
	}
	return filterTypes, nil
}

func golombError(err error, y, c int) error {
	if errors.Is(err, golomb.ErrIndexOutOfRange) {
		return fmt.Errorf("%w: band at row %d channel %d: %w", container.ErrIndexOutOfRange, y, c, err)
	}
	return &container.FormatError{Msg: fmt.Sprintf("band at row %d channel %d", y, c), Err: err}
}

// appendRow appends one row of packed pixels as B, G, R[, A] bytes, or
// only B for grayscale.
func appendRow(dst []byte, row []uint32, colors int) []byte {
	for _, p := range row {
		b, g, r, a := dsp.Unpack(p)
		switch colors {
		case 1:
			dst = append(dst, b)
		case 3:
			dst = append(dst, b, g, r)
		default:
			dst = append(dst, b, g, r, a)
		}
	}
	return dst
}

// decodeLine reconstructs blocks [start, limit) of one scanline into cur.
//
// Residuals of a band are stored block by block, skip entries per block,
// with rows running alternately left to right and right to left. Odd
// blocks also store their rows bottom to top, which oddSkip undoes.
func decodeLine(prev, cur []uint32, width, start, limit int, ft []byte, skip int,
	in []uint32, inPos int, initial uint32, oddSkip int, forward bool) error {

	var p, up uint32
	pos := 0
	if start != 0 {
		pos = start * BlockWidth
		p, up = cur[pos-1], prev[pos-1]
	} else {
		p, up = initial, initial
	}

	inPos += skip * start
	step := 1
	if !forward {
		step = -1
	}
	for i := start; i < limit; i++ {
		w := min(width-i*BlockWidth, BlockWidth)
		if step == -1 {
			inPos += w - 1
		}
		if i&1 != 0 {
			inPos += oddSkip * w
		}

		var f byte
		if i < len(ft) {
			f = ft[i]
		}
		if int(f) >= dsp.NumFilters {
			return &container.FormatError{Msg: fmt.Sprintf("Unsupported filter type: %d", f)}
		}
		filter := dsp.Filters[f]
		for range w {
			u := prev[pos]
			p = filter(p, u, up, in[inPos])
			up = u
			cur[pos] = p
			pos++
			inPos += step
		}

		if step == 1 {
			inPos += skip - w
		} else {
			inPos += skip + 1
		}
		if i&1 != 0 {
			inPos -= oddSkip * w
		}
	}
	return nil
}
