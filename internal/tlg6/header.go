// Package tlg6 implements the TLG6 decoder: 8x8 blocks, a per-block filter
// choice stored as an LZSS compressed map, and Golomb coded residuals laid
// out band by band in a zig-zag order.
package tlg6

import (
	"fmt"
	"io"

	"github.com/deepteams/tlg/internal/bitio"
	"github.com/deepteams/tlg/internal/container"
)

// Block dimensions.
const (
	BlockWidth  = 8
	BlockHeight = 8
)

// Header is the fixed part of a TLG6 stream following the signature.
type Header struct {
	Colors         uint8
	DataFlags      uint8
	ColorType      uint8
	ExternalGolomb uint8
	Width          uint32
	Height         uint32
	MaxBitLength   uint32
}

// XBlockCount returns the number of block columns, the last possibly
// narrower than BlockWidth.
func (h Header) XBlockCount() int { return int((h.Width-1)/BlockWidth) + 1 }

// YBlockCount returns the number of 8-row bands.
func (h Header) YBlockCount() int { return int((h.Height-1)/BlockHeight) + 1 }

// ReadHeader reads the header that follows the TLG6 signature. The three
// extension bytes are checked before the dimensions are read.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return h, fmt.Errorf("tlg6: reading header: %w", err)
	}
	h.Colors, h.DataFlags, h.ColorType, h.ExternalGolomb = b[0], b[1], b[2], b[3]
	switch {
	case !container.ValidColors(h.Colors):
		return h, &container.ColorsError{Colors: h.Colors}
	case h.DataFlags != 0:
		return h, &container.FormatError{Msg: "Data flags must be 0"}
	case h.ColorType != 0:
		return h, &container.FormatError{Msg: "Color types must be 0"}
	case h.ExternalGolomb != 0:
		return h, &container.FormatError{Msg: "External golomb bit length table is not yet supported."}
	}

	var err error
	for _, v := range []*uint32{&h.Width, &h.Height, &h.MaxBitLength} {
		if *v, err = bitio.ReadU32(r); err != nil {
			return h, fmt.Errorf("tlg6: reading header: %w", err)
		}
	}
	if err := container.CheckDimensions(h.Width, h.Height); err != nil {
		return h, err
	}
	return h, nil
}
