// Package tlg5 implements the TLG5 stream: horizontal blocks of scanlines,
// each channel delta coded against the row above and the pixel to the left,
// then LZSS compressed or stored raw per block.
package tlg5

import (
	"fmt"
	"io"

	"github.com/deepteams/tlg/internal/bitio"
	"github.com/deepteams/tlg/internal/container"
)

// BlockHeight is the number of scanlines per block the encoder writes.
const BlockHeight = 4

// Header is the fixed part of a TLG5 stream following the signature.
type Header struct {
	Colors      uint8
	Width       uint32
	Height      uint32
	BlockHeight uint32
}

// BlockCount returns the number of horizontal blocks, which is also the
// number of entries in the block size index.
func (h Header) BlockCount() int {
	return int((h.Height-1)/h.BlockHeight) + 1
}

// ReadHeader reads the header that follows the TLG5 signature.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	var err error
	if h.Colors, err = bitio.ReadU8(r); err != nil {
		return h, fmt.Errorf("tlg5: reading header: %w", err)
	}
	for _, v := range []*uint32{&h.Width, &h.Height, &h.BlockHeight} {
		if *v, err = bitio.ReadU32(r); err != nil {
			return h, fmt.Errorf("tlg5: reading header: %w", err)
		}
	}
	if !container.ValidColors(h.Colors) {
		return h, &container.ColorsError{Colors: h.Colors}
	}
	if err := container.CheckDimensions(h.Width, h.Height); err != nil {
		return h, err
	}
	if h.BlockHeight == 0 {
		return h, &container.FormatError{Msg: "block height must not be 0"}
	}
	return h, nil
}

// writeHeader writes the signature and header.
func writeHeader(w io.Writer, h Header) error {
	if _, err := io.WriteString(w, container.MagicTLG5); err != nil {
		return err
	}
	if err := bitio.WriteU8(w, h.Colors); err != nil {
		return err
	}
	for _, v := range []uint32{h.Width, h.Height, h.BlockHeight} {
		if err := bitio.WriteU32(w, v); err != nil {
			return err
		}
	}
	return nil
}
