// Package container defines the TLG stream signatures, the TLG0.0 ("SDS")
// wrapper with its chunk list, and the tag chunk grammar.
package container

import "fmt"

// Stream signatures. Each is 11 bytes long.
const (
	MagicSDS  = "TLG0.0\x00sds\x1a"
	MagicTLG5 = "TLG5.0\x00raw\x1a"
	MagicTLG6 = "TLG6.0\x00raw\x1a"

	MagicSize = 11
)

// Sizes of fixed structures.
const (
	// SDSHeaderSize is the magic plus the u32 length of the embedded stream.
	SDSHeaderSize   = MagicSize + 4
	ChunkHeaderSize = 8

	// MaxPixels bounds width*height accepted from a header, so a forged
	// header cannot demand an arbitrarily large allocation.
	MaxPixels = 1 << 28
)

// FourCC creates a FourCC value from four bytes (little-endian).
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Chunk names known to the SDS wrapper.
var (
	FourCCTags = FourCC('t', 'a', 'g', 's')
)

// FourCCString returns a human-readable string for a FourCC value.
func FourCCString(fourcc uint32) string {
	b := [4]byte{
		byte(fourcc),
		byte(fourcc >> 8),
		byte(fourcc >> 16),
		byte(fourcc >> 24),
	}
	return string(b[:])
}

// Format identifies which signature a stream starts with.
type Format int

const (
	FormatUnknown Format = iota
	FormatSDS
	FormatTLG5
	FormatTLG6
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatSDS:
		return "TLG0.0"
	case FormatTLG5:
		return "TLG5.0"
	case FormatTLG6:
		return "TLG6.0"
	default:
		return "unknown"
	}
}

// Detect matches the first MagicSize bytes of b against the known
// signatures.
func Detect(b []byte) Format {
	if len(b) < MagicSize {
		return FormatUnknown
	}
	switch string(b[:MagicSize]) {
	case MagicSDS:
		return FormatSDS
	case MagicTLG5:
		return FormatTLG5
	case MagicTLG6:
		return FormatTLG6
	}
	return FormatUnknown
}

// ValidColors reports whether c is a channel count the codecs support.
func ValidColors(c uint8) bool {
	return c == 1 || c == 3 || c == 4
}

// CheckDimensions validates a width and height read from a header.
func CheckDimensions(width, height uint32) error {
	if width == 0 || height == 0 {
		return &FormatError{Msg: "invalid image dimensions"}
	}
	if uint64(width)*uint64(height) > MaxPixels {
		return &FormatError{Msg: fmt.Sprintf("image too large: %dx%d", width, height)}
	}
	return nil
}

// Frame is a raster in on-disk channel order (B, G, R, A), rows top to
// bottom with no padding.
type Frame struct {
	Colors int
	Width  uint32
	Height uint32
	Pix    []byte
}
