package tlg

import (
	"fmt"
	"io"

	"github.com/deepteams/tlg/internal/bitio"
	"github.com/deepteams/tlg/internal/container"
	"github.com/deepteams/tlg/internal/tlg5"
	"github.com/deepteams/tlg/internal/tlg6"
)

// ColorType is the pixel layout of an Image. Its value is the number of
// bytes per pixel, as stored in the stream header.
type ColorType uint8

const (
	Grayscale8 ColorType = 1
	BGR24      ColorType = 3
	BGRA32     ColorType = 4
)

// Valid reports whether c is one of the defined color types.
func (c ColorType) Valid() bool {
	return container.ValidColors(uint8(c))
}

// BytesPerPixel returns the number of bytes per pixel, or 0 for an
// undefined color type.
func (c ColorType) BytesPerPixel() int {
	if !c.Valid() {
		return 0
	}
	return int(c)
}

func (c ColorType) String() string {
	switch c {
	case Grayscale8:
		return "Grayscale8"
	case BGR24:
		return "BGR24"
	case BGRA32:
		return "BGRA32"
	default:
		return fmt.Sprintf("ColorType(%d)", uint8(c))
	}
}

// Image is a TLG raster in on-disk channel order: B, G, R and optionally
// A per pixel, rows top to bottom without padding.
type Image struct {
	// Tags holds the key/value pairs of the TLG0.0 "tags" chunk. Keys and
	// values are arbitrary byte sequences.
	Tags map[string]string
	// Version is 5 or 6, the stream the pixels came from or are written as.
	Version uint32
	Width   uint32
	Height  uint32
	Color   ColorType
	Data    []byte
}

// Errors returned by the decoder and encoder.
var (
	// ErrInvalidFormat reports a stream that starts with none of the TLG
	// signatures.
	ErrInvalidFormat = container.ErrInvalidMagic
	// ErrIndexOutOfRange reports a TLG6 band whose bit pool ran out.
	ErrIndexOutOfRange = container.ErrIndexOutOfRange
)

// UnsupportedColorTypeError reports a colors byte other than 1, 3 or 4.
type UnsupportedColorTypeError = container.ColorsError

// UnsupportedMethodError reports a TLG6 band coded with a method other
// than Golomb.
type UnsupportedMethodError = container.MethodError

// FormatError describes a stream that cannot be decoded.
type FormatError = container.FormatError

// EncodeError describes an Image that cannot be saved.
type EncodeError struct {
	Msg string
}

func (e *EncodeError) Error() string { return "tlg: " + e.Msg }

// IsValid reports whether b starts with one of the three TLG signatures.
func IsValid(b []byte) bool {
	return container.Detect(b) != container.FormatUnknown
}

// Check rewinds r and reports whether it starts with a TLG signature.
// Failing to read the signature is an error.
func Check(r io.ReadSeeker) (bool, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("tlg: rewinding: %w", err)
	}
	var mark [container.MagicSize]byte
	if _, err := io.ReadFull(r, mark[:]); err != nil {
		return false, fmt.Errorf("tlg: reading signature: %w", err)
	}
	return IsValid(mark[:]), nil
}

// Load rewinds r and decodes a TLG5, TLG6 or TLG0.0 wrapped image. For a
// wrapped image the chunks after the embedded stream are scanned for tags.
// The returned Tags map is never nil.
func Load(r io.ReadSeeker) (*Image, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("tlg: rewinding: %w", err)
	}
	f, err := container.ReadMagic(r)
	if err != nil {
		return nil, err
	}
	if f != container.FormatSDS {
		return loadRaw(f, r)
	}

	rawLen, err := bitio.ReadU32(r)
	if err != nil {
		return nil, fmt.Errorf("tlg: reading embedded length: %w", err)
	}
	inner, err := container.ReadMagic(r)
	if err != nil {
		return nil, err
	}
	img, err := loadRaw(inner, r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(container.SDSHeaderSize+int64(rawLen), io.SeekStart); err != nil {
		return nil, fmt.Errorf("tlg: seeking to chunks: %w", err)
	}
	if err := container.ScanChunks(r, img.Tags); err != nil {
		return nil, err
	}
	return img, nil
}

// loadRaw decodes the stream that follows a TLG5 or TLG6 signature.
func loadRaw(f container.Format, r io.Reader) (*Image, error) {
	var (
		frame   *container.Frame
		version uint32
		err     error
	)
	switch f {
	case container.FormatTLG5:
		frame, err = tlg5.Decode(r)
		version = 5
	case container.FormatTLG6:
		frame, err = tlg6.Decode(r)
		version = 6
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, err
	}
	return &Image{
		Tags:    map[string]string{},
		Version: version,
		Width:   frame.Width,
		Height:  frame.Height,
		Color:   ColorType(frame.Colors),
		Data:    frame.Pix,
	}, nil
}

// Save encodes img to w. Without tags the result is a bare TLG5 stream;
// with tags it is wrapped in TLG0.0 followed by a "tags" chunk whose
// entries are sorted by key. Only version 5 can be written.
func Save(img *Image, w io.WriteSeeker) error {
	if !img.Color.Valid() {
		return &UnsupportedColorTypeError{Colors: uint8(img.Color)}
	}
	need := uint64(img.Width) * uint64(img.Height) * uint64(img.Color.BytesPerPixel())
	if uint64(len(img.Data)) < need {
		return &EncodeError{Msg: fmt.Sprintf("Image data size too small: expected %d, got %d", need, len(img.Data))}
	}
	if img.Version != 5 {
		return &EncodeError{Msg: fmt.Sprintf("Unsupported TLG version: %d", img.Version)}
	}
	if img.Width == 0 || img.Height == 0 {
		return &EncodeError{Msg: fmt.Sprintf("invalid image dimensions: %dx%d", img.Width, img.Height)}
	}

	frame := &container.Frame{
		Colors: int(img.Color),
		Width:  img.Width,
		Height: img.Height,
		Pix:    img.Data,
	}
	if len(img.Tags) == 0 {
		return encodeTLG5(w, frame)
	}

	if _, err := io.WriteString(w, container.MagicSDS); err != nil {
		return fmt.Errorf("tlg: writing signature: %w", err)
	}
	lenPos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("tlg: locating length field: %w", err)
	}
	if err := bitio.WriteU32(w, 0); err != nil {
		return fmt.Errorf("tlg: writing length field: %w", err)
	}
	if err := encodeTLG5(w, frame); err != nil {
		return err
	}
	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("tlg: locating stream end: %w", err)
	}
	if _, err := w.Seek(lenPos, io.SeekStart); err != nil {
		return fmt.Errorf("tlg: patching length field: %w", err)
	}
	if err := bitio.WriteU32(w, uint32(end-lenPos-4)); err != nil {
		return fmt.Errorf("tlg: patching length field: %w", err)
	}
	if _, err := w.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("tlg: patching length field: %w", err)
	}
	if err := container.WriteChunk(w, container.FourCCTags, container.AppendTags(nil, img.Tags)); err != nil {
		return fmt.Errorf("tlg: writing tags: %w", err)
	}
	return nil
}

func encodeTLG5(w io.WriteSeeker, f *container.Frame) error {
	if err := tlg5.Encode(w, f); err != nil {
		return fmt.Errorf("tlg: tlg5 encode: %w", err)
	}
	return nil
}
