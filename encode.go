package tlg

import (
	"fmt"
	"image"
	"io"
	"maps"

	"github.com/deepteams/tlg/internal/bitio"
)

// EncoderOptions controls Encode.
type EncoderOptions struct {
	// Color selects the stored pixel layout. Zero picks one from the
	// source image: Grayscale8 for *image.Gray, BGR24 for opaque images
	// and BGRA32 otherwise.
	Color ColorType
	// Tags, when non-empty, are written to a "tags" chunk and the stream
	// is wrapped in TLG0.0.
	Tags map[string]string
}

// Encode writes m to w as TLG5, wrapped in TLG0.0 when opts carries tags.
// A nil opts uses the defaults.
func Encode(w io.Writer, m image.Image, opts *EncoderOptions) error {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	if opts.Color != 0 && !opts.Color.Valid() {
		return fmt.Errorf("tlg: invalid Color %d (must be 1, 3 or 4)", uint8(opts.Color))
	}
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("tlg: invalid image dimensions %dx%d", b.Dx(), b.Dy())
	}

	img := FromImage(m, opts.Color)
	maps.Copy(img.Tags, opts.Tags)

	// Save patches length fields in place, so the stream is assembled in
	// memory and written out once.
	buf := bitio.NewBuffer(len(img.Data) + len(img.Data)/8 + 64)
	if err := Save(img, buf); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("tlg: writing output: %w", err)
	}
	return nil
}
