package tlg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/deepteams/tlg/internal/bitio"
	"github.com/deepteams/tlg/internal/container"
	"github.com/deepteams/tlg/internal/tlg5"
	"github.com/deepteams/tlg/internal/tlg6"
)

func init() {
	for _, magic := range []string{container.MagicSDS, container.MagicTLG5, container.MagicTLG6} {
		image.RegisterFormat("tlg", magic, Decode, DecodeConfig)
	}
}

// Features describes a TLG stream's properties.
type Features struct {
	Version uint32 // 5 or 6
	Width   int
	Height  int
	Color   ColorType
	Wrapped bool // stream is inside a TLG0.0 wrapper and may carry tags
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Decode reads a TLG image from r and returns it as an image.Image:
// *image.Gray for grayscale, *image.RGBA for BGR and *image.NRGBA for
// BGRA images. Tags are discarded; use Load to keep them.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("tlg: reading data: %w", err)
	}
	img, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img.ToImage()
}

// DecodeConfig returns the color model and dimensions of a TLG image
// without decoding pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	f, err := GetFeatures(r)
	if err != nil {
		return image.Config{}, err
	}
	var cm color.Model
	switch f.Color {
	case Grayscale8:
		cm = color.GrayModel
	case BGR24:
		cm = color.RGBAModel
	default:
		cm = color.NRGBAModel
	}
	return image.Config{ColorModel: cm, Width: f.Width, Height: f.Height}, nil
}

// GetFeatures reads the signatures and header of a TLG stream.
func GetFeatures(r io.Reader) (*Features, error) {
	f, err := container.ReadMagic(r)
	if err != nil {
		return nil, err
	}
	feat := &Features{}
	if f == container.FormatSDS {
		feat.Wrapped = true
		if _, err := bitio.ReadU32(r); err != nil {
			return nil, fmt.Errorf("tlg: reading embedded length: %w", err)
		}
		if f, err = container.ReadMagic(r); err != nil {
			return nil, err
		}
	}

	switch f {
	case container.FormatTLG5:
		h, err := tlg5.ReadHeader(r)
		if err != nil {
			return nil, err
		}
		feat.Version, feat.Color = 5, ColorType(h.Colors)
		feat.Width, feat.Height = int(h.Width), int(h.Height)
	case container.FormatTLG6:
		h, err := tlg6.ReadHeader(r)
		if err != nil {
			return nil, err
		}
		feat.Version, feat.Color = 6, ColorType(h.Colors)
		feat.Width, feat.Height = int(h.Width), int(h.Height)
	default:
		return nil, ErrInvalidFormat
	}
	return feat, nil
}

// ToImage converts m to a standard library image: *image.Gray for
// Grayscale8, an opaque *image.RGBA for BGR24 and *image.NRGBA for BGRA32.
func (m *Image) ToImage() (image.Image, error) {
	bpp := m.Color.BytesPerPixel()
	if bpp == 0 {
		return nil, &UnsupportedColorTypeError{Colors: uint8(m.Color)}
	}
	w, h := int(m.Width), int(m.Height)
	n := w * h
	if len(m.Data) < n*bpp {
		return nil, &FormatError{Msg: fmt.Sprintf("image data is %d bytes, need %d", len(m.Data), n*bpp)}
	}
	rect := image.Rect(0, 0, w, h)

	switch m.Color {
	case Grayscale8:
		img := image.NewGray(rect)
		copy(img.Pix, m.Data[:n])
		return img, nil
	case BGR24:
		img := image.NewRGBA(rect)
		for i, j := 0, 0; i < n*3; i, j = i+3, j+4 {
			img.Pix[j+0] = m.Data[i+2]
			img.Pix[j+1] = m.Data[i+1]
			img.Pix[j+2] = m.Data[i+0]
			img.Pix[j+3] = 0xff
		}
		return img, nil
	default:
		img := image.NewNRGBA(rect)
		for i := 0; i < n*4; i += 4 {
			img.Pix[i+0] = m.Data[i+2]
			img.Pix[i+1] = m.Data[i+1]
			img.Pix[i+2] = m.Data[i+0]
			img.Pix[i+3] = m.Data[i+3]
		}
		return img, nil
	}
}

// FromImage converts src to a version 5 Image without tags. A zero or
// undefined c picks Grayscale8 for *image.Gray, BGR24 for opaque images
// and BGRA32 otherwise.
func FromImage(src image.Image, c ColorType) *Image {
	if !c.Valid() {
		c = pickColorType(src)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	img := &Image{
		Tags:    map[string]string{},
		Version: 5,
		Width:   uint32(w),
		Height:  uint32(h),
		Color:   c,
		Data:    make([]byte, w*h*c.BytesPerPixel()),
	}

	if c == Grayscale8 {
		if g, ok := src.(*image.Gray); ok {
			for y := 0; y < h; y++ {
				copy(img.Data[y*w:(y+1)*w], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
			}
			return img
		}
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				img.Data[i] = color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
				i++
			}
		}
		return img
	}

	nrgba, ok := src.(*image.NRGBA)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var px color.NRGBA
			if ok {
				o := nrgba.PixOffset(x, y)
				px = color.NRGBA{R: nrgba.Pix[o], G: nrgba.Pix[o+1], B: nrgba.Pix[o+2], A: nrgba.Pix[o+3]}
			} else {
				px = color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			}
			img.Data[i+0] = px.B
			img.Data[i+1] = px.G
			img.Data[i+2] = px.R
			if c == BGRA32 {
				img.Data[i+3] = px.A
			}
			i += int(c)
		}
	}
	return img
}

func pickColorType(src image.Image) ColorType {
	if _, ok := src.(*image.Gray); ok {
		return Grayscale8
	}
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return BGR24
	}
	return BGRA32
}
