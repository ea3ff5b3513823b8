package tlg_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/deepteams/tlg"
)

func ExampleEncode() {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 200})
		}
	}

	var buf bytes.Buffer
	if err := tlg.Encode(&buf, img, nil); err != nil {
		log.Fatal(err)
	}
	fmt.Println(tlg.IsValid(buf.Bytes()))
	// Output: true
}

func ExampleDecode() {
	src := image.NewGray(image.Rect(0, 0, 8, 2))
	var buf bytes.Buffer
	if err := tlg.Encode(&buf, src, nil); err != nil {
		log.Fatal(err)
	}

	img, err := tlg.Decode(&buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%T %v\n", img, img.Bounds())
	// Output: *image.Gray (0,0)-(8,2)
}

func ExampleLoad() {
	src := &tlg.Image{
		Tags:    map[string]string{"title": "sample"},
		Version: 5,
		Width:   2,
		Height:  1,
		Color:   tlg.BGR24,
		Data:    []byte{0, 0, 255, 255, 0, 0},
	}
	buf := new(writeSeekBuffer)
	if err := tlg.Save(src, buf); err != nil {
		log.Fatal(err)
	}

	img, err := tlg.Load(bytes.NewReader(buf.b))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(img.Width, img.Height, img.Color, img.Tags["title"])
	// Output: 2 1 BGR24 sample
}

func ExampleGetFeatures() {
	var buf bytes.Buffer
	err := tlg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240)), &tlg.EncoderOptions{
		Tags: map[string]string{"k": "v"},
	})
	if err != nil {
		log.Fatal(err)
	}

	f, err := tlg.GetFeatures(&buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("TLG%d %dx%d %v wrapped=%v\n", f.Version, f.Width, f.Height, f.Color, f.Wrapped)
	// Output: TLG5 320x240 BGRA32 wrapped=true
}

// writeSeekBuffer is a minimal in-memory io.WriteSeeker.
type writeSeekBuffer struct {
	b   []byte
	pos int
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.b) {
		w.b = append(w.b, make([]byte, need-len(w.b))...)
	}
	copy(w.b[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 1:
		offset += int64(w.pos)
	case 2:
		offset += int64(len(w.b))
	}
	w.pos = int(offset)
	return offset, nil
}
