package lzss

import "errors"

// ErrCorrupt reports a token stream that runs past its input or output.
var ErrCorrupt = errors.New("lzss: corrupt token stream")

// MaxDecodedLen bounds the output of Decode for n input bytes. No token
// yields more than MaxMatch bytes from fewer than three input bytes.
func MaxDecodedLen(n int) int {
	return (n + 2) / 3 * MaxMatch
}

// Decoder is the decoding side of the dictionary coder. It keeps only the
// ring and the insertion cursor; back references are replayed byte by
// byte so overlapping copies behave like the encoder saw them.
type Decoder struct {
	text [WindowSize]byte
	r    int
}

// NewDecoder returns a Decoder over a zero-filled window.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// NewDecoderWithDictionary returns a Decoder whose window is primed with
// dict. Bytes beyond WindowSize are ignored.
func NewDecoderWithDictionary(dict []byte) *Decoder {
	d := &Decoder{}
	copy(d.text[:], dict)
	return d
}

// Decode expands the token stream src into dst and returns the number of
// bytes written. The window carries over to the next call.
func (d *Decoder) Decode(dst, src []byte) (int, error) {
	var flags uint32
	in, out := 0, 0
	r := d.r
	defer func() { d.r = r }()

	for in < len(src) {
		flags >>= 1
		if flags&0x100 == 0 {
			flags = uint32(src[in]) | 0xff00
			in++
			if in == len(src) {
				break
			}
		}

		if flags&1 == 0 {
			if out >= len(dst) {
				return out, ErrCorrupt
			}
			c := src[in]
			in++
			dst[out] = c
			out++
			d.text[r] = c
			r = (r + 1) & windowMask
			continue
		}

		if in+2 > len(src) {
			return out, ErrCorrupt
		}
		mpos := int(src[in]) | int(src[in+1]&0x0f)<<8
		mlen := int(src[in+1]>>4) + MinMatch
		in += 2
		if mlen == longMatch {
			if in >= len(src) {
				return out, ErrCorrupt
			}
			mlen += int(src[in])
			in++
		}
		if out+mlen > len(dst) {
			return out, ErrCorrupt
		}
		for ; mlen > 0; mlen-- {
			c := d.text[mpos]
			dst[out] = c
			out++
			d.text[r] = c
			r = (r + 1) & windowMask
			mpos = (mpos + 1) & windowMask
		}
	}
	return out, nil
}
