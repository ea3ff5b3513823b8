// Package dsp holds the per-pixel arithmetic used by the TLG6 decoder.
//
// Pixels are packed as 0xAARRGGBB in a uint32 and every operator works on
// the four channel bytes at once without branches. Carries never leak from
// one byte lane into the next, so each lane behaves like independent
// 8-bit modular arithmetic.
package dsp

// GTMask returns 0xff in each byte lane where a > b and 0x00 elsewhere.
func GTMask(a, b uint32) uint32 {
	nb := ^b
	tmp := ((a & nb) + (((a ^ nb) >> 1) & 0x7f7f7f7f)) & 0x80808080
	return ((tmp >> 7) + 0x7f7f7f7f) ^ 0x7f7f7f7f
}

// PackedAdd adds a and b lane by lane modulo 256.
func PackedAdd(a, b uint32) uint32 {
	carry := (((a & b) << 1) + ((a ^ b) & 0xfefefefe)) & 0x01010100
	return a + b - carry
}

// MED is the median edge detector over left a, upper b and upper-left c:
// per lane it yields min(a, b) when c >= max(a, b), max(a, b) when
// c <= min(a, b), and a + b - c otherwise.
func MED(a, b, c uint32) uint32 {
	swap := (a ^ b) & GTMask(a, b)
	lo := swap ^ a
	hi := swap ^ b
	n := GTMask(c, hi)
	nn := GTMask(lo, c)
	m := ^(n | nn)
	return (n & lo) | (nn & hi) | ((hi & m) - (c & m) + (lo & m))
}

// Average returns the lane-wise average of x and y, rounding up.
func Average(x, y uint32) uint32 {
	return (x & y) + (((x ^ y) & 0xfefefefe) >> 1) + ((x ^ y) & 0x01010101)
}

// Pack builds a packed pixel from its channel bytes.
func Pack(b, g, r, a uint8) uint32 {
	return uint32(b) | uint32(g)<<8 | uint32(r)<<16 | uint32(a)<<24
}

// Unpack splits a packed pixel into its channel bytes.
func Unpack(v uint32) (b, g, r, a uint8) {
	return uint8(v), uint8(v >> 8), uint8(v >> 16), uint8(v >> 24)
}
