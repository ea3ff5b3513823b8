package golomb

import (
	"errors"

	"github.com/deepteams/tlg/internal/bitio"
)

var (
	// ErrIndexOutOfRange reports a read past the end of the bit pool.
	ErrIndexOutOfRange = errors.New("golomb: bit pool index out of range")
	// ErrCorrupt reports a code that cannot come from a valid encoder.
	ErrCorrupt = errors.New("golomb: corrupt code")
)

// reader walks the bit pool. Bits are consumed least significant first
// within each byte.
type reader struct {
	pool []byte
	idx  int
	pos  uint
}

func (r *reader) peek() (uint32, error) {
	v, ok := bitio.Fetch32(r.pool, r.idx)
	if !ok {
		return 0, ErrIndexOutOfRange
	}
	return v >> r.pos, nil
}

func (r *reader) advance(n uint) {
	r.pos += n
	r.idx += int(r.pos >> 3)
	r.pos &= 7
}

// unary scans for the next set bit starting from the peeked bits t. It
// returns the number of zero bits before it and the offset of the bit
// past it within the final window t, which is left unconsumed.
func (r *reader) unary(t uint32) (zeros int, b uint, last uint32, err error) {
	lz := leadingZero[t&leadingZeroMask]
	count := int(lz)
	for lz == 0 {
		count += leadingZeroBits
		r.advance(leadingZeroBits)
		if t, err = r.peek(); err != nil {
			return 0, 0, 0, err
		}
		lz = leadingZero[t&leadingZeroMask]
		count += int(lz)
	}
	return count - 1, uint(lz), t, nil
}

// runLength reads one gamma coded run length.
func (r *reader) runLength() (int, error) {
	t, err := r.peek()
	if err != nil {
		return 0, err
	}
	bits, b, _, err := r.unary(t)
	if err != nil {
		return 0, err
	}
	r.advance(b)
	if bits > 30 {
		return 0, ErrCorrupt
	}
	count := 1 << bits
	t, err = r.peek()
	if err != nil {
		return 0, err
	}
	count += int(t) & (count - 1)
	r.advance(uint(bits))
	return count, nil
}

// DecodeValues decodes count residuals for channel c from pool into the
// packed pixels, one byte lane per channel. When first is set, each
// value is stored as a whole word, clearing the other lanes, which is how
// the first channel of a multi-channel band is laid down. Runs may extend
// past count as long as they end by limit; values decoded at or past
// len(pixels) are dropped.
func DecodeValues(pixels []uint32, count, limit int, pool []byte, first bool, c int) error {
	if len(pool) == 0 {
		return ErrIndexOutOfRange
	}
	shift := uint(c&3) * 8
	keep := ^(uint32(0xff) << shift)

	r := reader{pool: pool, pos: 1}
	zero := pool[0]&1 == 0
	n := nCount - 1
	a := 0

	for index := 0; index < count; {
		run, err := r.runLength()
		if err != nil {
			return err
		}
		if index+run > limit {
			return ErrIndexOutOfRange
		}

		if zero {
			end := index + run
			for i := index; i < min(end, len(pixels)); i++ {
				if first {
					pixels[i] = 0
				} else {
					pixels[i] &= keep
				}
			}
			index = end
			zero = false
			continue
		}

		for ; run > 0; run-- {
			if a >= TableSize {
				return ErrCorrupt
			}
			k := uint(bitLength[a][n])

			t, err := r.peek()
			if err != nil {
				return err
			}
			var bitCount int
			var b uint
			if t != 0 {
				if bitCount, b, t, err = r.unary(t); err != nil {
					return err
				}
			} else {
				// An all-zero window escapes to an explicit 8-bit prefix
				// stored in the last byte of the next 5-byte group.
				r.idx += 5
				if r.idx > len(r.pool) {
					return ErrIndexOutOfRange
				}
				bitCount = int(r.pool[r.idx-1])
				r.pos = 0
				if t, err = r.peek(); err != nil {
					return err
				}
			}

			v := int32(bitCount<<k) + int32((t>>b)&(1<<k-1))
			sign := (v & 1) - 1
			v >>= 1
			a += int(v)

			val := (v ^ sign) + sign + 1
			switch {
			case index >= len(pixels):
			case first:
				pixels[index] = uint32(val) & 0xff
			default:
				pixels[index] = pixels[index]&keep | uint32(uint8(val))<<shift
			}
			index++

			r.advance(b + k)
			if n == 0 {
				n = nCount - 1
				a >>= 1
			} else {
				n--
			}
		}
		zero = true
	}
	return nil
}
