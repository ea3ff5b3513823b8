// Package lzss implements the sliding-window dictionary coder shared by
// TLG5 blocks and the TLG6 filter map.
//
// Tokens are grouped eight at a time behind a control byte whose bits,
// least significant first, flag each token as a literal byte (0) or a
// back reference (1). A back reference is two bytes: the low 8 bits of a
// 12-bit window offset, then the high 4 offset bits with the length code
// in the upper nibble. Length codes 0..14 mean 3..17 bytes; code 15 is
// followed by an extension byte adding 18..273.
//
// The dictionary is a 4096-byte ring that persists across calls, so one
// Compressor or Decoder must be threaded through an entire image.
package lzss

const (
	windowBits = 12
	// WindowSize is the size of the dictionary ring.
	WindowSize = 1 << windowBits
	windowMask = WindowSize - 1

	// MinMatch is the shortest back reference.
	MinMatch = 3
	// MaxMatch is the longest back reference (18 + 255).
	MaxMatch = 18 + 255

	// longMatch is the first length that needs an extension byte.
	longMatch = 18

	// textSize adds a mirror of the first MaxMatch-1 ring bytes after the
	// ring so that forward compares never wrap.
	textSize = WindowSize + MaxMatch
	// hashSize covers every 2-byte value.
	hashSize = 256 * 256
)

// link threads one window position into the chain of positions that share
// its 2-byte hash. -1 terminates.
type link struct {
	prev, next int32
}

// dictionary is the complete compressor state. It holds only arrays and
// scalars, so assigning one dictionary to another is a deep copy.
type dictionary struct {
	text  [textSize]byte
	head  [hashSize]int32 // newest position per hash, -1 if none
	chain [WindowSize]link
	s     int // next write position in the ring
}

// hashAt returns the 2-byte key of window position p.
func (d *dictionary) hashAt(p int) int {
	return int(d.text[p]) | int(d.text[(p+1)&windowMask])<<8
}

// insert makes p the newest entry of its hash chain.
func (d *dictionary) insert(p int) {
	h := d.hashAt(p)
	old := d.head[h]
	d.head[h] = int32(p)
	d.chain[p] = link{prev: -1, next: old}
	if old != -1 {
		d.chain[old].prev = int32(p)
	}
}

// remove unlinks p from its hash chain. It must run while text still
// holds the bytes p was inserted with.
func (d *dictionary) remove(p int) {
	l := d.chain[p]
	if l.next != -1 {
		d.chain[l.next].prev = l.prev
	}
	if l.prev != -1 {
		d.chain[l.prev].next = l.next
	} else {
		d.head[d.hashAt(p)] = l.next
	}
	d.chain[p] = link{prev: -1, next: -1}
}

// put stores c at ring position s and returns the next position. The two
// positions whose keys cover s are re-indexed around the write.
func (d *dictionary) put(s int, c byte) int {
	prev := (s - 1) & windowMask
	d.remove(prev)
	d.remove(s)
	if s < MaxMatch-1 {
		d.text[s+WindowSize] = c
	}
	d.text[s] = c
	d.insert(prev)
	d.insert(s)
	return (s + 1) & windowMask
}

// match returns the longest window match for the head of cur, walking the
// hash chain newest first. Candidates are clipped at the write cursor s so
// a reference never covers bytes that have not been emitted yet.
func (d *dictionary) match(cur []byte, s int) (length, pos int) {
	if len(cur) < MinMatch {
		return 0, 0
	}
	avail := min(MaxMatch, len(cur)-1)
	for head := d.head[int(cur[0])|int(cur[1])<<8]; head != -1; {
		org := int(head)
		head = d.chain[org].next
		if s == org || s == (org+1)&windowMask {
			continue
		}

		lim := avail + org
		if lim >= WindowSize {
			if org <= s && s < WindowSize {
				lim = s
			} else if s < lim&windowMask {
				lim = s + WindowSize
			}
		} else if org <= s && s < lim {
			lim = s
		}

		p, ci := org+2, 2
		for p < lim && ci < len(cur) && d.text[p] == cur[ci] {
			p++
			ci++
		}
		if n := p - org; n > length {
			length, pos = n, org
			if n == MaxMatch {
				return length, pos
			}
		}
	}
	return length, pos
}

// Compressor is the encoding side of the dictionary coder. Its working
// state can be checkpointed with Store and rolled back with Restore.
type Compressor struct {
	cur   dictionary
	saved dictionary
}

// NewCompressor returns a Compressor over a zero-filled window in which
// every position is already indexed.
func NewCompressor() *Compressor {
	c := &Compressor{}
	d := &c.cur
	for i := range d.head {
		d.head[i] = -1
	}
	for i := range d.chain {
		d.chain[i] = link{prev: -1, next: -1}
	}
	for p := WindowSize - 1; p >= 0; p-- {
		d.insert(p)
	}
	return c
}

// Store snapshots the complete dictionary state.
func (c *Compressor) Store() { c.saved = c.cur }

// Restore rolls the dictionary back to the last Store.
func (c *Compressor) Restore() { c.cur = c.saved }

// Encode compresses src, appends the token stream to dst and returns the
// extended slice. An empty src appends nothing.
func (c *Compressor) Encode(dst, src []byte) []byte {
	if len(src) == 0 {
		return dst
	}
	d := &c.cur
	var code [1 + 8*3]byte
	n := 1
	mask := byte(1)
	s := d.s
	for i := 0; i < len(src); {
		length, pos := d.match(src[i:], s)
		if length >= MinMatch {
			code[0] |= mask
			code[n] = byte(pos)
			if length >= longMatch {
				code[n+1] = byte(pos>>8)&0x0f | 0xf0
				code[n+2] = byte(length - longMatch)
				n += 3
			} else {
				code[n+1] = byte(pos>>8)&0x0f | byte(length-MinMatch)<<4
				n += 2
			}
			for end := i + length; i < end; i++ {
				s = d.put(s, src[i])
			}
		} else {
			code[n] = src[i]
			n++
			s = d.put(s, src[i])
			i++
		}

		mask <<= 1
		if mask == 0 {
			dst = append(dst, code[:n]...)
			code[0] = 0
			n = 1
			mask = 1
		}
	}
	if mask != 1 {
		dst = append(dst, code[:n]...)
	}
	d.s = s
	return dst
}
