// Package pool provides bucketed sync.Pool instances for the scratch
// buffers of the TLG codecs: per-channel block buffers, the Golomb bit
// pool and packed pixel rows. Buffers are organized by size class to
// minimize waste.
package pool

import "sync"

// Size classes for bucketed pools.
const (
	Size1K   = 1024
	Size4K   = 4096
	Size16K  = 16384
	Size64K  = 65536
	Size256K = 262144
	Size1M   = 1048576
)

var sizes = [6]int{Size1K, Size4K, Size16K, Size64K, Size256K, Size1M}

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	for i, sz := range sizes[:len(sizes)-1] {
		if size <= sz {
			return i
		}
	}
	return len(sizes) - 1
}

var (
	bytePools   [len(sizes)]sync.Pool
	uint32Pools [len(sizes)]sync.Pool
)

func init() {
	for i := range sizes {
		sz := sizes[i]
		bytePools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
		uint32Pools[i] = sync.Pool{
			New: func() any {
				b := make([]uint32, sz)
				return &b
			},
		}
	}
}

// Get returns a zeroed byte slice of length size from the pool. It may
// have a larger capacity. The caller should call Put when done.
func Get(size int) []byte {
	bp := bytePools[bucketIndex(size)].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		return make([]byte, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Put returns a byte slice to the pool. Slices smaller than Size1K are
// dropped.
func Put(b []byte) {
	c := cap(b)
	if c < Size1K {
		return
	}
	b = b[:c]
	bytePools[bucketIndex(c)].Put(&b)
}

// GetUint32 returns a zeroed uint32 slice of length n from the pool.
func GetUint32(n int) []uint32 {
	bp := uint32Pools[bucketIndex(n)].Get().(*[]uint32)
	b := *bp
	if cap(b) < n {
		return make([]uint32, n)
	}
	b = b[:n]
	clear(b)
	return b
}

// PutUint32 returns a uint32 slice to the pool. Slices smaller than
// Size1K elements are dropped.
func PutUint32(b []uint32) {
	c := cap(b)
	if c < Size1K {
		return
	}
	b = b[:c]
	uint32Pools[bucketIndex(c)].Put(&b)
}
