// Package golomb decodes the adaptive Golomb-Rice residual streams of TLG6
// bands.
//
// A band channel is a sequence of alternating zero runs and non-zero runs.
// Run lengths are Elias gamma codes. Non-zero values use a Rice parameter
// chosen from a fixed table indexed by a running magnitude sum and a
// position counter that cycles through four states.
package golomb

const (
	// nCount is the number of position states cycling within a run.
	nCount = 4

	leadingZeroBits = 12
	leadingZeroSize = 1 << leadingZeroBits
	leadingZeroMask = leadingZeroSize - 1

	// TableSize is the number of accumulator rows in the bit length table.
	TableSize = nCount * 2 * 128
)

// compressed lists, per position state, how many consecutive accumulator
// values map to each Rice parameter 0..8.
var compressed = [nCount][9]int{
	{3, 7, 15, 27, 63, 108, 223, 448, 130},
	{3, 5, 13, 24, 51, 95, 192, 384, 257},
	{2, 5, 12, 21, 39, 86, 155, 320, 384},
	{2, 3, 9, 18, 33, 61, 129, 258, 511},
}

var (
	// leadingZero maps the low 12 bits of the pool to the 1-based position
	// of their lowest set bit, or 0 when all 12 bits are clear.
	leadingZero [leadingZeroSize]uint8

	// bitLength maps (accumulator, position state) to a Rice parameter.
	bitLength [TableSize][nCount]uint8
)

func init() {
	for i := range leadingZero {
		cnt := uint8(1)
		j := 1
		for j != leadingZeroSize && i&j == 0 {
			j <<= 1
			cnt++
		}
		if j == leadingZeroSize {
			cnt = 0
		}
		leadingZero[i] = cnt
	}

	for n := 0; n < nCount; n++ {
		a := 0
		for k, run := range compressed[n] {
			for ; run > 0; run-- {
				bitLength[a][n] = uint8(k)
				a++
			}
		}
	}
}
