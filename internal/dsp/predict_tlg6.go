package dsp

// TLG6 reconstruction filters.
//
// A filter index selects one of 16 color transforms (bits 1..4) and one of
// two spatial predictors (bit 0): even indices use MED over the left, upper
// and upper-left pixels, odd indices use AVG over left and upper. The
// transform redistributes the decoded residual bytes among B, G and R
// before the prediction is added; alpha always passes through unchanged.

// NumFilters is the number of filter types a TLG6 filter map may reference.
const NumFilters = 32

// FilterFunc reconstructs one pixel. left, up and upLeft are the already
// decoded neighbours and residual is the packed Golomb output.
type FilterFunc func(left, up, upLeft, residual uint32) uint32

// ColorTransform maps residual B, G, R bytes to the values added to the
// prediction.
type ColorTransform func(b, g, r uint8) (uint8, uint8, uint8)

// ColorTransforms holds the 16 TLG6 color transforms.
var ColorTransforms = [NumFilters / 2]ColorTransform{
	func(b, g, r uint8) (uint8, uint8, uint8) { return b, g, r },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + g, g, r + g },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b, g + b, r + b + g },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + r + g, g + r, r },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + r, g + b + r, r + b + r + g },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + r, g + b + r, r },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + g, g, r },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b, g + b, r },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b, g, r + g },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + g + r + b, g + r + b, r + b },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + r, g + r, r },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b, g + b, r + b },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b, g + r + b, r + b },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + g, g + r + b + g, r + b + g },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b + g + r, g + r, r + b + g + r },
	func(b, g, r uint8) (uint8, uint8, uint8) { return b, g + b<<1, r + b<<1 },
}

// Filters holds the 32 TLG6 filter functions, indexed by filter type.
var Filters [NumFilters]FilterFunc

func init() {
	for i, ct := range ColorTransforms {
		Filters[2*i] = medFilter(ct)
		Filters[2*i+1] = avgFilter(ct)
	}
}

// applyTransform runs ct over the B, G, R lanes of residual.
func applyTransform(ct ColorTransform, residual uint32) uint32 {
	b, g, r, a := Unpack(residual)
	b, g, r = ct(b, g, r)
	return Pack(b, g, r, a)
}

func medFilter(ct ColorTransform) FilterFunc {
	return func(left, up, upLeft, residual uint32) uint32 {
		return PackedAdd(MED(left, up, upLeft), applyTransform(ct, residual))
	}
}

func avgFilter(ct ColorTransform) FilterFunc {
	return func(left, up, _, residual uint32) uint32 {
		return PackedAdd(Average(left, up), applyTransform(ct, residual))
	}
}
