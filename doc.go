// Package tlg provides a pure Go encoder and decoder for the TLG image
// formats of the Kirikiri engine.
//
// The package supports:
//   - TLG5 decoding and encoding (LZSS compressed channel deltas)
//   - TLG6 decoding (Golomb coded residuals with 32 per-block filters)
//   - The TLG0.0 wrapper and its "tags" chunk of key/value metadata
//   - Grayscale, BGR and BGRA rasters
//
// Images can be handled in their on-disk channel order through Image,
// Load and Save, or through the standard image package:
//
//	img, err := tlg.Decode(reader)
//
//	err := tlg.Encode(writer, img, &tlg.EncoderOptions{Tags: tags})
package tlg
