package container

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidMagic    = errors.New("tlg: invalid format")
	ErrIndexOutOfRange = errors.New("tlg: index out of range")
)

// ColorsError reports a colors byte other than 1, 3 or 4.
type ColorsError struct {
	Colors uint8
}

func (e *ColorsError) Error() string {
	return fmt.Sprintf("tlg: unsupported color type: %d", e.Colors)
}

// MethodError reports an entropy coding method other than Golomb (0).
type MethodError struct {
	Method uint8
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("tlg: unsupported compression method: %d", e.Method)
}

// FormatError describes a stream that is well framed but cannot be
// decoded, or an image that cannot be encoded. Err, when set, is the
// lower level cause.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return "tlg: " + e.Msg + ": " + e.Err.Error()
	}
	return "tlg: " + e.Msg
}

func (e *FormatError) Unwrap() error { return e.Err }
