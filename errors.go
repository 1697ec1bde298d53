package lz78huff

import (
	"errors"
	"fmt"
)

// Error kinds returned by this package. Lower-level causes are wrapped next to
// the kind, so errors.Is matches both, e.g. ErrCorruptData and lz78.ErrCorruptStream.
var (
	// ErrNotFound indicates the path does not exist.
	ErrNotFound = errors.New("lz78huff: not found")
	// ErrInvalidFormat indicates a bad magic number, unsupported version or a
	// value the format cannot represent.
	ErrInvalidFormat = errors.New("lz78huff: invalid format")
	// ErrCorruptData indicates a structural parse failure, an inconsistent token
	// stream or a length mismatch.
	ErrCorruptData = errors.New("lz78huff: corrupt data")
	// ErrEmptyInput indicates zero-length text where content is required.
	ErrEmptyInput = errors.New("lz78huff: empty input")
	// ErrEncoding indicates text that is not valid UTF-8.
	ErrEncoding = errors.New("lz78huff: invalid UTF-8")
	// ErrInvalidOption indicates an option value out of range.
	ErrInvalidOption = errors.New("lz78huff: invalid option")
)

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptData, fmt.Sprintf(format, args...))
}

func corruptWrap(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCorruptData, what, err)
}
