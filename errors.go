package simdjson

import (
	"errors"
	"fmt"

	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
)

var (
	ErrInvalidUTF8     = jsonerr.ErrInvalidUTF8
	ErrMalformed       = jsonerr.ErrMalformed
	ErrDepth           = jsonerr.ErrDepth
	ErrCapacity        = jsonerr.ErrCapacity
	ErrAllocation      = jsonerr.ErrAllocation
	ErrInvalidArgument = jsonerr.ErrInvalidArgument
	ErrEmpty           = jsonerr.ErrEmpty

	// ErrUnsupportedTier is returned when a backend is forced on a processor
	// that lacks its instruction set.
	ErrUnsupportedTier = fmt.Errorf("%w: unsupported instruction set", jsonerr.ErrInvalidArgument)

	// ErrUnsupportedType is returned by Unmarshal for targets it cannot fill.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Error is the error type returned by every parsing operation. Offset is the
// byte position in the input, or -1.
type Error = jsonerr.Error

// ErrorOffset returns the byte offset carried by err, or -1.
func ErrorOffset(err error) int {
	return jsonerr.Offset(err)
}
