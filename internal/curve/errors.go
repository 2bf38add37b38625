package curve

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCurve indicates a table with no usable points.
	ErrEmptyCurve = errors.New("curve: empty stopping-power curve")

	// ErrInvalidPoint indicates a negative or non-finite energy or stopping power.
	ErrInvalidPoint = errors.New("curve: invalid table point")

	// ErrUnknownExtrapolation indicates an unrecognized extrapolation policy name.
	ErrUnknownExtrapolation = errors.New("curve: unknown extrapolation policy")
)

// ParseError reports a malformed row of a stopping-power table file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("curve: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
