package curve

import (
	"fmt"
	"strings"
)

type Extrapolation int

const (
	// Clamp returns the stopping power of the nearest edge sample.
	Clamp Extrapolation = iota
	// Linear extends the edge segment, floored at zero.
	Linear
)

func (e Extrapolation) String() string {
	switch e {
	case Clamp:
		return "clamp"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("extrapolation(%d)", int(e))
	}
}

func ParseExtrapolation(name string) (Extrapolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "clamp":
		return Clamp, nil
	case "linear":
		return Linear, nil
	default:
		return Clamp, fmt.Errorf("%w: %q", ErrUnknownExtrapolation, name)
	}
}
