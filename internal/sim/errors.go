package sim

import "errors"

// ErrParameterBounds indicates a configuration value outside its valid range.
var ErrParameterBounds = errors.New("sim: parameter out of valid bounds")
