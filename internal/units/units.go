// Package units fixes the base units used inside the integrators.
//
// Lengths are micrometers and energies are MeV (per nucleon). Values are
// converted to and from display units only at the edges of the program.
package units

const (
	Micrometer = 1.0
	Millimeter = 1000 * Micrometer
	MeV        = 1.0
)

// ToMicrometers converts a length in millimeters to base units.
func ToMicrometers(mm float64) float64 {
	return mm * Millimeter
}

// ToMillimeters converts a length in base units to millimeters.
func ToMillimeters(um float64) float64 {
	return um / Millimeter
}

// PerMillimeter converts a stopping power in MeV/um to MeV/mm.
func PerMillimeter(dedx float64) float64 {
	return dedx / (MeV / Millimeter)
}
