package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dedx/internal/sim"
)

// CurveToSVG draws the samples as a single polyline, range on x and
// stopping power on y.
func CurveToSVG(samples []sim.Sample, width, height int, strokeColor string) string {
	if len(samples) < 2 {
		return ""
	}

	minX, maxX := samples[0].Range, samples[0].Range
	minY, maxY := samples[0].StoppingPower, samples[0].StoppingPower
	for _, s := range samples {
		minX = min(minX, s.Range)
		maxX = max(maxX, s.Range)
		minY = min(minY, s.StoppingPower)
		maxY = max(maxY, s.StoppingPower)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, s := range samples {
		x := (s.Range - minX) / rangeX * float64(width)
		y := float64(height) - (s.StoppingPower-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
