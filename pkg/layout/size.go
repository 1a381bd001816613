package layout

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/trazo/pkg/diagram"
)

const (
	baseWidth   = 140.0
	baseHeight  = 80.0
	charWidth   = 9.0
	lineHeight  = 24.0
	wrapRunes   = 20
	padX        = 40.0
	padY        = 50.0
	descReserve = 30.0

	centralDiameter = 220.0
	ringDiameter    = 160.0
)

// EstimateSize returns the bounding box needed to draw a label and an
// optional description. Labels wrap every 20 runes.
func EstimateSize(label, description string) diagram.Size {
	n := utf8.RuneCountInString(label)
	lines := math.Ceil(float64(n) / wrapRunes)
	textW := float64(min(n, wrapRunes)) * charWidth
	textH := lines * lineHeight

	h := textH + padY
	if description != "" {
		h += descReserve
	}
	return diagram.Size{
		W: math.Max(baseWidth, textW+padX),
		H: math.Max(baseHeight, h),
	}
}

// square returns a size with both sides equal to the larger of s and d.
func square(s diagram.Size, d float64) diagram.Size {
	side := math.Max(d, math.Max(s.W, s.H))
	return diagram.Size{W: side, H: side}
}
