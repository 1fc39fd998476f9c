package mindmap

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// LengthUnit is a unit for icon sizes.
type LengthUnit string

const (
	Pt LengthUnit = "pt"
	Px LengthUnit = "px"
	Mm LengthUnit = "mm"
	Cm LengthUnit = "cm"
	In LengthUnit = "in"
)

// points per unit
var unitPoints = map[LengthUnit]float64{
	Pt: 1,
	Px: 0.75,
	Mm: 72 / 25.4,
	Cm: 72 / 2.54,
	In: 72,
}

// Quantity is a length with a unit, e.g. "12 pt".
type Quantity struct {
	Value float64    `json:"value"`
	Unit  LengthUnit `json:"unit"`
}

// ParseQuantity parses "12 pt", "12pt" or "1.5 cm". A bare number is points.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r)
	})
	num, unit := s, Pt
	if i >= 0 {
		num, unit = strings.TrimSpace(s[:i]), LengthUnit(strings.ToLower(s[i:]))
	}
	if _, ok := unitPoints[unit]; !ok {
		return Quantity{}, fmt.Errorf("unknown length unit %q", unit)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	if v < 0 {
		return Quantity{}, fmt.Errorf("negative quantity %q", s)
	}
	return Quantity{Value: v, Unit: unit}, nil
}

// Points converts the quantity to points.
func (q Quantity) Points() float64 {
	return q.Value * unitPoints[q.Unit]
}

func (q Quantity) String() string {
	return strconv.FormatFloat(q.Value, 'f', -1, 64) + " " + string(q.Unit)
}
