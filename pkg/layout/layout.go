package layout

import "strconv"

// DefaultPadding is the margin, in percent, kept free at both ends of the edge
// when two or more anchors share it.
const DefaultPadding = 20

// Center is the position of a lone anchor.
const Center Percentage = 50

// Percentage is a fractional offset along a node edge in the range [0, 100].
type Percentage float64

// String formats the percentage the way CSS expects it (e.g. "50%", "33.33%").
func (p Percentage) String() string {
	return strconv.FormatFloat(float64(p), 'f', -1, 64) + "%"
}

// Fraction returns p scaled to [0, 1].
func (p Percentage) Fraction() float64 {
	return float64(p) / 100
}

// Positions returns n evenly distributed positions using [DefaultPadding].
func Positions(n int) []Percentage {
	return PositionsWithPadding(n, DefaultPadding)
}

// PositionsWithPadding returns n positions spread between padding and
// 100-padding inclusive. Padding outside [0, 50) is clamped.
func PositionsWithPadding(n int, padding float64) []Percentage {
	switch {
	case n <= 0:
		return []Percentage{}
	case n == 1:
		return []Percentage{Center}
	}

	if padding < 0 {
		padding = 0
	}
	if padding >= 50 {
		padding = 49
	}

	span := 100 - 2*padding
	out := make([]Percentage, n)
	for i := range out {
		out[i] = Percentage(padding + span*float64(i)/float64(n-1))
	}
	// Pin the last slot so floating point never leaves it short of the margin.
	out[n-1] = Percentage(100 - padding)
	return out
}

// Spacer assigns positions to an ordered sequence in place.
type Spacer struct {
	Padding float64
}

// NewSpacer creates a spacer using [DefaultPadding].
func NewSpacer() Spacer {
	return Spacer{Padding: DefaultPadding}
}

// Apply computes positions for n items and hands each one to assign in order.
func (s Spacer) Apply(n int, assign func(i int, p Percentage)) {
	for i, p := range PositionsWithPadding(n, s.Padding) {
		assign(i, p)
	}
}
