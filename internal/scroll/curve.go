package scroll

import "math"

// Curve defaults.
const (
	DefaultAccelerateExponent = 1.34
	DefaultDecayExponent      = 0.998
	DefaultDecayThreshold     = 0.01
)

// DecayCurve maps a non-negative velocity magnitude to its value one frame
// later. Implementations must never return more than their input.
type DecayCurve interface {
	Decay(magnitude float64) float64
}

// PowerDecay raises the magnitude to Exponent each frame. m^e alone
// converges on 1 and grows values below 1, so each step takes the smaller
// of m^e and m*e: the power curve while it shrinks faster, a geometric
// fall-off by the same factor after that.
type PowerDecay struct {
	Exponent float64
}

func (p PowerDecay) Decay(m float64) float64 {
	if m <= 0 || math.IsNaN(m) {
		return 0
	}
	return math.Min(math.Pow(m, p.Exponent), m*p.Exponent)
}

// ExponentialDecay multiplies the magnitude by Factor each frame.
type ExponentialDecay struct {
	Factor float64
}

func (e ExponentialDecay) Decay(m float64) float64 {
	if m <= 0 || math.IsNaN(m) {
		return 0
	}
	return m * e.Factor
}

// Accelerate is the pan gain for an axis moving at velocity v. The curve
// acts on speed; direction comes from the pan amount.
func Accelerate(v, exponent float64) float64 {
	return math.Pow(math.Abs(v), exponent)
}
