package vector

import "golang.org/x/exp/constraints"

// Curve maps a non-negative magnitude to its value one frame later.
type Curve[T constraints.Float] interface {
	Decay(magnitude T) T
}

// CurveFunc adapts a plain function to Curve.
type CurveFunc[T constraints.Float] func(magnitude T) T

func (f CurveFunc[T]) Decay(magnitude T) T { return f(magnitude) }

// DecayActive reports whether v is decaying and both axis magnitudes are
// above their thresholds. An axis that has settled makes the predicate
// false even while the other axis is still moving.
func DecayActive[T constraints.Float](v AxisVector[T]) bool {
	return v.decaying && abs(v.X) > v.xThreshold && abs(v.Y) > v.yThreshold
}

// StepDecay advances v by one frame. While DecayActive holds, both
// magnitudes are passed through curve with their sign preserved. The
// decaying flag is cleared once both magnitudes are under threshold.
func StepDecay[T constraints.Float](v *AxisVector[T], curve Curve[T]) {
	if DecayActive(*v) {
		v.X = applySigned(v.X, curve)
		v.Y = applySigned(v.Y, curve)
	}
	v.settle()
}

// StepDecayIndependent is StepDecay with a per-axis policy: each axis
// keeps decaying while it is above its own threshold, regardless of the
// other axis.
func StepDecayIndependent[T constraints.Float](v *AxisVector[T], curve Curve[T]) {
	if v.decaying {
		if abs(v.X) > v.xThreshold {
			v.X = applySigned(v.X, curve)
		}
		if abs(v.Y) > v.yThreshold {
			v.Y = applySigned(v.Y, curve)
		}
	}
	v.settle()
}

// AnyAxisActive reports whether v is decaying and at least one axis is
// above its threshold.
func AnyAxisActive[T constraints.Float](v AxisVector[T]) bool {
	return v.decaying && (abs(v.X) > v.xThreshold || abs(v.Y) > v.yThreshold)
}

func (v *AxisVector[T]) settle() {
	if abs(v.X) < v.xThreshold && abs(v.Y) < v.yThreshold {
		v.decaying = false
	}
}

func applySigned[T constraints.Float](n T, curve Curve[T]) T {
	if n < 0 {
		return -curve.Decay(-n)
	}
	return curve.Decay(n)
}
