// Package vector describes two-axis magnitudes used for scroll offsets and
// velocities, together with the decay bookkeeping for momentum animation.
package vector

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number is the arithmetic and ordering capability an AxisVector needs.
type Number interface {
	constraints.Integer | constraints.Float
}

// Axis selects one component of an AxisVector.
type Axis uint8

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
}

// AxisVector is a value type holding x and y magnitudes, a per-axis
// threshold below which decay stops, and whether decay is in progress.
// Copies never alias.
type AxisVector[T Number] struct {
	X T
	Y T

	xThreshold T
	yThreshold T
	decaying   bool
}

// New returns a vector with the given magnitudes and zero thresholds.
func New[T Number](x, y T) AxisVector[T] {
	return AxisVector[T]{X: x, Y: y}
}

// WithThresholds returns a copy of v with new decay thresholds.
func (v AxisVector[T]) WithThresholds(x, y T) AxisVector[T] {
	v.xThreshold = x
	v.yThreshold = y
	return v
}

// Thresholds returns the decay-stop thresholds for x and y.
func (v AxisVector[T]) Thresholds() (x, y T) {
	return v.xThreshold, v.yThreshold
}

// Decaying reports whether a fling has started and not yet settled.
func (v AxisVector[T]) Decaying() bool {
	return v.decaying
}

// Difference subtracts other component-wise. Thresholds and the decaying
// flag come from v.
func (v AxisVector[T]) Difference(other AxisVector[T]) AxisVector[T] {
	v.X -= other.X
	v.Y -= other.Y
	return v
}

// Add sums component-wise. Thresholds and the decaying flag come from v.
func (v AxisVector[T]) Add(other AxisVector[T]) AxisVector[T] {
	v.X += other.X
	v.Y += other.Y
	return v
}

// Zeroed returns v with both magnitudes set to zero, metadata preserved.
func (v AxisVector[T]) Zeroed() AxisVector[T] {
	var zero T
	v.X, v.Y = zero, zero
	return v
}

// Update overwrites the magnitude on axis.
func (v *AxisVector[T]) Update(axis Axis, magnitude T) {
	switch axis {
	case Horizontal:
		v.X = magnitude
	case Vertical:
		v.Y = magnitude
	}
}

// Append adds magnitude to axis.
func (v *AxisVector[T]) Append(axis Axis, magnitude T) {
	switch axis {
	case Horizontal:
		v.X += magnitude
	case Vertical:
		v.Y += magnitude
	}
}

// At reads the magnitude on axis.
func (v AxisVector[T]) At(axis Axis) T {
	if axis == Vertical {
		return v.Y
	}
	return v.X
}

// DecayStart marks the vector as decaying.
func (v *AxisVector[T]) DecayStart() {
	v.decaying = true
}

// DecayStop clears the decaying flag.
func (v *AxisVector[T]) DecayStop() {
	v.decaying = false
}

func (v AxisVector[T]) String() string {
	return fmt.Sprintf("(%v, %v)", v.X, v.Y)
}

func abs[T Number](n T) T {
	if n < 0 {
		return -n
	}
	return n
}
