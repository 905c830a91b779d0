// Package scroll interprets pan, fling and interrupt events into a
// predicted two-dimensional scroll offset.
//
// A host adapts platform input into Events, calls StepFrame once per
// render tick, and reads PositionAbsolute to place content under the
// viewport. The position includes an overshoot term that accounts for the
// time left before the frame reaches the screen.
//
// A View is not safe for concurrent use. It is meant to be driven by a
// single input/render thread; callers serialise access otherwise.
package scroll

import (
	"math"

	"github.com/banshee-data/libtouch/internal/eventlog"
	"github.com/banshee-data/libtouch/internal/monitoring"
	"github.com/banshee-data/libtouch/internal/vector"
)

// DefaultTimestamp is recorded by Step when the host has no frame time.
const DefaultTimestamp uint64 = 1

// Geometry is the size of the content and of the viewport over it, in dp.
// Content smaller than the viewport is allowed.
type Geometry struct {
	ContentHeight  uint64
	ContentWidth   uint64
	ViewportHeight uint64
	ViewportWidth  uint64
}

// FrameTiming holds the prediction inputs, in milliseconds.
type FrameTiming struct {
	AvgFrametime     float64
	NextFramePredict float64
}

// PanTransform is the movement since the previous call to View.Pan.
type PanTransform struct {
	X, Y int64
	// Panned is false when the content has not moved; hosts may skip the
	// transform.
	Panned bool

	VelocityX float64
	VelocityY float64
}

// View is the scroll state of one viewport.
type View struct {
	geometry Geometry
	timing   FrameTiming

	velocity vector.AxisVector[float64]
	position vector.AxisVector[float64]

	logX *eventlog.Log[eventlog.Sample]
	logY *eventlog.Log[eventlog.Sample]

	timestamp uint64

	opts           Options
	scaleX, scaleY float64
	reportedX      int64
	reportedY      int64

	destroyed bool
}

// New creates a view with default options. Geometry and frame timing are
// zero; prediction is degenerate until they are configured.
func New() *View {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a view using opts, filling unset fields with
// defaults.
func NewWithOptions(opts Options) *View {
	opts = opts.withDefaults()
	return &View{
		velocity: vector.New(0.0, 0.0).WithThresholds(opts.DecayThresholdX, opts.DecayThresholdY),
		position: vector.New(float64(opts.InitialX), float64(opts.InitialY)),
		logX:     eventlog.New[eventlog.Sample](opts.LogCapacity),
		logY:     eventlog.New[eventlog.Sample](opts.LogCapacity),
		opts:     opts,
		scaleX:   1,
		scaleY:   1,
	}
}

// Destroy releases the view. Every later call is a no-op and queries
// return zero values.
func (v *View) Destroy() {
	if v.destroyed {
		return
	}
	*v = View{destroyed: true}
}

func (v *View) alive(op string) bool {
	if v.destroyed {
		monitoring.Logf("scroll: %s called on destroyed view", op)
		return false
	}
	return true
}

// SetGeometry replaces the geometry. Running animations are not flushed.
func (v *View) SetGeometry(contentHeight, contentWidth, viewportHeight, viewportWidth uint64) {
	if !v.alive("SetGeometry") {
		return
	}
	v.geometry = Geometry{
		ContentHeight:  contentHeight,
		ContentWidth:   contentWidth,
		ViewportHeight: viewportHeight,
		ViewportWidth:  viewportWidth,
	}
}

// SetAvgFrametime sets the assumed frame duration in ms. Set it at setup
// or when the display mode changes.
func (v *View) SetAvgFrametime(ms float64) {
	if !v.alive("SetAvgFrametime") {
		return
	}
	v.timing.AvgFrametime = sanitiseMillis("average frametime", ms)
}

// SetNextFramePredict sets how long until the current frame is presented,
// in ms. Set it before each position query.
func (v *View) SetNextFramePredict(ms float64) {
	if !v.alive("SetNextFramePredict") {
		return
	}
	v.timing.NextFramePredict = sanitiseMillis("next frame predict", ms)
}

// SetPredict sets both prediction inputs at once.
func (v *View) SetPredict(msToVsync, msAvgFrametime float64) {
	v.SetNextFramePredict(msToVsync)
	v.SetAvgFrametime(msAvgFrametime)
}

func sanitiseMillis(what string, ms float64) float64 {
	if ms < 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		monitoring.Logf("scroll: ignoring invalid %s %v, using 0", what, ms)
		return 0
	}
	return ms
}

// SetScaleFactor sets per-axis normalisation applied to pan amounts, for
// devices that report in unusual units.
func (v *View) SetScaleFactor(x, y float64) {
	if !v.alive("SetScaleFactor") {
		return
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		monitoring.Logf("scroll: ignoring non-finite scale factor (%v, %v)", x, y)
		return
	}
	v.scaleX, v.scaleY = x, y
}

// SetInputSource selects how later pans and flings are interpreted. It can
// be called at any time and is idempotent.
func (v *View) SetInputSource(src InputSource) {
	if !v.alive("SetInputSource") {
		return
	}
	v.opts.Source = src
}

// PushEvent dispatches e to PushPan, PushFling or PushInterrupt.
func (v *View) PushEvent(e Event) {
	switch e := e.(type) {
	case Pan:
		v.PushPan(e.Timestamp, e.Axis, e.Amount)
	case *Pan:
		if e != nil {
			v.PushPan(e.Timestamp, e.Axis, e.Amount)
		}
	case Fling, *Fling:
		v.PushFling()
	case Interrupt, *Interrupt:
		v.PushInterrupt()
	default:
		monitoring.Logf("scroll: ignoring unknown event %T", e)
	}
}

// PushPan records a pan delta on one axis, re-estimates that axis's
// velocity and accumulates the accelerated delta into the position.
func (v *View) PushPan(timestamp uint64, axis vector.Axis, amount int32) {
	if !v.alive("PushPan") {
		return
	}
	// Under the conjunctive policy a fling stalls once one axis settles,
	// leaving the flag set. A pan then starts a new gesture.
	if v.velocity.Decaying() && !v.Animating() {
		v.velocity.DecayStop()
	}
	delta := float64(amount)
	hist := v.logX
	if axis == vector.Vertical {
		delta *= v.scaleY
		hist = v.logY
	} else {
		delta *= v.scaleX
	}

	hist.Push(eventlog.Sample{Timestamp: timestamp, Magnitude: delta})
	v.velocity.Update(axis, v.opts.Estimator.Estimate(hist, v.velocity.At(axis)))

	gain := 1.0
	if v.opts.Source.accelerates() {
		gain = Accelerate(v.velocity.At(axis), v.opts.AccelerateExponent)
	}
	v.position.Append(axis, delta*gain)
}

// PushScroll records motion reported on both axes by one device event.
// An axis with zero motion is left untouched.
func (v *View) PushScroll(timestamp uint64, dx, dy int32) {
	if dx != 0 {
		v.PushPan(timestamp, vector.Horizontal, dx)
	}
	if dy != 0 {
		v.PushPan(timestamp, vector.Vertical, dy)
	}
}

// PushFling starts momentum decay. Passthrough sources ignore it.
func (v *View) PushFling() {
	if !v.alive("PushFling") {
		return
	}
	if !v.opts.Source.kinetic() {
		monitoring.Debugf("scroll: fling ignored for %s source", v.opts.Source)
		return
	}
	v.velocity.DecayStart()
}

// PushInterrupt cancels momentum: both logs are cleared and velocity is
// zeroed, keeping its thresholds.
func (v *View) PushInterrupt() {
	if !v.alive("PushInterrupt") {
		return
	}
	v.logX.Clear()
	v.logY.Clear()
	v.velocity = v.velocity.Zeroed()
	v.velocity.DecayStop()
}

// Animating reports whether a fling is still decaying. Hosts keep
// requesting frames while it is true even without new input.
func (v *View) Animating() bool {
	if v.destroyed {
		return false
	}
	if v.opts.Policy == Independent {
		return vector.AnyAxisActive(v.velocity)
	}
	return vector.DecayActive(v.velocity)
}

// StepFrame records timestamp as the current frame time and advances the
// velocity decay by one frame. Call it once per render tick while
// Animating is true or events are arriving.
func (v *View) StepFrame(timestamp uint64) {
	if !v.alive("StepFrame") {
		return
	}
	v.timestamp = timestamp
	if v.opts.Policy == Independent {
		vector.StepDecayIndependent(&v.velocity, v.opts.Decay)
		return
	}
	vector.StepDecay(&v.velocity, v.opts.Decay)
}

// Step is StepFrame for hosts without a frame timestamp.
func (v *View) Step() {
	v.StepFrame(DefaultTimestamp)
}

// PositionAbsolute returns the accumulated position plus the overshoot
// expected before the current frame is presented. Negative coordinates
// mean overscroll; hosts should render the gap rather than clamp.
func (v *View) PositionAbsolute() vector.AxisVector[float64] {
	return v.position.Add(v.Overshoot())
}

// Overshoot is the distance the content is expected to travel between now
// and presentation: velocity * (frametime/2 + time to page flip).
func (v *View) Overshoot() vector.AxisVector[float64] {
	timeToTarget := v.timing.AvgFrametime/2 + v.timing.NextFramePredict
	if timeToTarget == 0 {
		return vector.AxisVector[float64]{}
	}
	return vector.New(v.velocity.X*timeToTarget, v.velocity.Y*timeToTarget)
}

// Pan returns the rounded movement of PositionAbsolute since the previous
// call and advances the reporting baseline.
func (v *View) Pan() PanTransform {
	if !v.alive("Pan") {
		return PanTransform{}
	}
	abs := v.PositionAbsolute()
	x, y := int64(math.Round(abs.X)), int64(math.Round(abs.Y))
	pt := PanTransform{
		X:         x - v.reportedX,
		Y:         y - v.reportedY,
		VelocityX: v.velocity.X,
		VelocityY: v.velocity.Y,
	}
	pt.Panned = pt.X != 0 || pt.Y != 0
	v.reportedX, v.reportedY = x, y
	return pt
}

// PanPredict sets the prediction inputs and returns Pan.
func (v *View) PanPredict(msToVsync, msAvgFrametime float64) PanTransform {
	v.SetPredict(msToVsync, msAvgFrametime)
	return v.Pan()
}

// ForcePan moves the content by (dx, dy) without touching velocity or the
// event history, e.g. for a page-down key.
func (v *View) ForcePan(dx, dy int64) {
	if !v.alive("ForcePan") {
		return
	}
	v.position.X += float64(dx)
	v.position.Y += float64(dy)
}

// ForceJump moves the content to (x, y), e.g. for jumping to a line.
func (v *View) ForceJump(x, y int64) {
	if !v.alive("ForceJump") {
		return
	}
	v.position.X = float64(x)
	v.position.Y = float64(y)
}

// Overscroll returns how far PositionAbsolute lies outside
// [0, content-viewport] on each axis: negative past the start, positive
// past the end, zero inside.
func (v *View) Overscroll() vector.AxisVector[float64] {
	abs := v.PositionAbsolute()
	return vector.New(
		overscroll(abs.X, v.geometry.ContentWidth, v.geometry.ViewportWidth),
		overscroll(abs.Y, v.geometry.ContentHeight, v.geometry.ViewportHeight),
	)
}

func overscroll(pos float64, content, viewport uint64) float64 {
	var limit float64
	if content > viewport {
		limit = float64(content - viewport)
	}
	switch {
	case pos < 0:
		return pos
	case pos > limit:
		return pos - limit
	default:
		return 0
	}
}

// Position returns the accumulated position without overshoot.
func (v *View) Position() vector.AxisVector[float64] { return v.position }

// Velocity returns the current velocity vector.
func (v *View) Velocity() vector.AxisVector[float64] { return v.velocity }

// Geometry returns the configured geometry.
func (v *View) Geometry() Geometry { return v.geometry }

// Timing returns the configured frame timing.
func (v *View) Timing() FrameTiming { return v.timing }

// Timestamp returns the time recorded by the last StepFrame.
func (v *View) Timestamp() uint64 { return v.timestamp }

// Source returns the current input source.
func (v *View) Source() InputSource { return v.opts.Source }

// History returns the pan log for axis. The log is owned by the view and
// must not be modified.
func (v *View) History(axis vector.Axis) *eventlog.Log[eventlog.Sample] {
	if axis == vector.Vertical {
		return v.logY
	}
	return v.logX
}
