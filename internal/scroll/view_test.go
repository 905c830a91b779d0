package scroll

import (
	"math"
	"slices"
	"testing"

	"github.com/banshee-data/libtouch/internal/eventlog"
	"github.com/banshee-data/libtouch/internal/monitoring"
	"github.com/banshee-data/libtouch/internal/vector"
	"github.com/banshee-data/libtouch/internal/velocity"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxSteps = 100000

func muteLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// newConfigured mirrors the host setup used in the scenarios: 1000x1000
// content, 500x500 viewport, 16ms frames, 4ms to page flip.
func newConfigured() *View {
	v := New()
	v.SetGeometry(1000, 1000, 500, 500)
	v.SetAvgFrametime(16)
	v.SetNextFramePredict(4)
	return v
}

// withMomentum gives both axes a velocity of 10 units/tick.
func withMomentum(v *View) {
	for ts := uint64(0); ts < 2; ts++ {
		v.PushEvent(Pan{Timestamp: ts, Axis: vector.Horizontal, Amount: 10})
		v.PushEvent(Pan{Timestamp: ts, Axis: vector.Vertical, Amount: 10})
	}
}

func TestNew_Defaults(t *testing.T) {
	v := New()

	assert.Equal(t, Geometry{}, v.Geometry())
	assert.Equal(t, FrameTiming{}, v.Timing())
	assert.False(t, v.Animating())
	assert.Equal(t, 0.0, v.PositionAbsolute().X)
	assert.Equal(t, eventlog.DefaultCapacity, v.History(vector.Horizontal).Cap())
	assert.Equal(t, SourceUndefined, v.Source())
}

func TestPositionAbsolute_ZeroVelocityIsPassThrough(t *testing.T) {
	geometries := []Geometry{
		{},
		{1000, 1000, 500, 500},
		{100, 100, 800, 800},
	}

	for _, g := range geometries {
		v := New()
		v.SetGeometry(g.ContentHeight, g.ContentWidth, g.ViewportHeight, g.ViewportWidth)
		v.SetAvgFrametime(16)
		v.SetNextFramePredict(4)
		v.ForceJump(-30, 250)

		assert.Equal(t, vector.New(0.0, 0.0), v.Overshoot())
		assert.Equal(t, v.Position(), v.PositionAbsolute())
	}
}

func TestPushPan_OnlyTouchesOneAxis(t *testing.T) {
	tests := []struct {
		name  string
		axis  vector.Axis
		other vector.Axis
	}{
		{"horizontal", vector.Horizontal, vector.Vertical},
		{"vertical", vector.Vertical, vector.Horizontal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newConfigured()
			v.PushEvent(Pan{Timestamp: 0, Axis: tt.axis, Amount: 4})
			v.PushEvent(Pan{Timestamp: 2, Axis: tt.axis, Amount: 4})

			assert.Equal(t, 2, v.History(tt.axis).Len())
			assert.Equal(t, 0, v.History(tt.other).Len())
			assert.NotZero(t, v.Position().At(tt.axis))
			assert.Zero(t, v.Position().At(tt.other))
			assert.Zero(t, v.Velocity().At(tt.other))
		})
	}
}

func TestScenario_PanAcceleration(t *testing.T) {
	v := newConfigured()

	v.PushEvent(Pan{Timestamp: 0, Axis: vector.Horizontal, Amount: 10})
	assert.Zero(t, v.Velocity().X, "one sample gives no velocity")
	assert.Zero(t, v.Position().X, "accelerate(0) is 0")

	v.PushEvent(Pan{Timestamp: 1, Axis: vector.Horizontal, Amount: 10})
	vx := v.Velocity().X
	require.InDelta(t, 10.0, vx, 1e-9)
	assert.InDelta(t, 10*Accelerate(vx, DefaultAccelerateExponent), v.Position().X, 1e-9)
	assert.InDelta(t, 10*math.Pow(10, 1.34), v.Position().X, 1e-6)
}

func TestPushPan_NegativeDirection(t *testing.T) {
	v := newConfigured()
	v.PushEvent(Pan{Timestamp: 0, Axis: vector.Vertical, Amount: -10})
	v.PushEvent(Pan{Timestamp: 1, Axis: vector.Vertical, Amount: -10})

	pos := v.PositionAbsolute()
	assert.False(t, math.IsNaN(pos.Y))
	assert.Less(t, v.Position().Y, 0.0, "negative pans scroll backwards")
	assert.Less(t, pos.Y, v.Position().Y, "overshoot follows negative velocity")
}

func TestInterrupt_ResetsEverything(t *testing.T) {
	tests := []struct {
		name  string
		setup func(v *View)
	}{
		{"idle", func(v *View) {}},
		{"panning", withMomentum},
		{"flinging", func(v *View) {
			withMomentum(v)
			v.PushEvent(Fling{Timestamp: 5})
			v.StepFrame(6)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newConfigured()
			tt.setup(v)
			v.PushEvent(Interrupt{Timestamp: 9})

			assert.Zero(t, v.Velocity().X)
			assert.Zero(t, v.Velocity().Y)
			assert.Zero(t, v.History(vector.Horizontal).Len())
			assert.Zero(t, v.History(vector.Vertical).Len())
			assert.False(t, v.Animating())

			tx, ty := v.Velocity().Thresholds()
			assert.Equal(t, DefaultDecayThreshold, tx)
			assert.Equal(t, DefaultDecayThreshold, ty)
		})
	}
}

func TestScenario_InterruptAfterFling(t *testing.T) {
	v := newConfigured()
	withMomentum(v)
	v.PushEvent(Fling{Timestamp: 5})
	require.True(t, v.Animating())

	v.PushEvent(Interrupt{Timestamp: 6})
	assert.False(t, v.Animating())
}

func TestScenario_FlingDecaysMonotonically(t *testing.T) {
	v := newConfigured()
	withMomentum(v)
	v.PushEvent(Fling{Timestamp: 5})
	require.True(t, v.Animating())

	prevX, prevY := math.Abs(v.Velocity().X), math.Abs(v.Velocity().Y)
	steps := 0
	for ts := uint64(6); v.Animating(); ts++ {
		v.StepFrame(ts)
		x, y := math.Abs(v.Velocity().X), math.Abs(v.Velocity().Y)
		require.LessOrEqual(t, x, prevX)
		require.LessOrEqual(t, y, prevY)
		prevX, prevY = x, y

		steps++
		require.Less(t, steps, maxSteps, "fling never settled")
	}

	assert.False(t, v.Velocity().Decaying())
	assert.Less(t, prevX, DefaultDecayThreshold)
	assert.Less(t, prevY, DefaultDecayThreshold)

	// stays idle without a new fling
	for ts := uint64(0); ts < 100; ts++ {
		v.StepFrame(ts)
		assert.False(t, v.Animating())
	}
	withMomentum(v)
	assert.False(t, v.Animating(), "pans alone do not restart decay")

	v.PushEvent(Fling{Timestamp: 200})
	assert.True(t, v.Animating())
}

func TestFling_SingleAxisConjunctive(t *testing.T) {
	v := newConfigured()
	v.PushEvent(Pan{Timestamp: 0, Axis: vector.Horizontal, Amount: 10})
	v.PushEvent(Pan{Timestamp: 1, Axis: vector.Horizontal, Amount: 10})
	v.PushEvent(Fling{Timestamp: 2})

	assert.False(t, v.Animating(), "settled y axis keeps the predicate false")
	before := v.Velocity().X
	v.StepFrame(3)
	assert.Equal(t, before, v.Velocity().X, "x does not decay while y is settled")
	assert.True(t, v.Velocity().Decaying())
}

func TestFling_StalledConjunctiveDecayNeedsNewFling(t *testing.T) {
	v := newConfigured()
	for ts := uint64(0); ts < 2; ts++ {
		v.PushEvent(Pan{Timestamp: ts, Axis: vector.Horizontal, Amount: 1})
		v.PushEvent(Pan{Timestamp: ts, Axis: vector.Vertical, Amount: 10})
	}
	v.PushEvent(Fling{Timestamp: 2})

	steps := 0
	for v.Animating() {
		v.Step()
		steps++
		require.Less(t, steps, maxSteps)
	}

	// x settled first, so y is frozen above its threshold with the flag still set.
	assert.Less(t, math.Abs(v.Velocity().X), DefaultDecayThreshold)
	assert.Greater(t, math.Abs(v.Velocity().Y), DefaultDecayThreshold)
	assert.True(t, v.Velocity().Decaying())
	assert.NotZero(t, v.Overshoot().Y, "the frozen axis keeps its overshoot")

	v.PushEvent(Pan{Timestamp: 10, Axis: vector.Horizontal, Amount: 5})
	v.PushEvent(Pan{Timestamp: 11, Axis: vector.Horizontal, Amount: 5})
	assert.False(t, v.Animating(), "pans alone do not resume a stalled fling")
	assert.False(t, v.Velocity().Decaying())

	v.PushEvent(Fling{Timestamp: 12})
	assert.True(t, v.Animating())
}

func TestPushScroll(t *testing.T) {
	v := newConfigured()
	v.SetInputSource(SourceTouchscreen)

	v.PushScroll(0, 4, -6)
	assert.Equal(t, vector.New(4.0, -6.0), v.Position())
	assert.Equal(t, 1, v.History(vector.Horizontal).Len())
	assert.Equal(t, 1, v.History(vector.Vertical).Len())

	v.PushScroll(1, 0, 3)
	assert.Equal(t, 1, v.History(vector.Horizontal).Len(), "zero motion is not logged")
	assert.Equal(t, 2, v.History(vector.Vertical).Len())
	assert.Equal(t, -3.0, v.Position().Y)
}

func TestNewWithOptions_InitialOffset(t *testing.T) {
	opts := DefaultOptions()
	opts.InitialX, opts.InitialY = 40, 250
	v := NewWithOptions(opts)

	assert.Equal(t, vector.New(40.0, 250.0), v.PositionAbsolute())
	assert.Equal(t, PanTransform{X: 40, Y: 250, Panned: true}, v.Pan())
}

func TestFling_SingleAxisIndependent(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = Independent
	v := NewWithOptions(opts)
	v.PushEvent(Pan{Timestamp: 0, Axis: vector.Horizontal, Amount: 10})
	v.PushEvent(Pan{Timestamp: 1, Axis: vector.Horizontal, Amount: 10})
	v.PushEvent(Fling{Timestamp: 2})

	require.True(t, v.Animating())
	before := v.Velocity().X
	v.StepFrame(3)
	assert.Less(t, v.Velocity().X, before)

	steps := 0
	for v.Animating() {
		v.Step()
		steps++
		require.Less(t, steps, maxSteps)
	}
	assert.False(t, v.Velocity().Decaying())
	assert.Equal(t, DefaultTimestamp, v.Timestamp())
}

func TestOvershoot_LinearInTimeToTarget(t *testing.T) {
	v := New()
	withMomentum(v)
	vel := v.Velocity()

	v.SetNextFramePredict(4)
	single := v.Overshoot()
	v.SetNextFramePredict(8)
	double := v.Overshoot()

	assert.InDelta(t, 2*single.X, double.X, 1e-9)
	assert.InDelta(t, 2*single.Y, double.Y, 1e-9)

	v.SetAvgFrametime(16)
	v.SetNextFramePredict(4)
	got := v.Overshoot()
	assert.InDelta(t, vel.X*12, got.X, 1e-9)
	assert.InDelta(t, vel.Y*12, got.Y, 1e-9)
	assert.False(t, got.Decaying())
}

func TestOvershoot_NotDecayingEvenDuringFling(t *testing.T) {
	v := newConfigured()
	withMomentum(v)
	v.PushEvent(Fling{Timestamp: 3})

	assert.True(t, v.Velocity().Decaying())
	assert.False(t, v.Overshoot().Decaying())
}

func TestStepFrame_RecordsTimestamp(t *testing.T) {
	v := New()
	v.StepFrame(42)
	assert.Equal(t, uint64(42), v.Timestamp())
	v.Step()
	assert.Equal(t, DefaultTimestamp, v.Timestamp())
}

func TestSetGeometry_MidAnimation(t *testing.T) {
	v := newConfigured()
	withMomentum(v)
	v.PushEvent(Fling{Timestamp: 3})
	before := v.Velocity()

	v.SetGeometry(10, 10, 10, 10)
	assert.True(t, v.Animating())
	assert.Equal(t, before, v.Velocity())
	assert.Equal(t, Geometry{10, 10, 10, 10}, v.Geometry())
}

func TestSetters_RejectInvalidTiming(t *testing.T) {
	muteLogs(t)
	v := New()
	v.SetAvgFrametime(-1)
	v.SetNextFramePredict(math.NaN())
	assert.Equal(t, FrameTiming{}, v.Timing())

	v.SetPredict(4, 16)
	assert.Equal(t, FrameTiming{AvgFrametime: 16, NextFramePredict: 4}, v.Timing())

	v.SetNextFramePredict(math.Inf(1))
	assert.Zero(t, v.Timing().NextFramePredict)
}

func TestInputSource_Touchscreen(t *testing.T) {
	v := newConfigured()
	v.SetInputSource(SourceTouchscreen)
	v.PushEvent(Pan{Timestamp: 0, Axis: vector.Horizontal, Amount: 10})
	assert.Equal(t, 10.0, v.Position().X, "touchscreen tracks the finger 1:1")
}

func TestInputSource_PassthroughIgnoresFling(t *testing.T) {
	muteLogs(t)
	v := newConfigured()
	v.SetInputSource(SourcePassthrough)
	withMomentum(v)
	v.PushEvent(Fling{Timestamp: 3})
	assert.False(t, v.Velocity().Decaying())
	assert.Equal(t, 20.0, v.Position().X)

	v.SetInputSource(SourcePassthroughKinetic)
	v.PushEvent(Fling{Timestamp: 4})
	assert.True(t, v.Animating())
}

func TestSetScaleFactor(t *testing.T) {
	muteLogs(t)
	v := New()
	v.SetInputSource(SourceTouchscreen)
	v.SetScaleFactor(2, 0.5)
	v.PushEvent(Pan{Timestamp: 0, Axis: vector.Horizontal, Amount: 10})
	v.PushEvent(Pan{Timestamp: 0, Axis: vector.Vertical, Amount: 10})
	assert.Equal(t, 20.0, v.Position().X)
	assert.Equal(t, 5.0, v.Position().Y)

	samples := slices.Collect(v.History(vector.Horizontal).All())
	assert.Equal(t, []eventlog.Sample{{Timestamp: 0, Magnitude: 20}}, samples)

	v.SetScaleFactor(math.NaN(), 1)
	v.PushEvent(Pan{Timestamp: 1, Axis: vector.Horizontal, Amount: 1})
	assert.Equal(t, 22.0, v.Position().X, "non-finite scale is rejected")
}

func TestForcePanAndJump(t *testing.T) {
	v := newConfigured()
	v.ForcePan(0, 500)
	v.ForcePan(0, 500)
	assert.Equal(t, vector.New(0.0, 1000.0), v.Position())

	v.ForceJump(12, -40)
	assert.Equal(t, vector.New(12.0, -40.0), v.Position())
	assert.Zero(t, v.History(vector.Vertical).Len())
	assert.Zero(t, v.Velocity().Y)
}

func TestPan_ReportsRelativeMovement(t *testing.T) {
	v := New()
	assert.Equal(t, PanTransform{}, v.Pan())

	v.ForcePan(10, -3)
	got := v.Pan()
	want := PanTransform{X: 10, Y: -3, Panned: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pan() mismatch (-want +got):\n%s", diff)
	}

	got = v.Pan()
	assert.False(t, got.Panned)
	assert.Zero(t, got.X)

	withMomentum(v)
	got = v.PanPredict(4, 16)
	assert.True(t, got.Panned)
	assert.InDelta(t, 10.0, got.VelocityX, 1e-9)
	assert.InDelta(t, 10.0, got.VelocityY, 1e-9)
}

func TestOverscroll(t *testing.T) {
	tests := []struct {
		name string
		x, y int64
		want vector.AxisVector[float64]
		geom Geometry
	}{
		{"inside", 100, 200, vector.New(0.0, 0.0), Geometry{1000, 1000, 500, 500}},
		{"before start", -25, 0, vector.New(-25.0, 0.0), Geometry{1000, 1000, 500, 500}},
		{"past end", 0, 530, vector.New(0.0, 30.0), Geometry{1000, 1000, 500, 500}},
		{"content smaller than viewport", 5, 0, vector.New(5.0, 0.0), Geometry{100, 100, 500, 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.SetGeometry(tt.geom.ContentHeight, tt.geom.ContentWidth, tt.geom.ViewportHeight, tt.geom.ViewportWidth)
			v.ForceJump(tt.x, tt.y)
			assert.Equal(t, tt.want, v.Overscroll())
		})
	}
}

func TestEstimatorChoice(t *testing.T) {
	opts := DefaultOptions()
	opts.Estimator = velocity.Hold{}
	v := NewWithOptions(opts)
	withMomentum(v)

	assert.Zero(t, v.Velocity().X, "hold keeps the initial zero velocity")
	assert.Zero(t, v.Position().X)
}

func TestLogCapacityBoundsHistory(t *testing.T) {
	opts := DefaultOptions()
	opts.LogCapacity = 3
	v := NewWithOptions(opts)
	for ts := uint64(0); ts < 10; ts++ {
		v.PushPan(ts, vector.Horizontal, 1)
	}

	h := v.History(vector.Horizontal)
	assert.Equal(t, 3, h.Len())
	first, ok := h.Newest(3)
	require.True(t, ok)
	assert.Equal(t, uint64(7), first.Timestamp)
}

func TestPushEvent_PointersAndUnknown(t *testing.T) {
	muteLogs(t)
	v := newConfigured()
	v.PushEvent(&Pan{Timestamp: 0, Axis: vector.Horizontal, Amount: 1})
	v.PushEvent((*Pan)(nil))
	v.PushEvent(nil)
	assert.Equal(t, 1, v.History(vector.Horizontal).Len())

	withMomentum(v)
	v.PushEvent(&Fling{Timestamp: 3})
	assert.True(t, v.Animating())
	v.PushEvent(&Interrupt{Timestamp: 4})
	assert.False(t, v.Animating())
}

func TestTimestampOf(t *testing.T) {
	assert.Equal(t, uint64(3), TimestampOf(Pan{Timestamp: 3}))
	assert.Equal(t, uint64(4), TimestampOf(Fling{Timestamp: 4}))
	assert.Equal(t, uint64(5), TimestampOf(Interrupt{Timestamp: 5}))
	assert.Zero(t, TimestampOf(nil))
}

func TestDestroy(t *testing.T) {
	var logged int
	original := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) { logged++ })
	t.Cleanup(func() { monitoring.Logf = original })

	v := newConfigured()
	withMomentum(v)
	v.PushEvent(Fling{Timestamp: 3})
	v.Destroy()
	v.Destroy()

	assert.False(t, v.Animating())
	v.PushEvent(Pan{Timestamp: 4, Axis: vector.Horizontal, Amount: 3})
	v.StepFrame(5)
	v.SetGeometry(1, 1, 1, 1)
	assert.Equal(t, vector.AxisVector[float64]{}, v.PositionAbsolute())
	assert.Equal(t, PanTransform{}, v.Pan())
	assert.Equal(t, Geometry{}, v.Geometry())
	assert.Positive(t, logged)
}

func TestPushPan_DoesNotAllocate(t *testing.T) {
	v := newConfigured()
	ts := uint64(0)
	allocs := testing.AllocsPerRun(200, func() {
		v.PushPan(ts, vector.Horizontal, 3)
		v.StepFrame(ts)
		_ = v.PositionAbsolute()
		ts++
	})
	assert.Zero(t, allocs)
}
