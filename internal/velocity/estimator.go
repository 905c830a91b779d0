// Package velocity estimates per-axis pan velocity from the recent event
// history held in an eventlog.Log.
//
// Velocities are in amount units per timestamp tick. Hosts that stamp
// events in milliseconds get units/ms, which is what overshoot prediction
// expects.
package velocity

import (
	"fmt"
	"math"

	"github.com/banshee-data/libtouch/internal/eventlog"
	"gonum.org/v1/gonum/stat"
)

// Estimator produces a new velocity for an axis after a sample has been
// pushed onto its log. current is the axis velocity before the push.
type Estimator interface {
	Estimate(log *eventlog.Log[eventlog.Sample], current float64) float64
}

// Estimator names accepted by ByName.
const (
	NameHold       = "hold"
	NameLastDelta  = "last-delta"
	NameRegression = "regression"
)

// DefaultWindow is the number of newest samples Regression fits over.
const DefaultWindow = 8

// ByName returns the estimator registered under name. window only applies
// to the regression estimator.
func ByName(name string, window int) (Estimator, error) {
	switch name {
	case NameHold:
		return Hold{}, nil
	case NameLastDelta:
		return LastDelta{}, nil
	case NameRegression, "":
		return NewRegression(window), nil
	default:
		return nil, fmt.Errorf("unknown velocity estimator %q", name)
	}
}

// Hold leaves the velocity unchanged.
type Hold struct{}

func (Hold) Estimate(_ *eventlog.Log[eventlog.Sample], current float64) float64 {
	return current
}

// LastDelta divides the newest sample's magnitude by the time since the
// sample before it.
type LastDelta struct{}

func (LastDelta) Estimate(log *eventlog.Log[eventlog.Sample], _ float64) float64 {
	newest, ok := log.Newest(1)
	if !ok {
		return 0
	}
	prev, ok := log.Newest(2)
	if !ok || newest.Timestamp <= prev.Timestamp {
		return 0
	}
	return newest.Magnitude / float64(newest.Timestamp-prev.Timestamp)
}

// Regression fits a least-squares line to cumulative displacement against
// timestamp over the newest Window samples and reports its slope.
type Regression struct {
	window int
	xs     []float64
	ys     []float64
}

// NewRegression allocates the scratch buffers up front so Estimate does
// not allocate.
func NewRegression(window int) *Regression {
	if window < 2 {
		window = DefaultWindow
	}
	return &Regression{
		window: window,
		xs:     make([]float64, 0, window),
		ys:     make([]float64, 0, window),
	}
}

// Window returns the number of samples considered.
func (r *Regression) Window() int {
	return r.window
}

func (r *Regression) Estimate(log *eventlog.Log[eventlog.Sample], _ float64) float64 {
	n := min(log.Len(), r.window)
	if n < 2 {
		return 0
	}

	r.xs = r.xs[:0]
	r.ys = r.ys[:0]
	origin, _ := log.Newest(n)
	var travelled float64
	for i := n; i >= 1; i-- {
		s, _ := log.Newest(i)
		travelled += s.Magnitude
		// Offsets from the oldest sample keep the fit well conditioned for
		// large absolute timestamps. Signed so out-of-order input stays finite.
		r.xs = append(r.xs, float64(int64(s.Timestamp-origin.Timestamp)))
		r.ys = append(r.ys, travelled)
	}

	if stat.Variance(r.xs, nil) == 0 {
		return 0
	}
	_, slope := stat.LinearRegression(r.xs, r.ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0
	}
	return slope
}
