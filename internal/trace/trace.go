// Package trace records, replays and stores streams of scroll input so the
// curves can be evaluated offline against real gestures.
package trace

import (
	"errors"
	"fmt"

	"github.com/banshee-data/libtouch/internal/scroll"
	"github.com/banshee-data/libtouch/internal/vector"
)

// Record kinds.
const (
	KindPan       = "pan"
	KindFling     = "fling"
	KindInterrupt = "interrupt"
	KindFrame     = "frame"
)

// Axis names used in recorded traces.
const (
	AxisX = "x"
	AxisY = "y"
)

// ErrUnknownKind is returned for a record whose kind is not recognised.
var ErrUnknownKind = errors.New("unknown record kind")

// Record is one line of a trace: an input event or a render frame.
type Record struct {
	Kind      string   `json:"kind"`
	Timestamp uint64   `json:"ts"`
	Axis      string   `json:"axis,omitempty"`
	Amount    int32    `json:"amount,omitempty"`
	PredictMs *float64 `json:"predict_ms,omitempty"`
}

// Validate checks that the record can be replayed.
func (r Record) Validate() error {
	switch r.Kind {
	case KindPan:
		if _, err := parseAxis(r.Axis); err != nil {
			return err
		}
	case KindFling, KindInterrupt, KindFrame:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	if r.PredictMs != nil && *r.PredictMs < 0 {
		return fmt.Errorf("predict_ms must be non-negative, got %f", *r.PredictMs)
	}
	return nil
}

// Event converts an input record into a scroll.Event. Frame records have
// no event and return ok=false.
func (r Record) Event() (ev scroll.Event, ok bool, err error) {
	switch r.Kind {
	case KindPan:
		axis, err := parseAxis(r.Axis)
		if err != nil {
			return nil, false, err
		}
		return scroll.Pan{Timestamp: r.Timestamp, Axis: axis, Amount: r.Amount}, true, nil
	case KindFling:
		return scroll.Fling{Timestamp: r.Timestamp}, true, nil
	case KindInterrupt:
		return scroll.Interrupt{Timestamp: r.Timestamp}, true, nil
	case KindFrame:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}

// FromEvent builds the record for an event.
func FromEvent(e scroll.Event) (Record, error) {
	switch e := e.(type) {
	case scroll.Pan:
		return Record{Kind: KindPan, Timestamp: e.Timestamp, Axis: axisName(e.Axis), Amount: e.Amount}, nil
	case scroll.Fling:
		return Record{Kind: KindFling, Timestamp: e.Timestamp}, nil
	case scroll.Interrupt:
		return Record{Kind: KindInterrupt, Timestamp: e.Timestamp}, nil
	default:
		return Record{}, fmt.Errorf("%w: %T", ErrUnknownKind, e)
	}
}

// Frame returns a frame record, optionally carrying a fresh prediction.
func Frame(ts uint64, predictMs *float64) Record {
	return Record{Kind: KindFrame, Timestamp: ts, PredictMs: predictMs}
}

func parseAxis(s string) (vector.Axis, error) {
	switch s {
	case AxisX, "horizontal":
		return vector.Horizontal, nil
	case AxisY, "vertical":
		return vector.Vertical, nil
	default:
		return 0, fmt.Errorf("unknown axis %q", s)
	}
}

func axisName(a vector.Axis) string {
	if a == vector.Vertical {
		return AxisY
	}
	return AxisX
}
