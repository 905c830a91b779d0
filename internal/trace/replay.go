package trace

import (
	"fmt"
	"math"

	"github.com/banshee-data/libtouch/internal/monitoring"
	"github.com/banshee-data/libtouch/internal/scroll"
)

// DefaultDrainFrames caps how many frames Replay keeps stepping after the
// last record while a fling is still animating.
const DefaultDrainFrames = 10000

// FrameResult is the view state observed on one render frame. X and Y are
// the accumulated position; add OvershootX/OvershootY for the predicted
// position the host would render.
type FrameResult struct {
	Timestamp  uint64  `json:"ts"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VelocityX  float64 `json:"vx"`
	VelocityY  float64 `json:"vy"`
	OvershootX float64 `json:"ox"`
	OvershootY float64 `json:"oy"`
	Animating  bool    `json:"animating"`
}

// Observe steps v to ts and captures the resulting state.
func Observe(v *scroll.View, ts uint64) FrameResult {
	v.StepFrame(ts)
	pos := v.Position()
	vel := v.Velocity()
	over := v.Overshoot()
	return FrameResult{
		Timestamp:  ts,
		X:          pos.X,
		Y:          pos.Y,
		VelocityX:  vel.X,
		VelocityY:  vel.Y,
		OvershootX: over.X,
		OvershootY: over.Y,
		Animating:  v.Animating(),
	}
}

// Absolute returns the predicted position, as View.PositionAbsolute would
// have reported it on this frame.
func (f FrameResult) Absolute() (x, y float64) {
	return f.X + f.OvershootX, f.Y + f.OvershootY
}

// Replay pushes records through v in order and returns one FrameResult
// per frame record. After the last record it keeps stepping, one frame
// interval at a time, while v is animating, up to drainFrames frames.
func Replay(v *scroll.View, records []Record, drainFrames int) ([]FrameResult, error) {
	var frames []FrameResult
	var last uint64
	for i, rec := range records {
		last = rec.Timestamp
		if rec.Kind == KindFrame {
			if rec.PredictMs != nil {
				v.SetNextFramePredict(*rec.PredictMs)
			}
			frames = append(frames, Observe(v, rec.Timestamp))
			continue
		}

		ev, _, err := rec.Event()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		v.PushEvent(ev)
	}

	interval := frameInterval(v)
	drained := 0
	for v.Animating() && drained < drainFrames {
		last += interval
		frames = append(frames, Observe(v, last))
		drained++
	}
	if v.Animating() {
		monitoring.Debugf("trace: still animating after %d drain frames", drained)
	}
	return frames, nil
}

func frameInterval(v *scroll.View) uint64 {
	ft := math.Round(v.Timing().AvgFrametime)
	if ft < 1 {
		return 1
	}
	return uint64(ft)
}
