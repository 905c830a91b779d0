package trace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/libtouch/internal/scroll"
	"github.com/banshee-data/libtouch/internal/timeutil"
)

// Player replays records in real time, stepping the view on every tick of
// its clock the way a host render loop would.
type Player struct {
	View          *scroll.View
	Clock         timeutil.Clock
	FrameInterval time.Duration
}

// Run feeds records to the view as their timestamps (milliseconds relative
// to the first record) come due and calls onFrame after each step. It
// returns nil once every record is consumed and the view has stopped
// animating, ctx.Err() if ctx is cancelled first, or an error for a record
// that cannot be turned into an event.
func (p *Player) Run(ctx context.Context, records []Record, onFrame func(FrameResult)) error {
	if p.View == nil {
		return errors.New("player has no view")
	}
	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	interval := p.FrameInterval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	var origin uint64
	if len(records) > 0 {
		origin = records[0].Timestamp
	}

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	start := clock.Now()
	next := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			elapsed := uint64(now.Sub(start).Milliseconds())
			for next < len(records) && due(records[next].Timestamp, origin, elapsed) {
				rec := records[next]
				next++
				if rec.Kind == KindFrame {
					if rec.PredictMs != nil {
						p.View.SetNextFramePredict(*rec.PredictMs)
					}
					continue
				}
				ev, _, err := rec.Event()
				if err != nil {
					return fmt.Errorf("record %d: %w", next-1, err)
				}
				p.View.PushEvent(ev)
			}

			res := Observe(p.View, origin+elapsed)
			if onFrame != nil {
				onFrame(res)
			}
			if next == len(records) && !res.Animating {
				return nil
			}
		}
	}
}

func due(ts, origin, elapsed uint64) bool {
	return ts <= origin || ts-origin <= elapsed
}
