package scroll

import "github.com/banshee-data/libtouch/internal/vector"

// Event is one of Pan, Fling or Interrupt.
type Event interface {
	eventTimestamp() uint64
}

// Pan is a delta on a single axis. Some input sources report axes
// independently, so each Pan carries exactly one.
type Pan struct {
	Timestamp uint64
	Axis      vector.Axis
	Amount    int32
}

// Fling signals that input has ceased and momentum should begin.
type Fling struct {
	Timestamp uint64
}

// Interrupt cancels in-flight momentum and clears recent history, for
// example when the user touches the surface again.
type Interrupt struct {
	Timestamp uint64
}

func (e Pan) eventTimestamp() uint64       { return e.Timestamp }
func (e Fling) eventTimestamp() uint64     { return e.Timestamp }
func (e Interrupt) eventTimestamp() uint64 { return e.Timestamp }

// TimestampOf returns the tick an event was stamped with.
func TimestampOf(e Event) uint64 {
	if e == nil {
		return 0
	}
	return e.eventTimestamp()
}
