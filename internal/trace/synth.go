package trace

import "github.com/banshee-data/libtouch/internal/vector"

// Gesture describes a synthetic swipe: Count pans of Amount on Axis,
// Interval ticks apart, starting at Start, with a frame after each pan.
type Gesture struct {
	Axis     vector.Axis
	Start    uint64
	Count    int
	Interval uint64
	Amount   int32
	// Fling appends a fling after the last pan.
	Fling bool
	// Diagonal mirrors every pan onto the other axis.
	Diagonal bool
}

// Synthesize expands g into trace records.
func Synthesize(g Gesture) []Record {
	if g.Interval == 0 {
		g.Interval = 1
	}
	other := vector.Vertical
	if g.Axis == vector.Vertical {
		other = vector.Horizontal
	}

	records := make([]Record, 0, g.Count*3+2)
	ts := g.Start
	for i := 0; i < g.Count; i++ {
		records = append(records, Record{Kind: KindPan, Timestamp: ts, Axis: axisName(g.Axis), Amount: g.Amount})
		if g.Diagonal {
			records = append(records, Record{Kind: KindPan, Timestamp: ts, Axis: axisName(other), Amount: g.Amount})
		}
		records = append(records, Frame(ts, nil))
		ts += g.Interval
	}
	if g.Fling {
		records = append(records, Record{Kind: KindFling, Timestamp: ts})
	}
	return records
}
