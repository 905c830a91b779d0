package scroll

import (
	"fmt"

	"github.com/banshee-data/libtouch/internal/eventlog"
	"github.com/banshee-data/libtouch/internal/velocity"
)

// DecayPolicy decides how the two axes interact while a fling decays.
type DecayPolicy uint8

const (
	// Conjunctive keeps decay active only while both axes are above their
	// thresholds; a settled axis freezes the other.
	Conjunctive DecayPolicy = iota
	// Independent lets each axis decay until it crosses its own threshold.
	Independent
)

func (p DecayPolicy) String() string {
	switch p {
	case Conjunctive:
		return "conjunctive"
	case Independent:
		return "independent"
	default:
		return fmt.Sprintf("DecayPolicy(%d)", uint8(p))
	}
}

// ParseDecayPolicy is the inverse of DecayPolicy.String.
func ParseDecayPolicy(s string) (DecayPolicy, error) {
	switch s {
	case "conjunctive", "":
		return Conjunctive, nil
	case "independent":
		return Independent, nil
	default:
		return 0, fmt.Errorf("unknown decay policy %q", s)
	}
}

// InputSource describes the device a view's pans come from.
type InputSource uint8

const (
	// SourceUndefined applies the acceleration curve and allows flings.
	SourceUndefined InputSource = iota
	// SourceTouchscreen tracks the finger 1:1; no acceleration.
	SourceTouchscreen
	SourceTouchpad
	SourceMousewheel
	SourceMousewheelPrecise
	// SourcePassthrough is for devices with their own acceleration and
	// momentum (trackpoints, trackballs). Pans are summed and flings ignored.
	SourcePassthrough
	// SourcePassthroughKinetic sums pans like SourcePassthrough but keeps
	// fling momentum.
	SourcePassthroughKinetic
)

var sourceNames = [...]string{
	SourceUndefined:          "undefined",
	SourceTouchscreen:        "touchscreen",
	SourceTouchpad:           "touchpad",
	SourceMousewheel:         "mousewheel",
	SourceMousewheelPrecise:  "mousewheel-precise",
	SourcePassthrough:        "passthrough",
	SourcePassthroughKinetic: "passthrough-kinetic",
}

func (s InputSource) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return fmt.Sprintf("InputSource(%d)", uint8(s))
}

// ParseInputSource is the inverse of InputSource.String.
func ParseInputSource(name string) (InputSource, error) {
	if name == "" {
		return SourceUndefined, nil
	}
	for i, n := range sourceNames {
		if n == name {
			return InputSource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input source %q", name)
}

func (s InputSource) accelerates() bool {
	switch s {
	case SourceTouchscreen, SourcePassthrough, SourcePassthroughKinetic:
		return false
	default:
		return true
	}
}

func (s InputSource) kinetic() bool {
	return s != SourcePassthrough
}

// Options tune a View. Zero-valued fields are replaced with defaults by
// NewWithOptions.
type Options struct {
	// LogCapacity is the number of pan samples kept per axis.
	LogCapacity int

	AccelerateExponent float64
	Decay              DecayCurve
	DecayThresholdX    float64
	DecayThresholdY    float64
	Policy             DecayPolicy

	// Estimator re-estimates axis velocity after each pan.
	Estimator velocity.Estimator

	Source InputSource

	// InitialX and InitialY place the viewport's top-left corner relative
	// to the content at construction, as ForceJump would.
	InitialX, InitialY int64
}

// DefaultOptions returns the tuning the curves were designed around.
func DefaultOptions() Options {
	return Options{
		LogCapacity:        eventlog.DefaultCapacity,
		AccelerateExponent: DefaultAccelerateExponent,
		Decay:              PowerDecay{Exponent: DefaultDecayExponent},
		DecayThresholdX:    DefaultDecayThreshold,
		DecayThresholdY:    DefaultDecayThreshold,
		Policy:             Conjunctive,
		Estimator:          velocity.NewRegression(velocity.DefaultWindow),
		Source:             SourceUndefined,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LogCapacity < 1 {
		o.LogCapacity = d.LogCapacity
	}
	if o.AccelerateExponent <= 0 {
		o.AccelerateExponent = d.AccelerateExponent
	}
	if o.Decay == nil {
		o.Decay = d.Decay
	}
	if o.DecayThresholdX <= 0 {
		o.DecayThresholdX = d.DecayThresholdX
	}
	if o.DecayThresholdY <= 0 {
		o.DecayThresholdY = d.DecayThresholdY
	}
	if o.Estimator == nil {
		o.Estimator = d.Estimator
	}
	return o
}
