package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/libtouch/internal/eventlog"
	"github.com/banshee-data/libtouch/internal/scroll"
	"github.com/banshee-data/libtouch/internal/velocity"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Decay curve names.
const (
	CurvePower       = "power"
	CurveExponential = "exponential"
)

// TuningConfig holds the scroll tuning knobs. Every field is optional;
// the Get* methods supply defaults for anything left unset, so partial
// files are safe.
type TuningConfig struct {
	// Event history
	LogCapacity *int `json:"log_capacity,omitempty" yaml:"log_capacity,omitempty"`

	// Velocity estimation
	Estimator       *string `json:"estimator,omitempty" yaml:"estimator,omitempty"` // hold | last-delta | regression
	EstimatorWindow *int    `json:"estimator_window,omitempty" yaml:"estimator_window,omitempty"`

	// Curves
	AccelerateExponent *float64 `json:"accelerate_exponent,omitempty" yaml:"accelerate_exponent,omitempty"`
	DecayCurve         *string  `json:"decay_curve,omitempty" yaml:"decay_curve,omitempty"` // power | exponential
	DecayExponent      *float64 `json:"decay_exponent,omitempty" yaml:"decay_exponent,omitempty"`
	DecayFactor        *float64 `json:"decay_factor,omitempty" yaml:"decay_factor,omitempty"`
	DecayThresholdX    *float64 `json:"decay_threshold_x,omitempty" yaml:"decay_threshold_x,omitempty"`
	DecayThresholdY    *float64 `json:"decay_threshold_y,omitempty" yaml:"decay_threshold_y,omitempty"`
	DecayPolicy        *string  `json:"decay_policy,omitempty" yaml:"decay_policy,omitempty"` // conjunctive | independent

	// Device
	InputSource *string  `json:"input_source,omitempty" yaml:"input_source,omitempty"`
	ScaleX      *float64 `json:"scale_x,omitempty" yaml:"scale_x,omitempty"`
	ScaleY      *float64 `json:"scale_y,omitempty" yaml:"scale_y,omitempty"`

	// Viewport offset at creation
	InitialX *int64 `json:"initial_x,omitempty" yaml:"initial_x,omitempty"`
	InitialY *int64 `json:"initial_y,omitempty" yaml:"initial_y,omitempty"`

	// Prediction, in milliseconds
	AvgFrametimeMs     *float64 `json:"avg_frametime_ms,omitempty" yaml:"avg_frametime_ms,omitempty"`
	NextFramePredictMs *float64 `json:"next_frame_predict_ms,omitempty" yaml:"next_frame_predict_ms,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a .json, .yaml or .yml file
// and validates it.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/scrollsim/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.LogCapacity != nil && *c.LogCapacity < 1 {
		return fmt.Errorf("log_capacity must be at least 1, got %d", *c.LogCapacity)
	}
	if c.EstimatorWindow != nil && *c.EstimatorWindow < 2 {
		return fmt.Errorf("estimator_window must be at least 2, got %d", *c.EstimatorWindow)
	}
	if c.Estimator != nil {
		if _, err := velocity.ByName(*c.Estimator, c.GetEstimatorWindow()); err != nil {
			return err
		}
	}
	if c.AccelerateExponent != nil && *c.AccelerateExponent <= 0 {
		return fmt.Errorf("accelerate_exponent must be positive, got %f", *c.AccelerateExponent)
	}
	if c.DecayCurve != nil && *c.DecayCurve != CurvePower && *c.DecayCurve != CurveExponential {
		return fmt.Errorf("decay_curve must be %q or %q, got %q", CurvePower, CurveExponential, *c.DecayCurve)
	}
	if c.DecayExponent != nil && (*c.DecayExponent <= 0 || *c.DecayExponent >= 1) {
		return fmt.Errorf("decay_exponent must be in (0, 1), got %f", *c.DecayExponent)
	}
	if c.DecayFactor != nil && (*c.DecayFactor <= 0 || *c.DecayFactor >= 1) {
		return fmt.Errorf("decay_factor must be in (0, 1), got %f", *c.DecayFactor)
	}
	if c.DecayThresholdX != nil && *c.DecayThresholdX <= 0 {
		return fmt.Errorf("decay_threshold_x must be positive, got %f", *c.DecayThresholdX)
	}
	if c.DecayThresholdY != nil && *c.DecayThresholdY <= 0 {
		return fmt.Errorf("decay_threshold_y must be positive, got %f", *c.DecayThresholdY)
	}
	if c.DecayPolicy != nil {
		if _, err := scroll.ParseDecayPolicy(*c.DecayPolicy); err != nil {
			return err
		}
	}
	if c.InputSource != nil {
		if _, err := scroll.ParseInputSource(*c.InputSource); err != nil {
			return err
		}
	}
	if c.AvgFrametimeMs != nil && *c.AvgFrametimeMs < 0 {
		return fmt.Errorf("avg_frametime_ms must be non-negative, got %f", *c.AvgFrametimeMs)
	}
	if c.NextFramePredictMs != nil && *c.NextFramePredictMs < 0 {
		return fmt.Errorf("next_frame_predict_ms must be non-negative, got %f", *c.NextFramePredictMs)
	}
	return nil
}

// GetLogCapacity returns the log_capacity value or the default.
func (c *TuningConfig) GetLogCapacity() int {
	if c.LogCapacity == nil {
		return eventlog.DefaultCapacity
	}
	return *c.LogCapacity
}

// GetEstimator returns the estimator value or the default.
func (c *TuningConfig) GetEstimator() string {
	if c.Estimator == nil {
		return velocity.NameRegression
	}
	return *c.Estimator
}

// GetEstimatorWindow returns the estimator_window value or the default.
func (c *TuningConfig) GetEstimatorWindow() int {
	if c.EstimatorWindow == nil {
		return velocity.DefaultWindow
	}
	return *c.EstimatorWindow
}

// GetAccelerateExponent returns the accelerate_exponent value or the default.
func (c *TuningConfig) GetAccelerateExponent() float64 {
	if c.AccelerateExponent == nil {
		return scroll.DefaultAccelerateExponent
	}
	return *c.AccelerateExponent
}

// GetDecayCurve returns the decay_curve value or the default.
func (c *TuningConfig) GetDecayCurve() string {
	if c.DecayCurve == nil {
		return CurvePower
	}
	return *c.DecayCurve
}

// GetDecayExponent returns the decay_exponent value or the default.
func (c *TuningConfig) GetDecayExponent() float64 {
	if c.DecayExponent == nil {
		return scroll.DefaultDecayExponent
	}
	return *c.DecayExponent
}

// GetDecayFactor returns the decay_factor value or the default.
func (c *TuningConfig) GetDecayFactor() float64 {
	if c.DecayFactor == nil {
		return 0.95
	}
	return *c.DecayFactor
}

// GetDecayThresholdX returns the decay_threshold_x value or the default.
func (c *TuningConfig) GetDecayThresholdX() float64 {
	if c.DecayThresholdX == nil {
		return scroll.DefaultDecayThreshold
	}
	return *c.DecayThresholdX
}

// GetDecayThresholdY returns the decay_threshold_y value or the default.
func (c *TuningConfig) GetDecayThresholdY() float64 {
	if c.DecayThresholdY == nil {
		return scroll.DefaultDecayThreshold
	}
	return *c.DecayThresholdY
}

// GetDecayPolicy returns the decay_policy value or the default.
func (c *TuningConfig) GetDecayPolicy() string {
	if c.DecayPolicy == nil {
		return scroll.Conjunctive.String()
	}
	return *c.DecayPolicy
}

// GetInputSource returns the input_source value or the default.
func (c *TuningConfig) GetInputSource() string {
	if c.InputSource == nil {
		return scroll.SourceUndefined.String()
	}
	return *c.InputSource
}

// GetScaleX returns the scale_x value or the default.
func (c *TuningConfig) GetScaleX() float64 {
	if c.ScaleX == nil {
		return 1
	}
	return *c.ScaleX
}

// GetInitialX returns the initial_x value or the default.
func (c *TuningConfig) GetInitialX() int64 {
	if c.InitialX == nil {
		return 0
	}
	return *c.InitialX
}

// GetInitialY returns the initial_y value or the default.
func (c *TuningConfig) GetInitialY() int64 {
	if c.InitialY == nil {
		return 0
	}
	return *c.InitialY
}

// GetScaleY returns the scale_y value or the default.
func (c *TuningConfig) GetScaleY() float64 {
	if c.ScaleY == nil {
		return 1
	}
	return *c.ScaleY
}

// GetAvgFrametimeMs returns the avg_frametime_ms value or the default.
func (c *TuningConfig) GetAvgFrametimeMs() float64 {
	if c.AvgFrametimeMs == nil {
		return 16.0
	}
	return *c.AvgFrametimeMs
}

// GetNextFramePredictMs returns the next_frame_predict_ms value or the default.
func (c *TuningConfig) GetNextFramePredictMs() float64 {
	if c.NextFramePredictMs == nil {
		return 4.0
	}
	return *c.NextFramePredictMs
}

// ScrollOptions builds scroll.Options from the tuning values.
func (c *TuningConfig) ScrollOptions() (scroll.Options, error) {
	est, err := velocity.ByName(c.GetEstimator(), c.GetEstimatorWindow())
	if err != nil {
		return scroll.Options{}, err
	}
	policy, err := scroll.ParseDecayPolicy(c.GetDecayPolicy())
	if err != nil {
		return scroll.Options{}, err
	}
	source, err := scroll.ParseInputSource(c.GetInputSource())
	if err != nil {
		return scroll.Options{}, err
	}

	var curve scroll.DecayCurve = scroll.PowerDecay{Exponent: c.GetDecayExponent()}
	if c.GetDecayCurve() == CurveExponential {
		curve = scroll.ExponentialDecay{Factor: c.GetDecayFactor()}
	}

	return scroll.Options{
		LogCapacity:        c.GetLogCapacity(),
		AccelerateExponent: c.GetAccelerateExponent(),
		Decay:              curve,
		DecayThresholdX:    c.GetDecayThresholdX(),
		DecayThresholdY:    c.GetDecayThresholdY(),
		Policy:             policy,
		Estimator:          est,
		Source:             source,
		InitialX:           c.GetInitialX(),
		InitialY:           c.GetInitialY(),
	}, nil
}

// NewView builds a configured scroll.View: options, scale factors and
// prediction timing all come from c.
func (c *TuningConfig) NewView() (*scroll.View, error) {
	opts, err := c.ScrollOptions()
	if err != nil {
		return nil, err
	}
	v := scroll.NewWithOptions(opts)
	v.SetScaleFactor(c.GetScaleX(), c.GetScaleY())
	v.SetAvgFrametime(c.GetAvgFrametimeMs())
	v.SetNextFramePredict(c.GetNextFramePredictMs())
	return v, nil
}
