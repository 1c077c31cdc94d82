package moog

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
)

const (
	defaultCutoffHz       = 1000.0
	defaultResonance      = 0.9
	defaultDrive          = 1.2
	defaultThermalVoltage = 5.0

	minCutoffHz = 1.0
	// Cutoff is kept below this fraction of the sample rate.
	maxCutoffRatio = 0.45

	// maxFeedback is the ladder loop gain at resonance 1.
	maxFeedback = 4.0

	stateLimit = 32.0
)

// Variant selects the saturation model of the ladder stages.
type Variant int

const (
	// VariantHuovilainen uses exact tanh saturation.
	VariantHuovilainen Variant = iota
	// VariantLightweight replaces tanh with a rational approximation.
	VariantLightweight
)

func (v Variant) String() string {
	switch v {
	case VariantHuovilainen:
		return "huovilainen"
	case VariantLightweight:
		return "lightweight"
	default:
		return "unknown"
	}
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	variant         Variant
	cutoffHz        float64
	resonance       float64
	normalizeOutput bool
	saturateOutput  bool
}

func defaultConfig() config {
	return config{
		variant:         VariantHuovilainen,
		cutoffHz:        defaultCutoffHz,
		resonance:       defaultResonance,
		normalizeOutput: true,
	}
}

// WithVariant selects the saturation model.
func WithVariant(variant Variant) Option {
	return func(cfg *config) error {
		if !validVariant(variant) {
			return fmt.Errorf("moog: invalid variant: %d", variant)
		}

		cfg.variant = variant

		return nil
	}
}

// WithCutoffHz sets the initial cutoff in Hz. Must be finite and > 0.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
			return err
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithResonance sets normalized resonance in [0, 1].
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(resonance, 0, 1, "resonance"); err != nil {
			return err
		}

		cfg.resonance = resonance

		return nil
	}
}

// WithNormalizeOutput enables or disables passband gain compensation for
// resonance.
func WithNormalizeOutput(enabled bool) Option {
	return func(cfg *config) error {
		cfg.normalizeOutput = enabled
		return nil
	}
}

// WithSaturatedOutput passes the output through the stage saturation, which
// bounds it to [-1, 1].
func WithSaturatedOutput(enabled bool) Option {
	return func(cfg *config) error {
		cfg.saturateOutput = enabled
		return nil
	}
}

type state struct {
	stage      [4]float64
	prevOutput float64
}

// Filter is a nonlinear 4-stage Moog ladder low-pass processor.
type Filter struct {
	sampleRate float64

	variant         Variant
	cutoffHz        float64
	resonance       float64
	normalizeOutput bool
	saturateOutput  bool

	coefficient float64
	feedback    float64
	driveScale  float64
	outputScale float64

	state state
}

// New constructs a ladder filter for sampleRate.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("moog: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if limit := sampleRate * maxCutoffRatio; cfg.cutoffHz > limit {
		return nil, fmt.Errorf("moog: cutoff must be <= %f Hz at %f Hz sample rate: %f", limit, sampleRate, cfg.cutoffHz)
	}

	f := &Filter{
		sampleRate:      sampleRate,
		variant:         cfg.variant,
		cutoffHz:        cfg.cutoffHz,
		resonance:       cfg.resonance,
		normalizeOutput: cfg.normalizeOutput,
		saturateOutput:  cfg.saturateOutput,
		driveScale:      0.5 * defaultDrive / defaultThermalVoltage,
	}
	f.updateCoefficients()

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Variant returns the saturation model.
func (f *Filter) Variant() Variant { return f.variant }

// CutoffHz returns the cutoff frequency in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Resonance returns the normalized resonance.
func (f *Filter) Resonance() float64 { return f.resonance }

// SetCutoffHz updates the cutoff. Non-finite values are ignored and finite
// values are clamped to [1 Hz, 0.45*sampleRate], so the call cannot fail.
func (f *Filter) SetCutoffHz(cutoffHz float64) {
	if !isFinite(cutoffHz) {
		return
	}

	f.cutoffHz = core.Clamp(cutoffHz, minCutoffHz, f.sampleRate*maxCutoffRatio)
	f.updateCoefficients()
}

// SetResonance updates normalized resonance in [0, 1].
func (f *Filter) SetResonance(resonance float64) error {
	if err := validateFiniteRange(resonance, 0, 1, "resonance"); err != nil {
		return err
	}

	f.resonance = resonance
	f.updateCoefficients()

	return nil
}

// Reset clears ladder state.
func (f *Filter) Reset() {
	f.state = state{}
}

// ProcessSample filters one sample.
func (f *Filter) ProcessSample(input float64) float64 {
	if !isFinite(input) {
		input = 0
	}

	sat := exactTanh
	if f.variant == VariantLightweight {
		sat = fastTanhApprox
	}

	s := &f.state
	shape := f.driveScale

	feedbackSample := 0.5 * (s.stage[3] + s.prevOutput)
	x := input - f.feedback*feedbackSample

	in := sat(shape * x)
	prev := [4]float64{
		sat(shape * s.stage[0]),
		sat(shape * s.stage[1]),
		sat(shape * s.stage[2]),
		sat(shape * s.stage[3]),
	}

	g := f.coefficient
	s.stage[0] = clipState(s.stage[0] + g*(in-prev[0]))
	s.stage[1] = clipState(s.stage[1] + g*(sat(shape*s.stage[0])-prev[1]))
	s.stage[2] = clipState(s.stage[2] + g*(sat(shape*s.stage[1])-prev[2]))
	s.stage[3] = clipState(s.stage[3] + g*(sat(shape*s.stage[2])-prev[3]))

	for i := range s.stage {
		s.stage[i] = core.FlushDenormals(s.stage[i])
	}

	s.prevOutput = s.stage[3]

	out := f.outputScale * s.stage[3]
	if f.saturateOutput {
		out = sat(out)
	}

	return sanitizeOutput(out)
}

// ProcessInPlace filters buf in place.
func (f *Filter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.ProcessSample(buf[i])
	}
}

func (f *Filter) updateCoefficients() {
	fc := f.cutoffHz / f.sampleRate

	fcr := 1.8730*fc*fc*fc + 0.4955*fc*fc - 0.6490*fc + 0.9988
	if fcr < 0 {
		fcr = 0
	}

	f.coefficient = 2 * defaultThermalVoltage * (1 - expFn(-2*math.Pi*fcr*fc))

	resonanceComp := -3.9364*fc*fc + 1.8409*fc + 0.9968
	if resonanceComp < 0 {
		resonanceComp = 0
	}

	k := maxFeedback * f.resonance
	f.feedback = k * resonanceComp

	f.outputScale = 1
	if f.normalizeOutput {
		f.outputScale = 1 + 0.5*k
	}
}

func validVariant(variant Variant) bool {
	return variant == VariantHuovilainen || variant == VariantLightweight
}

func validateFiniteRange(value, min, max float64, name string) error {
	if !isFinite(value) {
		return fmt.Errorf("moog: %s must be finite: %v", name, value)
	}

	if value < min || value > max {
		return fmt.Errorf("moog: %s must be in [%g, %g]: %f", name, min, max, value)
	}

	return nil
}

func sanitizeOutput(value float64) float64 {
	if !isFinite(value) {
		return 0
	}

	return value
}

func clipState(value float64) float64 {
	return core.Clamp(value, -stateLimit, stateLimit)
}

func exactTanh(x float64) float64 { return math.Tanh(x) }

func fastTanhApprox(x float64) float64 {
	if x > 3 {
		return 1
	}

	if x < -3 {
		return -1
	}

	x2 := x * x

	return core.Clamp(x*(27+x2)/(27+9*x2), -1, 1)
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
