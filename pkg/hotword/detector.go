package hotword

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Souzou03/mofel/pkg/refstore"
)

// SuppressedScore is the score a continuous detector reports while it is
// cooling down after an activation. It is far below any valid threshold, so
// callers treat the detector as not matching.
const SuppressedScore float32 = 0.001

// Defaults applied by New.
const (
	DefaultThreshold  float32 = 0.9
	DefaultRelaxation         = 800 * time.Millisecond
)

// Result is the outcome of scoring one audio frame.
type Result struct {
	// Match is Confidence >= the detector's threshold.
	Match bool `json:"match"`

	// Confidence is the score after cooldown suppression.
	Confidence float32 `json:"confidence"`
}

// Detector decides whether one hotword was spoken.
//
// A Detector holds mutable cooldown state and is not safe for concurrent
// use. Streams processed in parallel need their own detectors; they may
// share one Model.
type Detector struct {
	label      string
	model      Model
	profile    *Profile
	threshold  float32
	relaxation time.Duration
	continuous bool
	suppressed float32
	now        func() time.Time
	logger     *slog.Logger

	lastActivation time.Time
	activated      bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold sets the similarity cutoff (default 0.9). It must lie in
// the open interval (0, 1); New rejects anything else.
func WithThreshold(t float32) Option {
	return func(d *Detector) { d.threshold = t }
}

// WithRelaxation sets the minimum gap between two accepted activations
// (default 800ms). Only used in continuous mode. New rejects a negative
// value.
func WithRelaxation(r time.Duration) Option {
	return func(d *Detector) { d.relaxation = r }
}

// WithContinuous enables or disables cooldown suppression (default true).
// Disable it when every frame is an independent utterance.
func WithContinuous(c bool) Option {
	return func(d *Detector) { d.continuous = c }
}

// WithSuppressedScore overrides the score reported during cooldown
// (default SuppressedScore).
func WithSuppressedScore(s float32) Option {
	return func(d *Detector) { d.suppressed = s }
}

// WithClock sets the time source used for cooldown bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the logger used for activation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Detector for label from an already loaded profile.
func New(label string, model Model, profile *Profile, opts ...Option) (*Detector, error) {
	d := &Detector{
		label:      label,
		model:      model,
		profile:    profile,
		threshold:  DefaultThreshold,
		relaxation: DefaultRelaxation,
		continuous: true,
		suppressed: SuppressedScore,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if model == nil {
		return nil, configError(ErrInvalidDetector, label+": nil model", nil)
	}
	if profile == nil {
		return nil, configError(ErrInvalidDetector, label+": nil profile", nil)
	}
	if !(d.threshold > 0 && d.threshold < 1) {
		return nil, configError(ErrInvalidThreshold, fmt.Sprintf("%s: %v", label, d.threshold), nil)
	}
	if d.relaxation < 0 {
		return nil, configError(ErrInvalidRelaxation, fmt.Sprintf("%s: %v", label, d.relaxation), nil)
	}
	if profile.ModelKind != model.Kind() {
		return nil, configError(ErrModelMismatch,
			fmt.Sprintf("%s: reference %s, model %s", label, profile.ModelKind, model.Kind()), nil)
	}
	return d, nil
}

// Open loads the reference file name from store and creates a Detector.
// Each call reads the file; detectors sharing a reference do not share a
// profile.
func Open(ctx context.Context, label string, model Model, store refstore.Store, name string, opts ...Option) (*Detector, error) {
	if model == nil {
		return nil, configError(ErrInvalidDetector, label+": nil model", nil)
	}
	profile, err := LoadProfile(ctx, store, name, model)
	if err != nil {
		return nil, err
	}
	return New(label, model, profile, opts...)
}

// Label returns the hotword this detector listens for.
func (d *Detector) Label() string {
	return d.label
}

// Threshold returns the similarity cutoff.
func (d *Detector) Threshold() float32 {
	return d.threshold
}

// Relaxation returns the cooldown between activations.
func (d *Detector) Relaxation() time.Duration {
	return d.relaxation
}

// Continuous reports whether cooldown suppression is enabled.
func (d *Detector) Continuous() bool {
	return d.continuous
}

// Profile returns the reference profile.
func (d *Detector) Profile() *Profile {
	return d.profile
}

// LastActivation returns the time of the last accepted activation and
// whether there has been one.
func (d *Detector) LastActivation() (time.Time, bool) {
	return d.lastActivation, d.activated
}

func (d *Detector) String() string {
	return "Hotword: " + d.label
}

// Meets reports whether score reaches the detector's threshold.
func (d *Detector) Meets(score float32) bool {
	return score >= d.threshold
}

// ScoreEmbedding scores an embedding against the reference set.
//
// A raw score above the threshold is an activation. In continuous mode an
// activation within the relaxation window of the previous one is reported
// as the suppressed score instead, and does not restart the window.
func (d *Detector) ScoreEmbedding(vec []float32) float32 {
	score := d.model.ScoreVector(vec, d.profile.Embeddings)
	if score <= d.threshold {
		return score
	}

	now := d.now()
	if d.continuous && d.activated && now.Sub(d.lastActivation) < d.relaxation {
		return d.suppressed
	}

	if d.activated {
		d.logger.Debug("hotword activation", "hotword", d.label, "score", score, "gap", now.Sub(d.lastActivation))
	} else {
		d.logger.Debug("hotword activation", "hotword", d.label, "score", score)
	}
	d.lastActivation = now
	d.activated = true
	return score
}

// ScoreFrame embeds one audio frame and scores it.
//
// It returns a nil Result when the frame guard rejects the frame: silent
// frames always, and frames with an abrupt onset unless unsafe is set.
// Errors come only from the model, e.g. for a frame of the wrong length.
func (d *Detector) ScoreFrame(frame []int16, unsafe bool) (*Result, error) {
	if !admitFrame(frame, unsafe) {
		return nil, nil
	}
	vec, err := d.model.AudioToVector(frame)
	if err != nil {
		return nil, fmt.Errorf("hotword: %s: %w", d.label, err)
	}
	score := d.ScoreEmbedding(vec)
	return &Result{Match: d.Meets(score), Confidence: score}, nil
}
