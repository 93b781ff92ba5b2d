package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Souzou03/mofel/pkg/audio/pcm"
)

// ErrNoSpeech is returned by Recorder.Record when no utterance started
// before the wait timeout or the end of the stream.
var ErrNoSpeech = errors.New("transcribe: no speech")

// Recorder defaults.
const (
	DefaultCalibration = 500 * time.Millisecond
	DefaultPause       = time.Second
	DefaultMaxLength   = 15 * time.Second
	DefaultWait        = 5 * time.Second

	// DefaultMinEnergy is the lowest RMS that counts as speech.
	DefaultMinEnergy = 300

	chunkDuration  = 50 * time.Millisecond
	minPhrase      = 300 * time.Millisecond
	preRoll        = 300 * time.Millisecond
	energyHeadroom = 1.5
)

// Recorder captures a single utterance from a live 16 kHz mono PCM16
// stream. It is not safe for concurrent use.
type Recorder struct {
	r           io.Reader
	format      pcm.Format
	calibration time.Duration
	pause       time.Duration
	maxLength   time.Duration
	wait        time.Duration
	minEnergy   float64
	logger      *slog.Logger

	threshold float64
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithCalibration sets how long ambient noise is sampled before each
// recording (default 0.5s). Zero skips calibration.
func WithCalibration(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d >= 0 {
			r.calibration = d
		}
	}
}

// WithPause sets the trailing silence that ends an utterance (default 1s).
func WithPause(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.pause = d
		}
	}
}

// WithMaxLength bounds the utterance length (default 15s).
func WithMaxLength(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.maxLength = d
		}
	}
}

// WithWait bounds the time spent waiting for speech to start (default 5s).
func WithWait(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.wait = d
		}
	}
}

// WithMinEnergy sets the RMS floor of the speech threshold (default 300).
func WithMinEnergy(e float64) RecorderOption {
	return func(r *Recorder) {
		if e > 0 {
			r.minEnergy = e
		}
	}
}

// WithRecorderLogger sets the logger for recording diagnostics.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder creates a Recorder reading 16 kHz mono PCM16 from r.
func NewRecorder(r io.Reader, opts ...RecorderOption) *Recorder {
	rec := &Recorder{
		r:           r,
		format:      pcm.L16Mono16K,
		calibration: DefaultCalibration,
		pause:       DefaultPause,
		maxLength:   DefaultMaxLength,
		wait:        DefaultWait,
		minEnergy:   DefaultMinEnergy,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(rec)
	}
	rec.threshold = rec.minEnergy
	return rec
}

// SampleRate returns the sample rate of recorded audio.
func (r *Recorder) SampleRate() int {
	return r.format.SampleRate()
}

// Threshold returns the current speech energy threshold.
func (r *Recorder) Threshold() float64 {
	return r.threshold
}

// Record calibrates to the ambient noise, waits for speech and returns the
// utterance once a pause is heard or the maximum length is reached.
//
// All durations are measured in audio time, not wall-clock time.
func (r *Recorder) Record(ctx context.Context) ([]int16, error) {
	if err := r.calibrate(ctx); err != nil {
		return nil, err
	}

	var (
		waited  time.Duration
		pending [][]int16
		pre     = r.chunks(preRoll)
	)
	for {
		chunk, err := r.next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoSpeech
			}
			return nil, err
		}
		waited += chunkDuration
		pending = append(pending, chunk)
		if len(pending) > pre+1 {
			pending = pending[1:]
		}

		if pcm.RMS(chunk) > r.threshold {
			utt, err := r.phrase(ctx, pending)
			if err != nil {
				return nil, err
			}
			if utt != nil {
				return utt, nil
			}
			pending = nil
		}
		if waited >= r.wait {
			return nil, ErrNoSpeech
		}
	}
}

// phrase records from the first loud chunk until the pause. It returns
// nil for a phrase shorter than minPhrase, which is treated as a click.
func (r *Recorder) phrase(ctx context.Context, lead [][]int16) ([]int16, error) {
	var (
		out     []int16
		voiced  time.Duration
		quiet   time.Duration
		elapsed time.Duration
	)
	for _, c := range lead {
		out = append(out, c...)
	}
	voiced = chunkDuration

	for elapsed < r.maxLength && quiet < r.pause {
		chunk, err := r.next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		elapsed += chunkDuration
		if pcm.RMS(chunk) > r.threshold {
			voiced += chunkDuration
			quiet = 0
		} else {
			quiet += chunkDuration
		}
	}
	if voiced < minPhrase {
		r.logger.Debug("transcribe: discarding short phrase", "voiced", voiced)
		return nil, nil
	}
	// Drop the trailing silence beyond what is needed as context.
	if tail := r.format.SamplesInDuration(quiet) - r.format.SamplesInDuration(preRoll); tail > 0 && tail < len(out) {
		out = out[:len(out)-tail]
	}
	return out, nil
}

func (r *Recorder) calibrate(ctx context.Context) error {
	r.threshold = r.minEnergy
	n := r.chunks(r.calibration)
	if n == 0 {
		return nil
	}
	var sum float64
	for range n {
		chunk, err := r.next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrNoSpeech
			}
			return err
		}
		sum += pcm.RMS(chunk)
	}
	ambient := sum / float64(n)
	r.threshold = max(r.minEnergy, ambient*energyHeadroom)
	r.logger.Debug("transcribe: calibrated", "ambient", ambient, "threshold", r.threshold)
	return nil
}

func (r *Recorder) chunks(d time.Duration) int {
	return int(d / chunkDuration)
}

func (r *Recorder) next(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chunk, err := r.format.ReadSamples(r.r, chunkDuration)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("transcribe: read audio: %w", err)
	}
	return chunk, nil
}
