package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Souzou03/mofel/pkg/audio/pcm"
)

// Default window geometry.
const (
	DefaultLength = 1500 * time.Millisecond
	DefaultSlide  = 750 * time.Millisecond
)

// Window is a sliding frame source over a PCM16 reader. It is not safe for
// concurrent use.
type Window struct {
	r      io.Reader
	format pcm.Format
	length time.Duration
	slide  time.Duration

	frame []int16
	buf   []byte
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithLength sets the frame length (default 1.5s).
func WithLength(d time.Duration) WindowOption {
	return func(w *Window) {
		if d > 0 {
			w.length = d
		}
	}
}

// WithSlide sets how far consecutive frames advance (default 0.75s). A
// slide longer than the frame skips audio between frames.
func WithSlide(d time.Duration) WindowOption {
	return func(w *Window) {
		if d > 0 {
			w.slide = d
		}
	}
}

// WithFormat sets the input format (default 16 kHz mono).
func WithFormat(f pcm.Format) WindowOption {
	return func(w *Window) { w.format = f }
}

// NewWindow creates a Window reading from r.
func NewWindow(r io.Reader, opts ...WindowOption) *Window {
	w := &Window{
		r:      r,
		format: pcm.L16Mono16K,
		length: DefaultLength,
		slide:  DefaultSlide,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Length returns the frame length.
func (w *Window) Length() time.Duration { return w.length }

// Slide returns the frame advance.
func (w *Window) Slide() time.Duration { return w.slide }

// Frame blocks until the next frame is available and returns it. The
// returned slice is owned by the caller. At the end of the input Frame
// returns io.EOF; a trailing partial frame is dropped.
//
// The context is checked between reads. To interrupt a read blocked on a
// live source, close the source.
func (w *Window) Frame(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := w.format.SamplesInDuration(w.length)
	if w.frame == nil {
		samples, err := w.read(n)
		if err != nil {
			return nil, err
		}
		w.frame = samples
		return cloneFrame(w.frame), nil
	}

	step := w.format.SamplesInDuration(w.slide)
	if step >= n {
		if err := w.discard(step - n); err != nil {
			return nil, err
		}
		samples, err := w.read(n)
		if err != nil {
			return nil, err
		}
		w.frame = samples
		return cloneFrame(w.frame), nil
	}

	samples, err := w.read(step)
	if err != nil {
		return nil, err
	}
	copy(w.frame, w.frame[step:])
	copy(w.frame[n-step:], samples)
	return cloneFrame(w.frame), nil
}

func (w *Window) read(samples int) ([]int16, error) {
	size := samples * 2
	if cap(w.buf) < size {
		w.buf = make([]byte, size)
	}
	buf := w.buf[:size]
	if _, err := io.ReadFull(w.r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("stream: read audio: %w", err)
	}
	return pcm.Int16s(buf), nil
}

func (w *Window) discard(samples int) error {
	if samples == 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, w.r, int64(samples*2)); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("stream: read audio: %w", err)
	}
	return nil
}

func cloneFrame(f []int16) []int16 {
	return append([]int16(nil), f...)
}
