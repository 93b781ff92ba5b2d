// Package resample converts 16-bit PCM audio to the 16 kHz mono format the
// hotword models expect.
//
// Rate conversion uses a pure Go resampler; channel conversion averages
// interleaved stereo down to mono first.
//
//	r, err := resample.NewReader(capture, resample.Source{SampleRate: 48000, Channels: 2})
//	if err != nil {
//		return err
//	}
//	w := stream.NewWindow(r)
package resample

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/Souzou03/mofel/pkg/audio/pcm"
)

// TargetRate is the output sample rate.
const TargetRate = 16000

// Source describes an interleaved 16-bit little-endian PCM input.
type Source struct {
	SampleRate int
	Channels   int
}

func (s Source) frameBytes() int {
	return 2 * s.Channels
}

func (s Source) validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("resample: invalid sample rate %d", s.SampleRate)
	}
	if s.Channels != 1 && s.Channels != 2 {
		return fmt.Errorf("resample: unsupported channel count %d", s.Channels)
	}
	return nil
}

// Passthrough reports whether s is already 16 kHz mono.
func (s Source) Passthrough() bool {
	return s.SampleRate == TargetRate && s.Channels == 1
}

// chunkFrames is how many source frames are converted per read.
const chunkFrames = 4096

// Reader is an io.Reader of 16 kHz mono PCM16 produced from a source
// stream. It is not safe for concurrent use.
type Reader struct {
	src       io.Reader
	source    Source
	resampler resampling.Resampler

	in      []byte
	partial int
	out     []byte
	err     error
}

// NewReader wraps r, which yields audio in the source format.
func NewReader(r io.Reader, source Source) (*Reader, error) {
	if err := source.validate(); err != nil {
		return nil, err
	}
	rd := &Reader{
		src:    r,
		source: source,
		in:     make([]byte, chunkFrames*source.frameBytes()),
	}
	if source.SampleRate != TargetRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(source.SampleRate),
			OutputRate: TargetRate,
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
		rd.resampler = rs
	}
	return rd, nil
}

// Read fills p with converted audio. Output is always a whole number of
// samples.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) < 2 {
		return 0, io.ErrShortBuffer
	}
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}
	n := copy(p[:len(p)&^1], r.out)
	r.out = r.out[n:]
	return n, nil
}

// fill reads one chunk from the source and converts it into r.out.
func (r *Reader) fill() {
	n, err := r.src.Read(r.in[r.partial:])
	n += r.partial
	whole := n - n%r.source.frameBytes()
	if whole > 0 {
		if cerr := r.convert(r.in[:whole]); cerr != nil {
			r.err = cerr
			return
		}
	}
	r.partial = copy(r.in, r.in[whole:n])

	if err != nil {
		if errors.Is(err, io.EOF) && r.partial != 0 {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

func (r *Reader) convert(b []byte) error {
	samples := downmix(pcm.Int16s(b), r.source.Channels)
	if r.resampler == nil {
		r.out = append(r.out, pcm.Bytes(samples)...)
		return nil
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s) / 32768.0
	}
	output, err := r.resampler.Process(input)
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}
	converted := make([]int16, len(output))
	for i, s := range output {
		converted[i] = toInt16(s)
	}
	r.out = append(r.out, pcm.Bytes(converted)...)
	return nil
}

// Samples converts a complete buffer of interleaved samples.
func Samples(samples []int16, source Source) ([]int16, error) {
	if err := source.validate(); err != nil {
		return nil, err
	}
	if source.Passthrough() {
		return samples, nil
	}
	r, err := NewReader(bytes.NewReader(pcm.Bytes(samples)), source)
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return pcm.Int16s(out), nil
}

func downmix(samples []int16, channels int) []int16 {
	if channels == 1 {
		return samples
	}
	mono := make([]int16, len(samples)/channels)
	for i := range mono {
		var sum int
		for c := range channels {
			sum += int(samples[i*channels+c])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}

func toInt16(s float64) int16 {
	switch {
	case s >= 1:
		return 32767
	case s < -1:
		return -32768
	}
	return int16(s * 32767)
}
