// Package wav reads and writes 16-bit PCM RIFF/WAV data.
//
// Only uncompressed 16-bit PCM is supported, which is what capture tools
// such as arecord and sox produce and what transcription services accept.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotWAV is returned when the input is not a RIFF/WAVE stream.
	ErrNotWAV = errors.New("wav: not a RIFF/WAVE stream")

	// ErrUnsupported is returned for encodings other than 16-bit PCM.
	ErrUnsupported = errors.New("wav: unsupported encoding")
)

const headerSize = 44

// Audio is decoded WAV content. Samples are interleaved when Channels > 1.
type Audio struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames returns the number of sample frames (samples per channel).
func (a *Audio) Frames() int {
	if a.Channels == 0 {
		return 0
	}
	return len(a.Samples) / a.Channels
}

type format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Read decodes a WAV stream. Chunks other than "fmt " and "data" are
// skipped.
func Read(r io.Reader) (*Audio, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("wav: read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		f     format
		haveF bool
	)
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				if !haveF {
					return nil, errors.New("wav: missing fmt chunk")
				}
				return nil, errors.New("wav: missing data chunk")
			}
			return nil, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("wav: fmt chunk too short (%d bytes)", size)
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return nil, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			if err := skip(r, int64(size-16)+int64(size%2)); err != nil {
				return nil, err
			}
			if f.AudioFormat != 1 || f.BitsPerSample != 16 {
				return nil, fmt.Errorf("%w: format %d, %d bits", ErrUnsupported, f.AudioFormat, f.BitsPerSample)
			}
			if f.Channels == 0 || f.SampleRate == 0 {
				return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupported, f.Channels, f.SampleRate)
			}
			haveF = true

		case "data":
			if !haveF {
				return nil, errors.New("wav: data chunk before fmt chunk")
			}
			data := make([]byte, size)
			n, err := io.ReadFull(r, data)
			// Streaming writers often leave a placeholder size; accept a
			// short final chunk.
			if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("wav: read data chunk: %w", err)
			}
			data = data[:n-n%(2*int(f.Channels))]
			samples := make([]int16, len(data)/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
			}
			return &Audio{
				SampleRate: int(f.SampleRate),
				Channels:   int(f.Channels),
				Samples:    samples,
			}, nil

		default:
			if err := skip(r, int64(size)+int64(size%2)); err != nil {
				return nil, err
			}
		}
	}
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write encodes interleaved 16-bit samples as a canonical 44-byte-header
// WAV stream.
func Write(w io.Writer, samples []int16, sampleRate, channels int) error {
	dataLen := len(samples) * 2
	header := make([]byte, headerSize, headerSize+dataLen)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	buf := header
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	_, err := w.Write(buf)
	return err
}

// Encode returns samples as WAV bytes.
func Encode(samples []int16, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	Write(&buf, samples, sampleRate, channels)
	return buf.Bytes()
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("wav: skip chunk: %w", err)
	}
	return nil
}
