// Package transcribe turns a spoken utterance into text.
//
// A [Transcriber] converts recorded PCM16 audio into a transcript using a
// cloud speech service. Two remote implementations are provided:
//
//   - [OpenAI]: OpenAI Whisper (whisper-1) or any compatible endpoint
//   - [Gemini]: Google Gemini multimodal models
//
// A [Recorder] captures one utterance from a live stream: it calibrates to
// the ambient noise, waits for speech and stops after a pause. [Listen]
// ties the two together the way the listen command uses them after a
// hotword.
//
// # Quick Start
//
//	t := transcribe.NewOpenAI("sk-xxx")
//	rec := transcribe.NewRecorder(capture)
//	if text, ok := transcribe.Listen(ctx, rec, t, "ja-JP"); ok {
//		fmt.Println(text)
//	}
package transcribe

import (
	"context"
	"errors"
	"strings"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "ja-JP"

var (
	// ErrUnintelligible is returned when the service heard no words.
	ErrUnintelligible = errors.New("transcribe: could not understand audio")

	// ErrUnavailable is returned when the service cannot be reached or
	// refuses the request.
	ErrUnavailable = errors.New("transcribe: service unavailable")

	// ErrEmptyAudio is returned for an empty recording.
	ErrEmptyAudio = errors.New("transcribe: empty audio")
)

// Transcriber converts speech to text.
type Transcriber interface {
	// Transcribe returns the transcript of mono PCM16 audio recorded at
	// sampleRate. language is a BCP 47 tag such as "ja-JP"; empty means
	// DefaultLanguage.
	Transcribe(ctx context.Context, audio []int16, sampleRate int, language string) (string, error)
}

// baseLanguage returns the primary subtag of a BCP 47 tag ("ja-JP" -> "ja").
func baseLanguage(tag string) string {
	if tag == "" {
		tag = DefaultLanguage
	}
	base, _, _ := strings.Cut(tag, "-")
	base, _, _ = strings.Cut(base, "_")
	return strings.ToLower(base)
}
