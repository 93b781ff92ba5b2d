package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Souzou03/mofel/pkg/audio/wav"
)

// ModelWhisper1 is OpenAI's hosted Whisper model.
const ModelWhisper1 = "whisper-1"

// OpenAI implements [Transcriber] using the OpenAI audio transcription API.
//
// It works with any OpenAI-compatible provider (for example a local
// whisper.cpp server) by setting WithBaseURL.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

var _ Transcriber = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI transcriber.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	cfg := newConfig(ModelWhisper1, opts)
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)
	return &OpenAI{client: &client, model: cfg.model, logger: cfg.logger}
}

// Model returns the transcription model identifier.
func (o *OpenAI) Model() string {
	return o.model
}

// Transcribe uploads the audio as a WAV file and returns the text.
func (o *OpenAI) Transcribe(ctx context.Context, audio []int16, sampleRate int, language string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	data := wav.Encode(audio, sampleRate, 1)
	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(data), "audio.wav", "audio/wav"),
		Model:    openai.AudioModel(o.model),
		Language: openai.String(baseLanguage(language)),
	})
	if err != nil {
		return "", o.classify(err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

func (o *OpenAI) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		o.logger.Debug("openai transcription failed", "status", apiErr.StatusCode, "error", apiErr.Message)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
