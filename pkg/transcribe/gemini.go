package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/Souzou03/mofel/pkg/audio/wav"
)

// ModelGeminiFlash is the default Gemini model for transcription.
const ModelGeminiFlash = "gemini-2.5-flash"

// noSpeech is the reply the prompt asks for when nothing intelligible was
// said.
const noSpeech = "<no speech>"

const geminiPrompt = "Transcribe the speech in this audio verbatim. The expected language is %s. " +
	"Reply with the transcript only, without quotes or commentary. " +
	"If there is no intelligible speech, reply with exactly " + noSpeech + "."

// Gemini implements [Transcriber] using a Gemini multimodal model.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ Transcriber = (*Gemini)(nil)

// NewGemini creates a Gemini transcriber.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	cfg := newConfig(ModelGeminiFlash, opts)
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("transcribe: gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.model, logger: cfg.logger}, nil
}

// Model returns the Gemini model identifier.
func (g *Gemini) Model() string {
	return g.model
}

// Transcribe sends the audio inline with a transcription prompt.
func (g *Gemini) Transcribe(ctx context.Context, audio []int16, sampleRate int, language string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if language == "" {
		language = DefaultLanguage
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(geminiPrompt, language)),
			genai.NewPartFromBytes(wav.Encode(audio, sampleRate, 1), "audio/wav"),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", g.classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrUnintelligible
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" || text == noSpeech {
		return "", ErrUnintelligible
	}
	return text, nil
}

func (g *Gemini) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if e, ok := err.(*apierror.APIError); ok {
		err = e.Unwrap()
	}
	if apiErr, ok := asAPIError(err); ok {
		g.logger.Debug("gemini transcription failed", "code", apiErr.Code, "status", apiErr.Status, "error", apiErr.Message)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}
