package transcribe

import (
	"context"
	"errors"
	"log/slog"
)

// Listen records one utterance from rec and transcribes it. Failures are
// logged and reported as ok == false; a caller that only needs the text
// can carry on listening for the next hotword.
func Listen(ctx context.Context, rec *Recorder, t Transcriber, language string) (text string, ok bool) {
	logger := rec.logger
	if logger == nil {
		logger = slog.Default()
	}

	audio, err := rec.Record(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSpeech) {
			logger.Info("no speech after hotword")
		} else if ctx.Err() == nil {
			logger.Error("recording failed", "error", err)
		}
		return "", false
	}

	text, err = t.Transcribe(ctx, audio, rec.SampleRate(), language)
	switch {
	case err == nil:
		return text, true
	case errors.Is(err, ErrUnintelligible):
		logger.Info("could not understand audio")
	case errors.Is(err, ErrUnavailable):
		logger.Warn("speech service unavailable", "error", err)
	case ctx.Err() == nil:
		logger.Error("transcription failed", "error", err)
	}
	return "", false
}
