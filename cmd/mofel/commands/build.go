package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Souzou03/mofel/pkg/audio/resample"
	"github.com/Souzou03/mofel/pkg/audio/stream"
	"github.com/Souzou03/mofel/pkg/audio/wav"
	"github.com/Souzou03/mofel/pkg/cli"
	"github.com/Souzou03/mofel/pkg/hotword"
	"github.com/Souzou03/mofel/pkg/model"
	"github.com/Souzou03/mofel/pkg/refstore"
	"github.com/Souzou03/mofel/pkg/transcribe"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

// openStore returns the reference storage of ctx. Without storage settings
// references are read from ~/.mofel/mofel/references.
func openStore(ctx *cli.Context) (refstore.Store, error) {
	st := ctx.Storage
	if st != nil && st.Bucket != "" {
		client := refstore.NewS3Client(refstore.S3Config{
			Region:    st.Region,
			Endpoint:  st.Endpoint,
			AccessKey: st.AccessKey,
			SecretKey: st.SecretKey,
			PathStyle: st.PathStyle,
		})
		return refstore.NewBucket(client, st.Bucket, st.Prefix), nil
	}

	var dir string
	if st != nil {
		dir = st.Dir
	}
	if dir == "" {
		paths, err := cli.NewPaths(appName)
		if err != nil {
			return nil, err
		}
		dir = paths.ReferenceDir()
	}
	return refstore.NewDir(expandHome(dir))
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}

// openModel returns the embedding sidecar client of ctx. The connection is
// made on the first frame.
func openModel(ctx *cli.Context) (*model.Remote, error) {
	mc := ctx.Model
	if mc == nil || mc.Endpoint == "" {
		return nil, fmt.Errorf("context %q has no model endpoint. Use 'mofel config add-context %s --model-endpoint ...'", ctx.Name, ctx.Name)
	}
	kind, err := hotword.ParseModelKind(mc.Kind)
	if err != nil {
		return nil, fmt.Errorf("context %q: %w", ctx.Name, err)
	}
	opts := []model.RemoteOption{model.WithLogger(slog.Default())}
	if mc.Timeout > 0 {
		opts = append(opts, model.WithTimeout(time.Duration(mc.Timeout)*time.Millisecond))
	}
	return model.NewRemote(mc.Endpoint, kind, opts...), nil
}

// hotwordOptions maps configured overrides to detector options; unset
// fields keep the detector defaults.
func hotwordOptions(h cli.HotwordConfig) []hotword.Option {
	opts := []hotword.Option{hotword.WithLogger(slog.Default())}
	if h.Threshold != 0 {
		opts = append(opts, hotword.WithThreshold(h.Threshold))
	}
	if h.Relaxation != 0 {
		opts = append(opts, hotword.WithRelaxation(h.RelaxationDuration()))
	}
	if h.Continuous != nil {
		opts = append(opts, hotword.WithContinuous(*h.Continuous))
	}
	return opts
}

// openDetectors loads one detector per configured hotword, in config
// order. extra options are applied after the configured ones.
func openDetectors(c context.Context, ctx *cli.Context, m hotword.Model, store refstore.Store, extra ...hotword.Option) ([]*hotword.Detector, error) {
	if len(ctx.Hotwords) == 0 {
		return nil, fmt.Errorf("context %q has no hotwords. Use 'mofel config add-hotword'", ctx.Name)
	}
	detectors := make([]*hotword.Detector, 0, len(ctx.Hotwords))
	for _, h := range ctx.Hotwords {
		opts := append(hotwordOptions(h), extra...)
		d, err := hotword.Open(c, h.Label, m, store, h.Reference, opts...)
		if err != nil {
			return nil, err
		}
		detectors = append(detectors, d)
	}
	return detectors, nil
}

// arbiter picks the hotword heard in a frame. A single hotword is scored
// by its detector directly; several go through a MultiDetector.
type arbiter struct {
	single *hotword.Detector
	multi  *hotword.MultiDetector
}

func newArbiter(m hotword.Model, detectors []*hotword.Detector) (*arbiter, error) {
	switch len(detectors) {
	case 0:
		return nil, fmt.Errorf("no hotwords to listen for")
	case 1:
		return &arbiter{single: detectors[0]}, nil
	}
	multi, err := hotword.NewMulti(m, detectors...)
	if err != nil {
		return nil, err
	}
	return &arbiter{multi: multi}, nil
}

// best returns the winning detector and its score, or a nil detector.
func (a *arbiter) best(frame []int16, unsafe bool) (*hotword.Detector, float32, error) {
	if a.multi != nil {
		return a.multi.FindBestMatch(frame, unsafe)
	}
	res, err := a.single.ScoreFrame(frame, unsafe)
	if err != nil || res == nil || !res.Match {
		return nil, 0, err
	}
	return a.single, res.Confidence, nil
}

// all returns every matching detector, best first.
func (a *arbiter) all(frame []int16, unsafe bool) ([]hotword.Match, error) {
	if a.multi != nil {
		return a.multi.FindAllMatches(frame, unsafe)
	}
	d, score, err := a.best(frame, unsafe)
	if d == nil {
		return nil, err
	}
	return []hotword.Match{{Detector: d, Score: score}}, nil
}

func (a *arbiter) labels() []string {
	if a.multi != nil {
		return a.multi.Labels()
	}
	return []string{a.single.Label()}
}

// newTranscriber returns the transcription client of ctx and the language
// to request.
func newTranscriber(c context.Context, ctx *cli.Context) (transcribe.Transcriber, string, error) {
	tc := ctx.Transcribe
	if tc == nil || tc.Provider == "" {
		return nil, "", fmt.Errorf("context %q has no transcription provider. Use 'mofel config add-context %s --transcribe-provider openai --api-key ...'", ctx.Name, ctx.Name)
	}
	if tc.APIKey == "" {
		return nil, "", fmt.Errorf("context %q has no transcription API key", ctx.Name)
	}
	opts := []transcribe.Option{transcribe.WithLogger(slog.Default())}
	if tc.Model != "" {
		opts = append(opts, transcribe.WithModel(tc.Model))
	}
	if tc.BaseURL != "" {
		opts = append(opts, transcribe.WithBaseURL(tc.BaseURL))
	}
	language := tc.Language
	if language == "" {
		language = transcribe.DefaultLanguage
	}

	switch tc.Provider {
	case providerOpenAI:
		return transcribe.NewOpenAI(tc.APIKey, opts...), language, nil
	case providerGemini:
		g, err := transcribe.NewGemini(c, tc.APIKey, opts...)
		if err != nil {
			return nil, "", err
		}
		return g, language, nil
	default:
		return nil, "", fmt.Errorf("unknown transcribe provider %q", tc.Provider)
	}
}

// captureSource describes the PCM the capture command of ctx produces.
func captureSource(ctx *cli.Context) resample.Source {
	src := resample.Source{SampleRate: resample.TargetRate, Channels: 1}
	if ac := ctx.Audio; ac != nil {
		if ac.SampleRate > 0 {
			src.SampleRate = ac.SampleRate
		}
		if ac.Channels > 0 {
			src.Channels = ac.Channels
		}
	}
	return src
}

// openMicrophone starts the capture command of ctx and returns it together
// with a reader of 16 kHz mono PCM16. Closing the capture ends the reader.
func openMicrophone(c context.Context, ctx *cli.Context) (*stream.Capture, io.Reader, error) {
	argv := stream.DefaultCommand
	if ctx.Audio != nil && len(ctx.Audio.Command) > 0 {
		argv = ctx.Audio.Command
	}
	capture, err := stream.StartCapture(c, argv...)
	if err != nil {
		return nil, nil, err
	}

	src := captureSource(ctx)
	if src.Passthrough() {
		return capture, capture, nil
	}
	r, err := resample.NewReader(capture, src)
	if err != nil {
		capture.Close()
		return nil, nil, err
	}
	return capture, r, nil
}

// windowOptions returns the frame length and slide of ctx.
func windowOptions(ctx *cli.Context) []stream.WindowOption {
	var opts []stream.WindowOption
	if ac := ctx.Audio; ac != nil {
		if ac.Window > 0 {
			opts = append(opts, stream.WithLength(time.Duration(ac.Window)*time.Millisecond))
		}
		if ac.Slide > 0 {
			opts = append(opts, stream.WithSlide(time.Duration(ac.Slide)*time.Millisecond))
		}
	}
	return opts
}

// frameLength returns the detection window length of ctx.
func frameLength(ctx *cli.Context) time.Duration {
	if ctx.Audio != nil && ctx.Audio.Window > 0 {
		return time.Duration(ctx.Audio.Window) * time.Millisecond
	}
	return stream.DefaultLength
}

// readWAV reads a recording and converts it to 16 kHz mono.
func readWAV(path string) ([]int16, error) {
	a, err := wav.ReadFile(path)
	if err != nil {
		return nil, err
	}
	samples, err := resample.Samples(a.Samples, resample.Source{SampleRate: a.SampleRate, Channels: a.Channels})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}
