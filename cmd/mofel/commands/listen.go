package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Souzou03/mofel/pkg/audio/stream"
	"github.com/Souzou03/mofel/pkg/cli"
	"github.com/Souzou03/mofel/pkg/transcribe"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Wait for hotwords on the microphone",
	Long: `Capture audio from the context's capture command and report every hotword heard.

Frames of the configured window length are scored every slide. With several
hotwords the best match above its own threshold wins. With --transcribe the
utterance following each hotword is recorded and transcribed.

With --json every detection is printed as one JSON object per line.

Examples:
  mofel listen
  mofel listen --transcribe
  mofel listen --once --json`,
	RunE: runListen,
}

// listenEvent is one detection reported by listen.
type listenEvent struct {
	Time       time.Time `json:"time" yaml:"time"`
	Hotword    string    `json:"hotword" yaml:"hotword"`
	Score      float32   `json:"score" yaml:"score"`
	Transcript string    `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

func runListen(cmd *cobra.Command, args []string) error {
	once, _ := cmd.Flags().GetBool("once")
	withTranscript, _ := cmd.Flags().GetBool("transcribe")
	unsafe, _ := cmd.Flags().GetBool("unsafe")

	ctx, err := getContext()
	if err != nil {
		return err
	}

	c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := openModel(ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	detectors, err := openDetectors(c, ctx, m, store)
	if err != nil {
		return err
	}
	arb, err := newArbiter(m, detectors)
	if err != nil {
		return err
	}

	var (
		t        transcribe.Transcriber
		language string
	)
	if withTranscript {
		if t, language, err = newTranscriber(c, ctx); err != nil {
			return err
		}
	}

	capture, audio, err := openMicrophone(c, ctx)
	if err != nil {
		return err
	}
	defer capture.Close()
	go func() {
		<-c.Done()
		capture.Close()
	}()

	fmt.Fprintln(os.Stderr, cli.DefaultStyles.Banner("mofel is listening",
		"hotwords: "+strings.Join(arb.labels(), ", "),
		"capture:  "+capture.Name()))

	window := stream.NewWindow(audio, windowOptions(ctx)...)
	for {
		frame, err := window.Frame(c)
		if err != nil {
			if c.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		d, score, err := arb.best(frame, unsafe)
		if err != nil {
			slog.Warn("scoring failed", "error", err)
			continue
		}
		if d == nil {
			continue
		}

		ev := listenEvent{Time: time.Now(), Hotword: d.Label(), Score: score}
		if !outputJSON {
			fmt.Println(cli.DefaultStyles.Detection(d.Label(), score, d.Threshold()))
		}
		if t != nil {
			rec := transcribe.NewRecorder(audio)
			if text, ok := transcribe.Listen(c, rec, t, language); ok {
				ev.Transcript = text
				if !outputJSON {
					cli.PrintInfo("%s", text)
				}
			}
			// The window still holds audio from before the utterance.
			window = stream.NewWindow(audio, windowOptions(ctx)...)
		}
		if outputJSON {
			if err := json.NewEncoder(os.Stdout).Encode(ev); err != nil {
				return err
			}
		}
		if once {
			return nil
		}
	}
}

func init() {
	listenCmd.Flags().Bool("once", false, "exit after the first detection")
	listenCmd.Flags().Bool("transcribe", false, "transcribe the utterance after each hotword")
	listenCmd.Flags().Bool("unsafe", false, "score frames with an abrupt onset")
}
