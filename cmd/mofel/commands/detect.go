package commands

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Souzou03/mofel/pkg/audio/pcm"
	"github.com/Souzou03/mofel/pkg/audio/stream"
	"github.com/Souzou03/mofel/pkg/cli"
	"github.com/Souzou03/mofel/pkg/hotword"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file.wav>",
	Short: "Score a WAV recording frame by frame",
	Long: `Slide the detection window over a recording and list the hotwords found.

The recording is converted to 16 kHz mono first. Cooldown between
activations is measured in audio time, so results match what listen would
report for the same audio.

By default each frame reports the best match only; --all lists every
hotword above its threshold, best first.

Examples:
  mofel detect sample.wav
  mofel detect sample.wav --all --json
  mofel detect sample.wav --jq '.detections[].hotword'`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

type detectResult struct {
	File       string      `json:"file" yaml:"file"`
	Duration   string      `json:"duration" yaml:"duration"`
	Frames     int         `json:"frames" yaml:"frames"`
	Detections []detection `json:"detections" yaml:"detections"`
}

type detection struct {
	Offset    string  `json:"offset" yaml:"offset"`
	Hotword   string  `json:"hotword" yaml:"hotword"`
	Score     float32 `json:"score" yaml:"score"`
	Threshold float32 `json:"threshold" yaml:"threshold"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	unsafe, _ := cmd.Flags().GetBool("unsafe")

	ctx, err := getContext()
	if err != nil {
		return err
	}
	samples, err := readWAV(args[0])
	if err != nil {
		return err
	}

	m, err := openModel(ctx)
	if err != nil {
		return err
	}
	defer m.Close()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	// Detectors see the end of the current frame as "now".
	var (
		epoch = time.Unix(0, 0)
		now   time.Duration
	)
	clock := hotword.WithClock(func() time.Time { return epoch.Add(now) })
	detectors, err := openDetectors(cmd.Context(), ctx, m, store, clock)
	if err != nil {
		return err
	}
	arb, err := newArbiter(m, detectors)
	if err != nil {
		return err
	}

	window := stream.NewWindow(bytes.NewReader(pcm.Bytes(samples)), windowOptions(ctx)...)
	result := detectResult{
		File:       args[0],
		Duration:   cli.FormatDuration(pcm.L16Mono16K.Duration(len(samples))),
		Detections: []detection{},
	}
	for i := 0; ; i++ {
		frame, err := window.Frame(cmd.Context())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		result.Frames++
		start := time.Duration(i) * window.Slide()
		now = start + window.Length()

		var matches []hotword.Match
		if all {
			matches, err = arb.all(frame, unsafe)
		} else {
			var d *hotword.Detector
			var score float32
			d, score, err = arb.best(frame, unsafe)
			if d != nil {
				matches = []hotword.Match{{Detector: d, Score: score}}
			}
		}
		if err != nil {
			return err
		}
		for _, mt := range matches {
			result.Detections = append(result.Detections, detection{
				Offset:    cli.FormatOffset(start),
				Hotword:   mt.Detector.Label(),
				Score:     mt.Score,
				Threshold: mt.Detector.Threshold(),
			})
		}
	}
	return outputResult(result)
}

func init() {
	detectCmd.Flags().Bool("all", false, "report every hotword above its threshold")
	detectCmd.Flags().Bool("unsafe", false, "score frames with an abrupt onset")
}
