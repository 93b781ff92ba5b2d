package commands

import (
	"github.com/spf13/cobra"

	"github.com/Souzou03/mofel/pkg/audio/pcm"
	"github.com/Souzou03/mofel/pkg/cli"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Transcribe a WAV recording",
	Long: `Send a recording to the context's transcription provider.

Examples:
  mofel transcribe request.wav
  mofel transcribe request.wav --language en-US --jq .text`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}
		t, language, err := newTranscriber(cmd.Context(), ctx)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("language") {
			language, _ = cmd.Flags().GetString("language")
		}

		samples, err := readWAV(args[0])
		if err != nil {
			return err
		}
		text, err := t.Transcribe(cmd.Context(), samples, pcm.L16Mono16K.SampleRate(), language)
		if err != nil {
			return err
		}
		return outputResult(map[string]any{
			"file":     args[0],
			"duration": cli.FormatDuration(pcm.L16Mono16K.Duration(len(samples))),
			"language": language,
			"text":     text,
		})
	},
}

func init() {
	transcribeCmd.Flags().StringP("language", "l", "", "language tag (default from context, then ja-JP)")
}
