package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/Souzou03/mofel/pkg/audio/pcm"
	"github.com/Souzou03/mofel/pkg/audio/wav"
	"github.com/Souzou03/mofel/pkg/cli"
	"github.com/Souzou03/mofel/pkg/hotword"
	"github.com/Souzou03/mofel/pkg/model"
	"github.com/Souzou03/mofel/pkg/refstore"
	"github.com/Souzou03/mofel/pkg/transcribe"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect, enroll and convert reference profiles",
	Long: `Manage hotword reference profiles.

A reference profile holds the embeddings of a few recordings of one hotword,
tagged with the model that produced them. Profiles are read from the
context's reference storage, a local directory or an S3 bucket, and may be
JSON, YAML or MessagePack depending on the file extension.`,
}

type profileInfo struct {
	Reference string `json:"reference" yaml:"reference"`
	ModelType string `json:"model_type" yaml:"model_type"`
	Samples   int    `json:"samples" yaml:"samples"`
	Dimension int    `json:"dimension" yaml:"dimension"`

	// Consistency is each embedding scored against the others; an outlier
	// recording shows up as a low value.
	Consistency []float32 `json:"consistency" yaml:"consistency"`
}

func describeProfile(name string, p *hotword.Profile) profileInfo {
	info := profileInfo{
		Reference:   name,
		ModelType:   p.ModelKind.String(),
		Samples:     len(p.Embeddings),
		Dimension:   p.Dimension(),
		Consistency: make([]float32, len(p.Embeddings)),
	}
	for i, e := range p.Embeddings {
		others := slices.Delete(slices.Clone(p.Embeddings), i, i+1)
		info.Consistency[i] = model.Similarity(e, others)
	}
	return info
}

var profileShowCmd = &cobra.Command{
	Use:   "show <reference>",
	Short: "Describe a reference profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
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
		p, err := hotword.LoadProfile(cmd.Context(), store, args[0], m)
		if err != nil {
			return err
		}
		return outputResult(describeProfile(args[0], p))
	},
}

type validation struct {
	Hotword   string `json:"hotword" yaml:"hotword"`
	Reference string `json:"reference" yaml:"reference"`
	OK        bool   `json:"ok" yaml:"ok"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the reference of every hotword in the context",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}
		if len(ctx.Hotwords) == 0 {
			return fmt.Errorf("context %q has no hotwords", ctx.Name)
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

		var (
			results []validation
			failed  int
		)
		for _, h := range ctx.Hotwords {
			v := validation{Hotword: h.Label, Reference: h.Reference, OK: true}
			if _, err := hotword.Open(cmd.Context(), h.Label, m, store, h.Reference, hotwordOptions(h)...); err != nil {
				v.OK, v.Error = false, err.Error()
				failed++
			}
			results = append(results, v)
		}
		if err := outputResult(results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d hotwords have an invalid reference", failed, len(results))
		}
		return nil
	},
}

var profileEnrollCmd = &cobra.Command{
	Use:   "enroll <label> <file.wav>...",
	Short: "Build a reference profile from recordings",
	Long: fmt.Sprintf(`Embed recordings of a hotword with the context's model and store the result.

Each recording is converted to 16 kHz mono and fitted to the detection
window: longer recordings keep their loudest window, shorter ones are
padded with silence. At least %d recordings are required.

Unless --register=false is given the hotword is added to the context.

Examples:
  mofel profile enroll mofel take1.wav take2.wav take3.wav take4.wav
  mofel profile enroll mofel takes/*.wav --reference mofel/model/mofel_ref.msgpack`, hotword.MinReferenceSamples),
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, files := args[0], args[1:]
		name, _ := cmd.Flags().GetString("reference")
		register, _ := cmd.Flags().GetBool("register")
		if name == "" {
			name = label + "_ref.json"
		}
		if len(files) < hotword.MinReferenceSamples {
			return fmt.Errorf("need at least %d recordings, got %d", hotword.MinReferenceSamples, len(files))
		}

		ctx, err := getContext()
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

		frameLen := pcm.L16Mono16K.SamplesInDuration(frameLength(ctx))
		embeddings := make([][]float32, 0, len(files))
		for _, f := range files {
			samples, err := readWAV(f)
			if err != nil {
				return err
			}
			vec, err := m.Embed(cmd.Context(), fitFrame(samples, frameLen))
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			embeddings = append(embeddings, vec)
		}

		p, err := hotword.ProfileFromEmbeddings(embeddings, m.Kind().String(), m)
		if err != nil {
			return err
		}
		if err := saveProfile(cmd.Context(), store, name, p); err != nil {
			return err
		}

		if register {
			h, _ := ctx.Hotword(label)
			h.Label, h.Reference = label, name
			ctx.SetHotword(h)
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		return outputResult(describeProfile(name, p))
	},
}

// fitFrame returns exactly n samples: the loudest n-sample window of a
// longer recording, or the recording padded with silence.
func fitFrame(samples []int16, n int) []int16 {
	if len(samples) <= n {
		out := make([]int16, n)
		copy(out, samples)
		return out
	}
	step := max(n/10, 1)
	best, bestRMS := 0, -1.0
	for off := 0; off+n <= len(samples); off += step {
		if rms := pcm.RMS(samples[off : off+n]); rms > bestRMS {
			best, bestRMS = off, rms
		}
	}
	return slices.Clone(samples[best : best+n])
}

func saveProfile(c context.Context, store refstore.Store, name string, p *hotword.Profile) error {
	w, err := store.Create(c, name)
	if err != nil {
		return err
	}
	if err := hotword.EncodeProfile(w, refstore.Ext(name), p); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

var profileRecordCmd = &cobra.Command{
	Use:   "record <label>",
	Short: "Record enrollment takes from the microphone",
	Long: `Record takes of a hotword from the context's capture command.

Each take is saved as <dir>/<label>-<n>.wav, ready for 'mofel profile enroll'.

Examples:
  mofel profile record mofel
  mofel profile record mofel --count 6 --dir ./takes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]
		count, _ := cmd.Flags().GetInt("count")
		dir, _ := cmd.Flags().GetString("dir")
		if count <= 0 {
			return fmt.Errorf("count must be positive")
		}
		if dir == "" {
			paths, err := cli.NewPaths(appName)
			if err != nil {
				return err
			}
			dir = paths.RecordingDir()
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		ctx, err := getContext()
		if err != nil {
			return err
		}
		capture, audio, err := openMicrophone(cmd.Context(), ctx)
		if err != nil {
			return err
		}
		defer capture.Close()

		var (
			files  []string
			misses int
		)
		for len(files) < count {
			n := len(files) + 1
			cli.PrintInfo("Say %q (%d/%d)", label, n, count)
			rec := transcribe.NewRecorder(audio, transcribe.WithMaxLength(3*time.Second))
			take, err := rec.Record(cmd.Context())
			if errors.Is(err, transcribe.ErrNoSpeech) {
				if misses++; misses == maxMissedTakes {
					return fmt.Errorf("no speech heard in %d attempts", misses)
				}
				cli.PrintWarning("No speech heard, try again")
				continue
			}
			if err != nil {
				return err
			}
			misses = 0
			path := filepath.Join(dir, fmt.Sprintf("%s-%d.wav", label, n))
			if err := writeTake(path, take); err != nil {
				return err
			}
			files = append(files, path)
		}
		return outputResult(files)
	},
}

const maxMissedTakes = 3

func writeTake(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wav.Write(f, samples, pcm.L16Mono16K.SampleRate(), 1); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var profileConvertCmd = &cobra.Command{
	Use:   "convert <src> <dst>",
	Short: "Re-encode a reference profile",
	Long: `Copy a reference profile within the reference storage, changing its
format to match the destination extension (.json, .yaml, .msgpack).

Examples:
  mofel profile convert mofel_ref.json mofel_ref.msgpack`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
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
		p, err := hotword.LoadProfile(cmd.Context(), store, args[0], m)
		if err != nil {
			return err
		}
		if err := saveProfile(cmd.Context(), store, args[1], p); err != nil {
			return err
		}
		cli.PrintSuccess("Wrote %s (%d samples)", args[1], len(p.Embeddings))
		return nil
	},
}

func init() {
	profileEnrollCmd.Flags().StringP("reference", "r", "", "reference file name (default <label>_ref.json)")
	profileEnrollCmd.Flags().Bool("register", true, "add the hotword to the context")

	profileRecordCmd.Flags().Int("count", hotword.MinReferenceSamples, "number of takes")
	profileRecordCmd.Flags().String("dir", "", "output directory (default ~/.mofel/mofel/recordings)")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileValidateCmd)
	profileCmd.AddCommand(profileEnrollCmd)
	profileCmd.AddCommand(profileRecordCmd)
	profileCmd.AddCommand(profileConvertCmd)
}
