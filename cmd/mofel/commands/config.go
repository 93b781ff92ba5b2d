package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Souzou03/mofel/pkg/cli"
	"github.com/Souzou03/mofel/pkg/hotword"
	"github.com/Souzou03/mofel/pkg/refstore"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage mofel configuration.

Configuration is stored in ~/.mofel/mofel/config.yaml.
Multiple contexts can be defined, e.g. one per microphone or model.`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context, or replace an existing one.

The context may be given as a YAML or JSON file with --file; flags are
applied on top of it.

Examples:
  mofel config add-context home --model-endpoint ws://localhost:8765/embed --model-kind resnet_50_arc
  mofel config add-context cloud -f context.yaml --reference-dir s3://refs/mofel
  mofel config add-context home --transcribe-provider openai --api-key sk-xxxxx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		ctx := &cli.Context{}
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			if err := cli.LoadFile(file, ctx); err != nil {
				return err
			}
		}
		if err := applyContextFlags(cmd, ctx); err != nil {
			return err
		}
		if err := validateContext(ctx); err != nil {
			return err
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			if err := cfg.UseContext(name); err != nil {
				return err
			}
		}

		cli.PrintSuccess("Context '%s' added successfully", name)
		return nil
	},
}

// applyContextFlags copies every flag the user set into ctx.
func applyContextFlags(cmd *cobra.Command, ctx *cli.Context) error {
	flags := cmd.Flags()
	changed := flags.Changed

	if changed("model-endpoint") || changed("model-kind") || changed("model-timeout") {
		if ctx.Model == nil {
			ctx.Model = &cli.ModelConfig{}
		}
		if changed("model-endpoint") {
			ctx.Model.Endpoint, _ = flags.GetString("model-endpoint")
		}
		if changed("model-kind") {
			ctx.Model.Kind, _ = flags.GetString("model-kind")
		}
		if changed("model-timeout") {
			d, _ := flags.GetDuration("model-timeout")
			ctx.Model.Timeout = int(d / time.Millisecond)
		}
	}

	if changed("reference-dir") || changed("s3-region") || changed("s3-endpoint") ||
		changed("access-key") || changed("secret-key") || changed("path-style") {
		if ctx.Storage == nil {
			ctx.Storage = &cli.StorageConfig{}
		}
		st := ctx.Storage
		if changed("reference-dir") {
			raw, _ := flags.GetString("reference-dir")
			loc, err := refstore.ParseLocation(raw)
			if err != nil {
				return err
			}
			if loc.IsS3() {
				st.Dir, st.Bucket, st.Prefix = "", loc.Bucket, loc.Name
			} else {
				st.Dir, st.Bucket, st.Prefix = loc.Name, "", ""
			}
		}
		if changed("s3-region") {
			st.Region, _ = flags.GetString("s3-region")
		}
		if changed("s3-endpoint") {
			st.Endpoint, _ = flags.GetString("s3-endpoint")
		}
		if changed("access-key") {
			st.AccessKey, _ = flags.GetString("access-key")
		}
		if changed("secret-key") {
			st.SecretKey, _ = flags.GetString("secret-key")
		}
		if changed("path-style") {
			st.PathStyle, _ = flags.GetBool("path-style")
		}
	}

	if changed("transcribe-provider") || changed("api-key") || changed("transcribe-model") ||
		changed("language") || changed("base-url") {
		if ctx.Transcribe == nil {
			ctx.Transcribe = &cli.TranscribeConfig{}
		}
		tc := ctx.Transcribe
		if changed("transcribe-provider") {
			tc.Provider, _ = flags.GetString("transcribe-provider")
		}
		if changed("api-key") {
			tc.APIKey, _ = flags.GetString("api-key")
		}
		if changed("transcribe-model") {
			tc.Model, _ = flags.GetString("transcribe-model")
		}
		if changed("language") {
			tc.Language, _ = flags.GetString("language")
		}
		if changed("base-url") {
			tc.BaseURL, _ = flags.GetString("base-url")
		}
	}

	if changed("capture") || changed("sample-rate") || changed("channels") {
		if ctx.Audio == nil {
			ctx.Audio = &cli.AudioConfig{}
		}
		if changed("capture") {
			line, _ := flags.GetString("capture")
			ctx.Audio.Command = strings.Fields(line)
		}
		if changed("sample-rate") {
			ctx.Audio.SampleRate, _ = flags.GetInt("sample-rate")
		}
		if changed("channels") {
			ctx.Audio.Channels, _ = flags.GetInt("channels")
		}
	}
	return nil
}

func validateContext(ctx *cli.Context) error {
	if ctx.Model != nil && ctx.Model.Kind != "" {
		if _, err := hotword.ParseModelKind(ctx.Model.Kind); err != nil {
			return err
		}
	}
	if ctx.Transcribe != nil {
		switch ctx.Transcribe.Provider {
		case "", providerOpenAI, providerGemini:
		default:
			return fmt.Errorf("unknown transcribe provider %q (want %s or %s)",
				ctx.Transcribe.Provider, providerOpenAI, providerGemini)
		}
	}
	for _, h := range ctx.Hotwords {
		if h.Label == "" || h.Reference == "" {
			return fmt.Errorf("hotword needs a label and a reference")
		}
	}
	return nil
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the default context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context '%s'", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
		} else {
			fmt.Println(cfg.CurrentContext)
		}
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"list"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentContext {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, name)
		}
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:     "view [name]",
	Aliases: []string{"show"},
	Short:   "View a context, or the full configuration",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			ctx, err := cfg.GetContext(args[0])
			if err != nil {
				return err
			}
			return outputResult(ctx.Masked())
		}

		masked := *cfg
		masked.Contexts = make(map[string]*cli.Context, len(cfg.Contexts))
		for name, ctx := range cfg.Contexts {
			masked.Contexts[name] = ctx.Masked()
		}
		return outputResult(&masked)
	},
}

var configAddHotwordCmd = &cobra.Command{
	Use:   "add-hotword <label>",
	Short: "Add or replace a hotword in the context",
	Long: `Add a hotword to the selected context, or replace the one with the same label.

The reference is a file name in the context's reference storage.

Examples:
  mofel config add-hotword mofel --reference mofel/model/mofel_ref.json
  mofel config add-hotword stop --reference stop_ref.yaml --threshold 0.85 --relaxation 2s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}
		h := cli.HotwordConfig{Label: args[0]}
		if old, ok := ctx.Hotword(h.Label); ok {
			h = old
		}

		flags := cmd.Flags()
		if flags.Changed("reference") {
			h.Reference, _ = flags.GetString("reference")
		}
		if h.Reference == "" {
			return fmt.Errorf("reference is required")
		}
		if flags.Changed("threshold") {
			t, _ := flags.GetFloat32("threshold")
			if !(t > 0 && t < 1) {
				return fmt.Errorf("threshold must be between 0 and 1, got %v", t)
			}
			h.Threshold = t
		}
		if flags.Changed("relaxation") {
			d, _ := flags.GetDuration("relaxation")
			h.Relaxation = int(d / time.Millisecond)
		}
		if flags.Changed("continuous") {
			c, _ := flags.GetBool("continuous")
			h.Continuous = &c
		}

		ctx.SetHotword(h)
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Hotword '%s' saved in context '%s'", h.Label, ctx.Name)
		return nil
	},
}

var configRemoveHotwordCmd = &cobra.Command{
	Use:   "remove-hotword <label>",
	Short: "Remove a hotword from the context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}
		if !ctx.RemoveHotword(args[0]) {
			return fmt.Errorf("hotword %q not found in context %q", args[0], ctx.Name)
		}
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Hotword '%s' removed", args[0])
		return nil
	},
}

func init() {
	// add-context flags
	f := configAddContextCmd.Flags()
	f.StringP("file", "f", "", "context file (YAML or JSON, - for stdin)")
	f.String("model-endpoint", "", "embedding sidecar URL (ws:// or wss://)")
	f.String("model-kind", "", "embedding model: resnet_50_arc or first_iteration_siamese")
	f.Duration("model-timeout", 0, "per-frame embedding timeout (default 5s)")
	f.String("reference-dir", "", "reference storage: a directory or s3://bucket/prefix")
	f.String("s3-region", "", "S3 region")
	f.String("s3-endpoint", "", "S3-compatible endpoint URL")
	f.String("access-key", "", "S3 access key")
	f.String("secret-key", "", "S3 secret key")
	f.Bool("path-style", false, "use path-style S3 addressing")
	f.String("transcribe-provider", "", "transcription provider: openai or gemini")
	f.StringP("api-key", "k", "", "transcription API key")
	f.String("transcribe-model", "", "transcription model")
	f.String("language", "", "transcription language (default ja-JP)")
	f.StringP("base-url", "u", "", "transcription API base URL")
	f.String("capture", "", "capture command, e.g. \"arecord -q -t raw -f S16_LE -c 1 -r 16000\"")
	f.Int("sample-rate", 0, "capture sample rate (default 16000)")
	f.Int("channels", 0, "capture channels (default 1)")

	// add-hotword flags
	hf := configAddHotwordCmd.Flags()
	hf.StringP("reference", "r", "", "reference file name in the reference storage")
	hf.Float32("threshold", hotword.DefaultThreshold, "similarity threshold in (0, 1)")
	hf.Duration("relaxation", hotword.DefaultRelaxation, "minimum gap between activations")
	hf.Bool("continuous", true, "suppress repeated activations within the relaxation")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configAddHotwordCmd)
	configCmd.AddCommand(configRemoveHotwordCmd)
}
