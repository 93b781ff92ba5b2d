package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".mofel"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name (e.g., "mofel")
	AppName string `yaml:"-" json:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty" json:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty" json:"contexts,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Context is one named setup: which model serves embeddings, which
// hotwords to listen for, where their references live and how speech after
// a hotword is transcribed.
type Context struct {
	// Name is the context name
	Name string `yaml:"name" json:"name"`

	// Model is the embedding model sidecar
	Model *ModelConfig `yaml:"model,omitempty" json:"model,omitempty"`

	// Hotwords are the words to listen for, in arbitration order
	Hotwords []HotwordConfig `yaml:"hotwords,omitempty" json:"hotwords,omitempty"`

	// Storage is where reference files are read from
	Storage *StorageConfig `yaml:"storage,omitempty" json:"storage,omitempty"`

	// Transcribe configures speech-to-text after a hotword (optional)
	Transcribe *TranscribeConfig `yaml:"transcribe,omitempty" json:"transcribe,omitempty"`

	// Audio configures live capture (optional)
	Audio *AudioConfig `yaml:"audio,omitempty" json:"audio,omitempty"`
}

// ModelConfig describes the embedding model sidecar.
type ModelConfig struct {
	// Endpoint is the websocket URL, e.g. ws://127.0.0.1:8765/embed
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Kind is the model variant: resnet_50_arc or first_iteration_siamese
	Kind string `yaml:"kind" json:"kind"`

	// Timeout is the per-frame timeout in milliseconds (optional)
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// HotwordConfig describes one hotword.
type HotwordConfig struct {
	// Label is the name reported on detection
	Label string `yaml:"label" json:"label"`

	// Reference is the reference file name within the storage
	Reference string `yaml:"reference" json:"reference"`

	// Threshold is the similarity cutoff in (0, 1) (optional, default 0.9)
	Threshold float32 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Relaxation is the cooldown in milliseconds (optional, default 800)
	Relaxation int `yaml:"relaxation,omitempty" json:"relaxation,omitempty"`

	// Continuous enables cooldown suppression (optional, default true)
	Continuous *bool `yaml:"continuous,omitempty" json:"continuous,omitempty"`
}

// RelaxationDuration returns Relaxation as a duration, or 0 when unset.
func (h HotwordConfig) RelaxationDuration() time.Duration {
	return time.Duration(h.Relaxation) * time.Millisecond
}

// StorageConfig selects the reference store. A Bucket selects S3;
// otherwise references are read from Dir.
type StorageConfig struct {
	// Dir is the local reference directory (optional, default ~/.mofel/<app>/references)
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// Bucket is the S3 bucket name
	Bucket string `yaml:"bucket,omitempty" json:"bucket,omitempty"`

	// Prefix is the key prefix within the bucket (optional)
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	// Region is the S3 region (optional)
	Region string `yaml:"region,omitempty" json:"region,omitempty"`

	// Endpoint is a custom S3-compatible endpoint (optional)
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// AccessKey is the S3 access key (optional, anonymous if empty)
	AccessKey string `yaml:"access_key,omitempty" json:"access_key,omitempty"`

	// SecretKey is the S3 secret key (optional)
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty"`

	// PathStyle forces path-style addressing (MinIO and friends)
	PathStyle bool `yaml:"path_style,omitempty" json:"path_style,omitempty"`
}

// TranscribeConfig configures the speech-to-text service.
type TranscribeConfig struct {
	// Provider is openai or gemini
	Provider string `yaml:"provider" json:"provider"`

	// APIKey is the service API key
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// Model is the service model name (optional)
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Language is a BCP 47 tag (optional, default ja-JP)
	Language string `yaml:"language,omitempty" json:"language,omitempty"`

	// BaseURL is the API base URL (optional, uses default if empty)
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// AudioConfig configures live capture.
type AudioConfig struct {
	// Command is the recorder command line writing PCM16 to stdout
	Command []string `yaml:"command,omitempty" json:"command,omitempty"`

	// SampleRate is the recorder's sample rate (optional, default 16000)
	SampleRate int `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`

	// Channels is the recorder's channel count (optional, default 1)
	Channels int `yaml:"channels,omitempty" json:"channels,omitempty"`

	// Window is the frame length in milliseconds (optional, default 1500)
	Window int `yaml:"window,omitempty" json:"window,omitempty"`

	// Slide is the frame advance in milliseconds (optional, default 750)
	Slide int `yaml:"slide,omitempty" json:"slide,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create empty config file
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			return nil, fmt.Errorf("context %q is empty", name)
		}
		ctx.Name = name
	}

	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// API keys live here.
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds or replaces a context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// GetCurrentContext returns the current context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.GetContext(c.CurrentContext)
}

// ResolveContext returns the context by name, or current context if name is empty
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		return c.GetCurrentContext()
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Hotword returns the hotword with the given label.
func (ctx *Context) Hotword(label string) (HotwordConfig, bool) {
	for _, h := range ctx.Hotwords {
		if h.Label == label {
			return h, true
		}
	}
	return HotwordConfig{}, false
}

// SetHotword adds a hotword or replaces the one with the same label.
func (ctx *Context) SetHotword(h HotwordConfig) {
	for i := range ctx.Hotwords {
		if ctx.Hotwords[i].Label == h.Label {
			ctx.Hotwords[i] = h
			return
		}
	}
	ctx.Hotwords = append(ctx.Hotwords, h)
}

// RemoveHotword deletes the hotword with the given label and reports
// whether it existed.
func (ctx *Context) RemoveHotword(label string) bool {
	n := len(ctx.Hotwords)
	ctx.Hotwords = slices.DeleteFunc(ctx.Hotwords, func(h HotwordConfig) bool {
		return h.Label == label
	})
	return len(ctx.Hotwords) != n
}

// Masked returns a copy of the context with secrets masked for display.
func (ctx *Context) Masked() *Context {
	out := *ctx
	if ctx.Storage != nil {
		s := *ctx.Storage
		s.AccessKey = MaskAPIKey(s.AccessKey)
		s.SecretKey = MaskAPIKey(s.SecretKey)
		out.Storage = &s
	}
	if ctx.Transcribe != nil {
		t := *ctx.Transcribe
		t.APIKey = MaskAPIKey(t.APIKey)
		out.Transcribe = &t
	}
	return &out
}

// MaskAPIKey masks the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
