package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "voicescene.yaml"

type Config struct {
	ScenePath    string  `yaml:"scene"`
	OutputVideo  string  `yaml:"output"`
	OutputDir    string  `yaml:"output_dir"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	FPS          int     `yaml:"fps"`
	Preset       string  `yaml:"preset"`
	VideoEncoder string  `yaml:"encoder"`
	Quality      int     `yaml:"quality"`
	Background   string  `yaml:"background"`
	Workers      int     `yaml:"workers"`
	ShowStats    bool    `yaml:"stats"`
	BuildVersion string  `yaml:"-"`
	Speech       Speech  `yaml:"speech"`
	Music        Music   `yaml:"music"`
	AssetsDir    string  `yaml:"assets_dir"`
	TailPadding  float64 `yaml:"tail_padding"`
}

// Speech selects and configures the narration provider.
type Speech struct {
	Provider     string  `yaml:"provider"` // elevenlabs | estimate
	CacheDir     string  `yaml:"cache_dir"`
	APIKey       string  `yaml:"-"`
	BaseURL      string  `yaml:"base_url"`
	WordsPerSec  float64 `yaml:"words_per_second"`
	TimeoutSec   int     `yaml:"timeout"`
	DefaultModel string  `yaml:"model"`
	DefaultVoice string  `yaml:"voice"`
	DisableCache bool    `yaml:"disable_cache"`
}

// Music is an optional background bed mixed under the narration.
type Music struct {
	Path   string  `yaml:"path"`
	Volume float64 `yaml:"volume"`
}

// StreamParams describes the raw frame stream handed to the encoder.
type StreamParams struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
}

func (c *Config) StreamParams() StreamParams {
	return StreamParams{
		Width:   c.Width,
		Height:  c.Height,
		FPS:     c.FPS,
		Encoder: c.VideoEncoder,
		Quality: c.Quality,
	}
}

// Load reads path over the defaults. A missing DefaultFile is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.ApplyPreset()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")); key != "" {
		c.Speech.APIKey = key
	}
	if provider := strings.TrimSpace(os.Getenv("VOICESCENE_SPEECH")); provider != "" {
		c.Speech.Provider = provider
	}
}

// ApplyPreset overrides Width/Height for a known aspect preset.
func (c *Config) ApplyPreset() {
	switch c.Preset {
	case "16:9":
		c.Width, c.Height = 1280, 720
	case "9:16":
		c.Width, c.Height = 720, 1280
	case "4:5":
		c.Width, c.Height = 1080, 1350
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height))
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("resolution %dx%d must be even for yuv420p", c.Width, c.Height))
	}
	if c.FPS <= 0 || c.FPS > 120 {
		errs = append(errs, fmt.Errorf("invalid fps %d", c.FPS))
	}
	switch c.Speech.Provider {
	case ProviderElevenLabs, ProviderEstimate:
	default:
		errs = append(errs, fmt.Errorf("unknown speech provider %q", c.Speech.Provider))
	}
	if c.Music.Volume < 0 || c.Music.Volume > 1 {
		errs = append(errs, fmt.Errorf("music volume %.2f out of range [0,1]", c.Music.Volume))
	}
	if c.TailPadding < 0 {
		errs = append(errs, fmt.Errorf("negative tail padding %.2f", c.TailPadding))
	}
	return errors.Join(errs...)
}
