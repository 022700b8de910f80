package config

import "runtime"

const (
	ProviderElevenLabs = "elevenlabs"
	ProviderEstimate   = "estimate"
)

func Default() *Config {
	return &Config{
		OutputDir:    "output",
		Width:        1280,
		Height:       720,
		FPS:          30,
		VideoEncoder: "libx264",
		Quality:      23,
		Background:   "#000000",
		Workers:      runtime.NumCPU(),
		AssetsDir:    "assets",
		TailPadding:  1.0,
		Speech: Speech{
			Provider:     ProviderElevenLabs,
			CacheDir:     "media/voiceovers",
			BaseURL:      "https://api.elevenlabs.io",
			WordsPerSec:  2.5,
			TimeoutSec:   60,
			DefaultModel: "eleven_turbo_v2_5",
		},
		Music: Music{
			Volume: 0.08,
		},
	}
}

// DefaultQuality picks a quality value suited to the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
