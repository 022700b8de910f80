package main

import (
	"fmt"
	"os"

	"github.com/ivlev/voicescene/internal/config"
	"github.com/ivlev/voicescene/internal/speech"
	"github.com/ivlev/voicescene/internal/system"
	"github.com/spf13/cobra"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, encoder and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			fmt.Printf("--- [VOICESCENE %s] ---\n", BuildVersion)

			binErr := system.CheckBinaries("ffmpeg", "ffprobe")
			if binErr != nil {
				fmt.Printf("[-] %v\n", binErr)
			} else {
				fmt.Println("[+] ffmpeg and ffprobe found")
				fmt.Printf("[*] Best H.264 encoder: %s\n", system.GetBestH264Encoder(cmd.Context()))
			}

			if host, err := system.HostInfo(); err != nil {
				ctx.log.WithError(err).Debug("host info unavailable")
			} else {
				fmt.Printf("[*] Host: %d CPUs | %.1f GB RAM (%.0f%% used)\n",
					host.LogicalCPUs, float64(host.TotalMemory)/(1<<30), host.UsedPercent)
			}

			fmt.Printf("[*] Speech provider: %s\n", cfg.Speech.Provider)
			if cfg.Speech.Provider == config.ProviderElevenLabs {
				if cfg.Speech.APIKey == "" {
					fmt.Println("[!] ELEVENLABS_API_KEY is not set; render will fail, plan will estimate")
				} else {
					fmt.Println("[+] ELEVENLABS_API_KEY is set")
				}
			}
			if !cfg.Speech.DisableCache {
				fmt.Println(cacheSummary(cfg.Speech.CacheDir))
			}
			return binErr
		},
	}
}

// cacheSummary describes the speech cache without creating it.
func cacheSummary(dir string) string {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Sprintf("[*] Speech cache: %s (empty)", dir)
	}
	entries, err := speech.NewCache(dir, nil, nil).Entries()
	if err != nil {
		return fmt.Sprintf("[-] Speech cache %s unreadable: %v", dir, err)
	}
	var total float64
	for _, e := range entries {
		total += e.Duration
	}
	return fmt.Sprintf("[*] Speech cache: %s | %d clips | %.1fs of narration", dir, len(entries), total)
}
