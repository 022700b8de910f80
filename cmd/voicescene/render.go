package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/voicescene/internal/config"
	"github.com/ivlev/voicescene/internal/engine"
	"github.com/ivlev/voicescene/internal/scene"
	"github.com/spf13/cobra"
)

const scenesDir = "scenes"

// renderFlags override config values when set on the command line.
type renderFlags struct {
	output   string
	preset   string
	width    int
	height   int
	fps      int
	encoder  string
	quality  int
	stats    bool
	music    string
	speech   string
	noCache  bool
	tailSecs float64
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "Render a scene file or built-in scene to MP4",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			applyRenderFlags(cmd, cfg, *f)
			if err := resolveScene(cfg, args); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err := engine.NewProject(cfg, ctx.log).Run(runCtx)
			return err
		},
	}

	f.bind(cmd)
	return cmd
}

func (f *renderFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "Output video path (default: timestamped file in output_dir)")
	flags.StringVar(&f.preset, "preset", "", "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	flags.IntVar(&f.width, "width", 0, "Frame width")
	flags.IntVar(&f.height, "height", 0, "Frame height")
	flags.IntVar(&f.fps, "fps", 0, "Frames per second")
	flags.StringVar(&f.encoder, "encoder", "", "H.264 encoder, or auto to pick the best available")
	flags.IntVar(&f.quality, "quality", 0, "Quality (x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	flags.BoolVar(&f.stats, "stats", false, "Print a performance report and append it to benchmark.log")
	flags.StringVar(&f.music, "music", "", "Background music file or directory (newest track is used)")
	flags.StringVar(&f.speech, "speech", "", "Speech provider: elevenlabs or estimate")
	flags.BoolVar(&f.noCache, "no-cache", false, "Always call the speech provider")
	flags.Float64Var(&f.tailSecs, "tail", 0, "Seconds of still frames after the last segment")
}

func applyRenderFlags(cmd *cobra.Command, cfg *config.Config, f renderFlags) {
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.OutputVideo = f.output
	}
	if changed("width") {
		cfg.Width = f.width
	}
	if changed("height") {
		cfg.Height = f.height
	}
	if changed("preset") {
		cfg.Preset = f.preset
		cfg.ApplyPreset()
	}
	if changed("fps") {
		cfg.FPS = f.fps
	}
	if changed("encoder") {
		cfg.VideoEncoder = f.encoder
		if !changed("quality") {
			cfg.Quality = config.DefaultQuality(f.encoder)
		}
	}
	if changed("quality") {
		cfg.Quality = f.quality
	}
	if changed("stats") {
		cfg.ShowStats = f.stats
	}
	if changed("music") {
		cfg.Music.Path = f.music
	}
	applySpeechFlags(cmd, cfg, f.speech, f.noCache)
	if changed("tail") {
		cfg.TailPadding = f.tailSecs
	}
}

func applySpeechFlags(cmd *cobra.Command, cfg *config.Config, provider string, noCache bool) {
	if cmd.Flags().Changed("speech") {
		cfg.Speech.Provider = provider
	}
	if noCache {
		cfg.Speech.DisableCache = true
	}
}

// resolveScene picks the scene argument, the configured scene, or the newest
// file in scenes/.
func resolveScene(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.ScenePath = args[0]
	}
	if cfg.ScenePath != "" {
		return nil
	}
	latest, err := scene.FindLatestScene(scenesDir)
	if err != nil {
		return fmt.Errorf("%w. Pass a scene file, a built-in name, or put a scene into %s/", err, scenesDir)
	}
	cfg.ScenePath = latest
	fmt.Printf("[*] Selected scene: %s\n", latest)
	return nil
}
