package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ivlev/voicescene/internal/animation"
	"github.com/ivlev/voicescene/internal/audio"
	"github.com/ivlev/voicescene/internal/config"
	"github.com/ivlev/voicescene/internal/renderer"
	"github.com/ivlev/voicescene/internal/scene"
	"github.com/ivlev/voicescene/internal/sequencer"
	"github.com/ivlev/voicescene/internal/source"
	"github.com/ivlev/voicescene/internal/speech"
	"github.com/ivlev/voicescene/internal/stage"
	"github.com/ivlev/voicescene/internal/system"
	"github.com/ivlev/voicescene/internal/video"
	"github.com/sirupsen/logrus"
)

// Project renders one scene into a narrated video.
type Project struct {
	Config  *config.Config
	Log     logrus.FieldLogger
	Encoder video.Encoder
	// Synth overrides the synthesizer built from the config.
	Synth  speech.Synthesizer
	Assets animation.AssetLoader
	RunID  string
}

func NewProject(cfg *config.Config, log logrus.FieldLogger) *Project {
	runID := uuid.NewString()
	return &Project{
		Config:  cfg,
		Log:     log.WithField("run", runID[:8]),
		Encoder: &video.FFmpegEncoder{},
		Assets:  source.NewLoader(cfg.AssetsDir, source.DefaultDPI),
		RunID:   runID,
	}
}

// prepared is a scene ready to play: narration measured and actions bound.
type prepared struct {
	scene    *scene.Scene
	canvas   *animation.Canvas
	timeline sequencer.Scene
	synth    string
}

func (p *Project) prepare(ctx context.Context, allowEstimate bool) (*prepared, error) {
	sc, err := scene.Load(p.Config.ScenePath)
	if err != nil {
		return nil, err
	}

	synth, err := p.synthesizer(allowEstimate)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(sc.Segments))
	for i, seg := range sc.Segments {
		texts[i] = seg.Text
	}
	fmt.Printf("[*] Narration: %d segments via %s\n", len(sc.Narrated()), synth.Name())
	clips, err := speech.Prefetch(ctx, synth, texts, p.voice(sc), p.Config.Workers)
	if err != nil {
		return nil, fmt.Errorf("synthesize narration: %w", err)
	}

	canvas, segments, err := animation.Compile(sc, animation.Options{
		Width:      p.Config.Width,
		Height:     p.Config.Height,
		Background: p.Config.Background,
		Assets:     p.Assets,
	})
	if err != nil {
		return nil, fmt.Errorf("compile scene %s: %w", sc.Name, err)
	}

	for i := range segments {
		seg := &segments[i]
		if seg.Silent() {
			seg.AudioDuration = fixedTotal(seg.Steps)
			continue
		}
		seg.AudioPath = clips[i].Path
		seg.AudioDuration = clips[i].Duration
	}

	return &prepared{
		scene:    sc,
		canvas:   canvas,
		timeline: sequencer.Scene{Name: sc.Name, Segments: segments},
		synth:    synth.Name(),
	}, nil
}

// fixedTotal is the length of a silent segment: its fixed steps only.
func fixedTotal(steps []sequencer.SubStep) float64 {
	var total float64
	for _, st := range steps {
		if st.Fixed != nil && *st.Fixed > 0 {
			total += *st.Fixed
		}
	}
	return total
}

func (p *Project) voice(sc *scene.Scene) speech.Voice {
	v := speech.Voice{
		ID:              sc.Voice.ID,
		Name:            sc.Voice.Name,
		Model:           sc.Voice.Model,
		Stability:       sc.Voice.Stability,
		SimilarityBoost: sc.Voice.SimilarityBoost,
		Style:           sc.Voice.Style,
	}
	if v.ID == "" && v.Name == "" {
		v.Name = p.Config.Speech.DefaultVoice
	}
	return v
}

// synthesizer builds the configured provider. Without an API key it falls
// back to estimates only when allowed.
func (p *Project) synthesizer(allowEstimate bool) (speech.Synthesizer, error) {
	if p.Synth != nil {
		return p.Synth, nil
	}
	cfg := p.Config.Speech
	estimator := speech.Estimator{WordsPerSecond: cfg.WordsPerSec}
	if cfg.Provider == config.ProviderEstimate {
		return estimator, nil
	}

	el, err := speech.NewElevenLabs(cfg.APIKey, cfg.CacheDir,
		speech.WithBaseURL(cfg.BaseURL),
		speech.WithModel(cfg.DefaultModel),
		speech.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}),
	)
	if errors.Is(err, speech.ErrNoAPIKey) && allowEstimate {
		p.Log.Warn("ELEVENLABS_API_KEY not set, estimating narration length")
		return estimator, nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.DisableCache {
		return el, nil
	}
	return speech.NewCache(cfg.CacheDir, el, p.Log), nil
}

// PlanResult is the resolved timeline of a scene without any rendering.
type PlanResult struct {
	Scene    string
	Synth    string
	Reports  []sequencer.Report
	Entries  []sequencer.Entry
	Duration float64
}

// Plan resolves every segment's timing with a recorder in place of the
// renderer and encoder.
func (p *Project) Plan(ctx context.Context) (*PlanResult, error) {
	prep, err := p.prepare(ctx, true)
	if err != nil {
		return nil, err
	}
	rec := &sequencer.Recorder{}
	seq := sequencer.New(rec, rec, p.Log)
	if err := seq.Run(ctx, prep.timeline); err != nil {
		return nil, err
	}
	return &PlanResult{
		Scene:    prep.scene.Name,
		Synth:    prep.synth,
		Reports:  seq.Reports(),
		Entries:  rec.Entries,
		Duration: seq.Duration(),
	}, nil
}

// Run renders the scene and writes the final video. It returns the output
// path.
func (p *Project) Run(ctx context.Context) (string, error) {
	startTime := time.Now()
	cfg := p.Config

	if err := system.CheckBinaries("ffmpeg", "ffprobe"); err != nil {
		return "", err
	}
	p.resolveEncoder(ctx)

	prep, err := p.prepare(ctx, cfg.Speech.Provider == config.ProviderEstimate)
	if err != nil {
		return "", err
	}
	prepTime := time.Since(startTime)

	tempDir, err := os.MkdirTemp("", "voicescene_"+p.RunID[:8]+"_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tempDir)

	output := cfg.OutputVideo
	if output == "" {
		output = scene.OutputPath(cfg.OutputDir, prep.scene.Name, time.Now())
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", err
	}

	fmt.Println("--- [PROJECT: VOICESCENE] ---")
	fmt.Printf("[*] Scene: %s | Segments: %d | Shapes: %d\n", prep.scene.Name, len(prep.timeline.Segments), len(prep.canvas.Shapes))
	fmt.Printf("[*] Resolution: %dx%d @ %d FPS | Encoder: %s\n", cfg.Width, cfg.Height, cfg.FPS, cfg.VideoEncoder)
	fmt.Println("-----------------------------")

	renderStart := time.Now()
	videoPath := filepath.Join(tempDir, "video.mp4")
	stream, err := p.Encoder.Open(ctx, videoPath, cfg.StreamParams())
	if err != nil {
		return "", err
	}

	rend, err := renderer.New()
	if err != nil {
		stream.Close()
		return "", err
	}
	st := stage.New(prep.canvas, rend, stream, cfg.FPS, p.Log)
	track := &audio.Track{Log: p.Log}
	seq := sequencer.New(st, track, p.Log)

	err = seq.Run(ctx, prep.timeline)
	if err == nil && cfg.TailPadding > 0 {
		err = st.Wait(ctx, cfg.TailPadding)
	}
	if closeErr := stream.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", prep.scene.Name, err)
	}
	renderTime := time.Since(renderStart)
	fmt.Printf("[>] Frames: %d (%.2fs)\n", st.Frames(), st.Clock())

	muxStart := time.Now()
	total := float64(st.Frames()) / float64(cfg.FPS)
	audioPath := filepath.Join(tempDir, "narration.m4a")
	music, err := p.music()
	if err != nil {
		return "", err
	}
	if err := track.Mix(ctx, audioPath, total, music); err != nil {
		return "", err
	}
	if err := p.Encoder.Mux(ctx, videoPath, audioPath, output); err != nil {
		return "", err
	}
	muxTime := time.Since(muxStart)

	p.logOverruns(seq.Reports())
	if cfg.ShowStats {
		p.report(stats{
			scene:  prep.scene.Name,
			frames: st.Frames(),
			total:  time.Since(startTime),
			prep:   prepTime,
			render: renderTime,
			mux:    muxTime,
		})
	}

	fmt.Printf("[+++] Success! Video saved: %s\n", output)
	return output, nil
}

// resolveEncoder replaces "auto" with the best available H.264 encoder.
func (p *Project) resolveEncoder(ctx context.Context) {
	cfg := p.Config
	if cfg.VideoEncoder != "" && cfg.VideoEncoder != "auto" {
		return
	}
	cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
	cfg.Quality = config.DefaultQuality(cfg.VideoEncoder)
	fmt.Printf("[*] Encoder: %s (quality %d)\n", cfg.VideoEncoder, cfg.Quality)
}

// music resolves the background bed. A directory picks its newest track.
func (p *Project) music() (*audio.Music, error) {
	path := p.Config.Music.Path
	if path == "" {
		return nil, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("background music: %w", err)
	}
	if fi.IsDir() {
		if path, err = system.FindLatest(path, system.AudioExtensions...); err != nil {
			return nil, fmt.Errorf("background music: %w", err)
		}
	}
	return &audio.Music{Path: path, Volume: p.Config.Music.Volume}, nil
}

func (p *Project) logOverruns(reports []sequencer.Report) {
	var over []string
	for _, r := range reports {
		if r.Overrun > 0 && r.Text != "" {
			over = append(over, fmt.Sprintf("%d (+%.2fs)", r.Index+1, r.Overrun))
		}
	}
	if len(over) > 0 {
		fmt.Printf("[!] Visuals ran past narration in segments: %s\n", strings.Join(over, ", "))
	}
}
