package engine

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ivlev/voicescene/internal/config"
	"github.com/ivlev/voicescene/internal/scene"
	"github.com/ivlev/voicescene/internal/sequencer"
	"github.com/ivlev/voicescene/internal/speech"
	"github.com/ivlev/voicescene/internal/system"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func ptr(v float64) *float64 { return &v }

// fixedSynth returns a constant duration per narration.
type fixedSynth struct {
	duration float64
	calls    int32
}

func (f *fixedSynth) Name() string { return "fixed" }

func (f *fixedSynth) Synthesize(_ context.Context, text string, _ speech.Voice) (*speech.Clip, error) {
	atomic.AddInt32(&f.calls, 1)
	return &speech.Clip{Text: text, Duration: f.duration}, nil
}

func writeScene(t *testing.T) string {
	t.Helper()
	sc := &scene.Scene{
		Version: "1.0",
		Name:    "test scene",
		Shapes: []scene.ShapeSpec{
			{ID: "c", Kind: scene.KindCircle, Color: "BLUE"},
			{ID: "t", Kind: scene.KindText, Text: "Hi"},
		},
		Segments: []scene.SegmentSpec{
			{
				Text: "A circle appears.",
				Steps: []scene.StepSpec{
					{Weight: ptr(1), Play: []scene.AnimationSpec{{Kind: scene.AnimCreate, Target: "c"}}},
					{Weight: ptr(3), Play: []scene.AnimationSpec{{Kind: scene.AnimWrite, Target: "t"}}},
				},
				Hold: 0.5,
			},
			{
				Steps: []scene.StepSpec{
					{Duration: ptr(1), Play: []scene.AnimationSpec{{Kind: scene.AnimFadeOut, Target: scene.AllTargets}}},
					{Weight: ptr(1)},
				},
			},
		},
	}
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, scene.WriteScene(sc, path))
	return path
}

func newTestProject(t *testing.T, scenePath string) *Project {
	cfg := config.Default()
	cfg.ScenePath = scenePath
	cfg.Width, cfg.Height = 160, 90
	cfg.FPS = 10
	cfg.Workers = 2
	cfg.AssetsDir = t.TempDir()
	return NewProject(cfg, quietLog())
}

func TestPlanResolvesTimeline(t *testing.T) {
	p := newTestProject(t, writeScene(t))
	synth := &fixedSynth{duration: 4}
	p.Synth = synth

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), synth.calls, "silent segments are not synthesized")
	assert.Equal(t, "test scene", plan.Scene)
	require.Len(t, plan.Reports, 2)

	first := plan.Reports[0]
	assert.Equal(t, []float64{1, 3}, first.Steps)
	assert.Equal(t, 0.5, first.Hold)

	silent := plan.Reports[1]
	assert.Equal(t, 4.5, silent.Start)
	assert.Equal(t, 1.0, silent.Audio, "silent length is its fixed steps")
	assert.Equal(t, []float64{1, 0}, silent.Steps)

	assert.Equal(t, 5.5, plan.Duration)

	var audio []sequencer.Entry
	for _, e := range plan.Entries {
		if e.Kind == sequencer.EntryAudio {
			audio = append(audio, e)
		}
	}
	require.Len(t, audio, 1)
	assert.Equal(t, "A circle appears.", audio[0].Label)
}

func TestPlanFallsBackToEstimate(t *testing.T) {
	p := newTestProject(t, writeScene(t))
	p.Config.Speech.APIKey = ""
	p.Config.Speech.Provider = config.ProviderElevenLabs

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "estimate", plan.Synth)
	// "A circle appears." is three words at 2.5 words per second.
	assert.InDelta(t, 1.2, plan.Reports[0].Audio, 1e-9)
}

func TestPlanBuiltin(t *testing.T) {
	p := newTestProject(t, "circle_area")
	p.Config.Speech.Provider = config.ProviderEstimate

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "circle_area", plan.Scene)
	assert.Positive(t, plan.Duration)

	var sum float64
	for _, r := range plan.Reports {
		sum += max(r.Visual, r.Audio) + r.Hold
	}
	assert.InDelta(t, plan.Duration, sum, 1e-9)
}

func TestPlanUnknownScene(t *testing.T) {
	p := newTestProject(t, "no_such_scene")
	p.Synth = &fixedSynth{duration: 1}
	_, err := p.Plan(context.Background())
	assert.Error(t, err)
}

func TestRunRequiresKeyForElevenLabs(t *testing.T) {
	if system.CheckBinaries("ffmpeg", "ffprobe") != nil {
		t.Skip("ffmpeg not installed")
	}
	p := newTestProject(t, writeScene(t))
	p.Config.Speech.APIKey = ""
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, speech.ErrNoAPIKey)
}

func TestRunRendersVideo(t *testing.T) {
	if system.CheckBinaries("ffmpeg", "ffprobe") != nil {
		t.Skip("ffmpeg not installed")
	}
	p := newTestProject(t, writeScene(t))
	p.Config.Speech.Provider = config.ProviderEstimate
	p.Config.OutputDir = t.TempDir()
	p.Config.TailPadding = 0.5

	out, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.True(t, strings.HasPrefix(filepath.Base(out), "test_scene_"))

	d, err := system.GetAudioDuration(context.Background(), out)
	require.NoError(t, err)
	// 1.2s narration + 0.5s hold + 1s silent segment + 0.5s tail.
	assert.InDelta(t, 3.2, d, 0.15)
}

func TestMusicDirectoryPicksNewest(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.mp3", "b.mp3"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, nil, 0644))
		mod := time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	p := newTestProject(t, "")
	p.Config.Music.Path = dir
	m, err := p.music()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.mp3"), m.Path)
	assert.Equal(t, 0.08, m.Volume)

	p.Config.Music.Path = ""
	m, err = p.music()
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestFormatReport(t *testing.T) {
	out := formatReport("dev", stats{frames: 300, total: 4 * time.Second, render: 2 * time.Second}, 150, system.Host{LogicalCPUs: 8, TotalMemory: 16 << 30})
	assert.Contains(t, out, "Build: dev")
	assert.Contains(t, out, "Frames: 300")
	assert.Contains(t, out, "Host: 8 CPUs, 16.0 GiB RAM")
}

func TestResolveEncoderKeepsExplicitChoice(t *testing.T) {
	p := newTestProject(t, "")
	p.Config.VideoEncoder = "h264_nvenc"
	p.resolveEncoder(context.Background())
	assert.Equal(t, "h264_nvenc", p.Config.VideoEncoder)

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return
	}
	p.Config.VideoEncoder = "auto"
	p.resolveEncoder(context.Background())
	assert.NotEqual(t, "auto", p.Config.VideoEncoder)
}
