package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/voicescene/internal/config"
	"github.com/ivlev/voicescene/internal/scene"
	"github.com/ivlev/voicescene/internal/sequencer"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "x"}}, []columnAlignment{alignRight})
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "x")
	assert.Len(t, strings.Split(out, "\n"), 6)
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestPlanRows(t *testing.T) {
	rows := planRows([]sequencer.Report{
		{Index: 0, Text: "The area of a circle is pi r squared, which we will now derive", Start: 0, Audio: 3.25, Visual: 3.25, Steps: []float64{1.5, 1.75}},
		{Index: 1, Start: 3.25, Audio: 1, Visual: 1, Hold: 0.5, Steps: []float64{1}},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0][0])
	assert.Len(t, []rune(rows[0][1]), maxTextColumn)
	assert.True(t, strings.HasSuffix(rows[0][1], "…"))
	assert.Equal(t, "3.25", rows[0][3])
	assert.Equal(t, "1.50 1.75", rows[0][8])
	assert.Equal(t, "(silent)", rows[1][1])
	assert.Equal(t, "0.50", rows[1][7])
}

func TestSceneRows(t *testing.T) {
	rows, err := sceneRows(scene.Names())
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.NotEmpty(t, r[1], r[0])
	}

	_, err = sceneRows([]string{"nope"})
	assert.Error(t, err)
}

func TestApplyRenderFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "unset flags keep config",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name: "preset wins over config size",
			args: []string{"--preset", "9:16"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 720, cfg.Width)
				assert.Equal(t, 1280, cfg.Height)
			},
		},
		{
			name: "encoder picks its default quality",
			args: []string{"--encoder", "h264_videotoolbox"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "h264_videotoolbox", cfg.VideoEncoder)
				assert.Equal(t, 75, cfg.Quality)
			},
		},
		{
			name: "explicit quality wins",
			args: []string{"--encoder", "h264_nvenc", "--quality", "20"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 20, cfg.Quality)
			},
		},
		{
			name: "speech and music",
			args: []string{"--speech", "estimate", "--no-cache", "--music", "bed.mp3", "--fps", "24", "--tail", "0"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.ProviderEstimate, cfg.Speech.Provider)
				assert.True(t, cfg.Speech.DisableCache)
				assert.Equal(t, "bed.mp3", cfg.Music.Path)
				assert.Equal(t, 24, cfg.FPS)
				assert.Zero(t, cfg.TailPadding)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			f := &renderFlags{}
			f.bind(cmd)
			require.NoError(t, cmd.Flags().Parse(tt.args))

			cfg := config.Default()
			applyRenderFlags(cmd, cfg, *f)
			tt.check(t, cfg)
		})
	}
}

func TestResolveScene(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, resolveScene(cfg, []string{"circle_area"}))
	assert.Equal(t, "circle_area", cfg.ScenePath)

	cfg.ScenePath = "from_config.yaml"
	require.NoError(t, resolveScene(cfg, nil))
	assert.Equal(t, "from_config.yaml", cfg.ScenePath)
}

func TestPlanCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicescene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: 30\nspeech:\n  words_per_second: 3\n"), 0644))

	root := newRootCommand()
	root.SetArgs([]string{"--config", path, "plan", scene.Names()[0], "--speech", "estimate"})
	assert.NoError(t, root.Execute())
}

func TestUnknownConfigFails(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "scenes"})
	assert.Error(t, root.Execute())
}

func TestCacheSummary(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "none")
	assert.Contains(t, cacheSummary(missing), "(empty)")
	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err), "summary does not create the cache")

	manifest := "entries:\n  abc:\n    text: hi\n    file: abc.mp3\n    duration: 1.5\n  def:\n    text: yo\n    file: def.mp3\n    duration: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.yaml"), []byte(manifest), 0644))
	assert.Contains(t, cacheSummary(dir), "2 clips | 3.5s")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.yaml"), []byte("entries: [unclosed"), 0644))
	assert.Contains(t, cacheSummary(dir), "unreadable")
}

func TestExportScene(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenes")
	name := scene.Names()[0]

	path, err := exportScene(name, dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, name+".yaml"), path)

	exported, err := scene.ReadScene(path)
	require.NoError(t, err)
	builtin, err := scene.Builtin(name)
	require.NoError(t, err)
	assert.Equal(t, builtin.Name, exported.Name)
	assert.Equal(t, builtin.Shapes, exported.Shapes)
	assert.Equal(t, builtin.Narrated(), exported.Narrated())
	assert.Len(t, exported.Segments, len(builtin.Segments))

	_, err = exportScene(name, dir, false)
	assert.ErrorContains(t, err, "already exists")
	_, err = exportScene(name, dir, true)
	assert.NoError(t, err)

	_, err = exportScene("nope", dir, false)
	assert.Error(t, err)
}
