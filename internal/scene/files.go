package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// OutputPath creates a timestamped video filename for a scene.
func OutputPath(dir, name string, now time.Time) string {
	clean := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if clean == "" {
		clean = "scene"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.mp4", clean, now.Format("2006-01-02_15-04-05")))
}

// FindLatestScene finds the most recently modified scene file in dir.
func FindLatestScene(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scenes directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var scenes []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		scenes = append(scenes, candidate{filepath.Join(dir, name), info.ModTime()})
	}

	if len(scenes) == 0 {
		return "", fmt.Errorf("no scene files found in %s", dir)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].mod.After(scenes[j].mod)
	})

	return scenes[0].path, nil
}
