package scene

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Names lists the bundled scenes.
func Names() []string {
	entries, _ := builtinFS.ReadDir("builtin")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin loads a bundled scene by name.
func Builtin(name string) (*Scene, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("no built-in scene %q (have %s)", name, strings.Join(Names(), ", "))
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("built-in %s: %w", name, err)
	}
	return sc, nil
}

// Load resolves ref as a file path first and a bundled scene name second.
func Load(ref string) (*Scene, error) {
	if _, err := os.Stat(ref); err == nil {
		return ReadScene(ref)
	}
	return Builtin(ref)
}
