package speech

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	manifestFile = "cache.yaml"
	lockFile     = ".cache.lock"
)

// Entry is one cached clip.
type Entry struct {
	Text     string    `yaml:"text"`
	Voice    string    `yaml:"voice"`
	File     string    `yaml:"file"`
	Duration float64   `yaml:"duration"`
	Created  time.Time `yaml:"created"`
}

type manifest struct {
	Entries map[string]Entry `yaml:"entries"`
}

// Cache wraps a synthesizer with an on-disk, content-addressed store. The
// manifest is shared between processes through a file lock.
type Cache struct {
	Dir  string
	Next Synthesizer
	Log  logrus.FieldLogger

	mu   sync.Mutex
	lock *flock.Flock
}

func NewCache(dir string, next Synthesizer, log logrus.FieldLogger) *Cache {
	return &Cache{
		Dir:  dir,
		Next: next,
		Log:  log,
		lock: flock.New(filepath.Join(dir, lockFile)),
	}
}

func (c *Cache) Name() string { return c.Next.Name() + "+cache" }

func (c *Cache) Synthesize(ctx context.Context, text string, voice Voice) (*Clip, error) {
	key := Key(text, voice)

	if clip, ok, err := c.lookup(key); err != nil {
		return nil, err
	} else if ok {
		c.Log.WithField("key", key[:12]).Debug("speech cache hit")
		return clip, nil
	}

	clip, err := c.Next.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	if clip.Path == "" {
		return clip, nil
	}

	entry := Entry{
		Text:     text,
		Voice:    voiceLabel(voice),
		File:     clip.Path,
		Duration: clip.Duration,
		Created:  time.Now().UTC(),
	}
	if rel, err := filepath.Rel(c.Dir, clip.Path); err == nil && filepath.IsLocal(rel) {
		entry.File = rel
	}
	if err := c.store(key, entry); err != nil {
		return nil, err
	}
	return clip, nil
}

func (c *Cache) lookup(key string) (*Clip, bool, error) {
	var clip *Clip
	err := c.locked(func() error {
		m, err := c.read()
		if err != nil {
			return err
		}
		e, ok := m.Entries[key]
		if !ok {
			return nil
		}
		path := c.resolve(e.File)
		if _, err := os.Stat(path); err != nil {
			return nil
		}
		clip = &Clip{Text: e.Text, Path: path, Duration: e.Duration}
		return nil
	})
	return clip, clip != nil, err
}

func (c *Cache) store(key string, e Entry) error {
	return c.locked(func() error {
		m, err := c.read()
		if err != nil {
			return err
		}
		m.Entries[key] = e
		data, err := yaml.Marshal(m)
		if err != nil {
			return err
		}
		tmp := filepath.Join(c.Dir, manifestFile+".tmp")
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			return err
		}
		return os.Rename(tmp, filepath.Join(c.Dir, manifestFile))
	})
}

// Entries lists the manifest.
func (c *Cache) Entries() (map[string]Entry, error) {
	var entries map[string]Entry
	err := c.locked(func() error {
		m, err := c.read()
		if err != nil {
			return err
		}
		entries = m.Entries
		return nil
	})
	return entries, err
}

func (c *Cache) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Dir, file)
}

func (c *Cache) read() (*manifest, error) {
	m := &manifest{Entries: make(map[string]Entry)}
	data, err := os.ReadFile(filepath.Join(c.Dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestFile, err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]Entry)
	}
	return m, nil
}

// locked runs fn holding both the in-process mutex and the file lock.
func (c *Cache) locked(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return err
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("lock speech cache: %w", err)
	}
	defer c.lock.Unlock()
	return fn()
}

func voiceLabel(v Voice) string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}
