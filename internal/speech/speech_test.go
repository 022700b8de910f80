package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func TestEstimator(t *testing.T) {
	e := Estimator{WordsPerSecond: 2.5}
	tests := []struct {
		text string
		want float64
	}{
		{"one two three four five", 2},
		{"hi", 0.5},
		{"", 0.5},
		{"  spaced   out   words  here and more ", 2.4},
	}
	for _, tt := range tests {
		clip, err := e.Synthesize(context.Background(), tt.text, Voice{})
		require.NoError(t, err)
		assert.InDelta(t, tt.want, clip.Duration, 1e-9, tt.text)
		assert.Empty(t, clip.Path)
	}
	assert.InDelta(t, 2.0, Estimator{}.Estimate("one two three four five"), 1e-9)
}

func TestKeyDependsOnVoice(t *testing.T) {
	a := Key("hello", Voice{ID: "x"})
	assert.Equal(t, a, Key("hello", Voice{ID: "x"}))
	assert.NotEqual(t, a, Key("hello", Voice{ID: "y"}))
	assert.NotEqual(t, a, Key("hello", Voice{ID: "x", Stability: float(0.5)}))
	assert.NotEqual(t, a, Key("hello!", Voice{ID: "x"}))
	assert.Len(t, a, 64)
}

func fakeProbe(context.Context, string) (float64, error) { return 1.25, nil }

func TestElevenLabsSynthesize(t *testing.T) {
	var gotBody ttsRequest
	var voiceCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
		switch r.URL.Path {
		case "/v1/voices":
			atomic.AddInt32(&voiceCalls, 1)
			w.Write([]byte(`{"voices":[{"voice_id":"abc123","name":"Brian"}]}`))
		case "/v1/text-to-speech/abc123":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte("ID3fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	el, err := NewElevenLabs("secret", dir, WithBaseURL(srv.URL+"/"), WithProbe(fakeProbe))
	require.NoError(t, err)

	voice := Voice{Name: "brian", Stability: float(0.75)}
	clip, err := el.Synthesize(context.Background(), "Hello there.", voice)
	require.NoError(t, err)

	assert.Equal(t, 1.25, clip.Duration)
	assert.Equal(t, filepath.Join(dir, Key("Hello there.", voice)+".mp3"), clip.Path)
	data, err := os.ReadFile(clip.Path)
	require.NoError(t, err)
	assert.Equal(t, "ID3fake", string(data))

	assert.Equal(t, "Hello there.", gotBody.Text)
	assert.Equal(t, defaultModel, gotBody.ModelID)
	require.NotNil(t, gotBody.VoiceSettings)
	assert.Equal(t, 0.75, *gotBody.VoiceSettings.Stability)
	assert.Nil(t, gotBody.VoiceSettings.Style)

	_, err = el.Synthesize(context.Background(), "Again.", voice)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&voiceCalls), "voices listed once")
}

func TestElevenLabsErrors(t *testing.T) {
	_, err := NewElevenLabs(" ", t.TempDir())
	assert.ErrorIs(t, err, ErrNoAPIKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/voices" {
			w.Write([]byte(`{"voices":[]}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"invalid api key"}`)
	}))
	defer srv.Close()

	el, err := NewElevenLabs("k", t.TempDir(), WithBaseURL(srv.URL), WithProbe(fakeProbe))
	require.NoError(t, err)

	_, err = el.Synthesize(context.Background(), "x", Voice{ID: "v"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")

	_, err = el.Synthesize(context.Background(), "x", Voice{Name: "Nobody"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nobody")

	_, err = el.Synthesize(context.Background(), "x", Voice{})
	assert.Error(t, err)
}

// fileSynth writes a small file per request and counts calls.
type fileSynth struct {
	dir   string
	calls int32
}

func (f *fileSynth) Name() string { return "file" }

func (f *fileSynth) Synthesize(_ context.Context, text string, v Voice) (*Clip, error) {
	atomic.AddInt32(&f.calls, 1)
	path := filepath.Join(f.dir, Key(text, v)+".mp3")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return nil, err
	}
	return &Clip{Text: text, Path: path, Duration: float64(len(text)) / 10}, nil
}

func quietLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestCacheHitsSkipSynthesis(t *testing.T) {
	dir := t.TempDir()
	next := &fileSynth{dir: dir}
	cache := NewCache(dir, next, quietLog())
	voice := Voice{ID: "v"}

	first, err := cache.Synthesize(context.Background(), "hello world", voice)
	require.NoError(t, err)
	second, err := cache.Synthesize(context.Background(), "hello world", voice)
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, 1.1, second.Duration)
	assert.Equal(t, "file+cache", cache.Name())

	entries, err := cache.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	for _, e := range entries {
		assert.Equal(t, "v", e.Voice)
		assert.False(t, filepath.IsAbs(e.File), "stored relative to the cache dir")
	}

	// A fresh cache on the same directory reads the manifest back.
	reopened := NewCache(dir, next, quietLog())
	_, err = reopened.Synthesize(context.Background(), "hello world", voice)
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls)
}

func TestCacheMissingFileResynthesizes(t *testing.T) {
	dir := t.TempDir()
	next := &fileSynth{dir: dir}
	cache := NewCache(dir, next, quietLog())

	clip, err := cache.Synthesize(context.Background(), "gone", Voice{ID: "v"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(clip.Path))

	_, err = cache.Synthesize(context.Background(), "gone", Voice{ID: "v"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls)
}

func TestCacheSkipsEstimates(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, Estimator{WordsPerSecond: 2}, quietLog())

	clip, err := cache.Synthesize(context.Background(), "a b c d", Voice{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, clip.Duration)

	entries, err := cache.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCacheCorruptManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), []byte("entries: [unclosed"), 0644))
	cache := NewCache(dir, Estimator{}, quietLog())

	entries, err := cache.Entries()
	assert.ErrorContains(t, err, "parse "+manifestFile)
	assert.Nil(t, entries)

	_, err = cache.Synthesize(context.Background(), "hello", Voice{})
	assert.ErrorContains(t, err, "parse "+manifestFile)
}

type slowSynth struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	failOn   string
}

func (s *slowSynth) Name() string { return "slow" }

func (s *slowSynth) Synthesize(ctx context.Context, text string, _ Voice) (*Clip, error) {
	s.mu.Lock()
	s.inFlight++
	s.peak = max(s.peak, s.inFlight)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if text == s.failOn {
		return nil, errors.New("quota exceeded")
	}
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Clip{Text: text, Duration: float64(len(text))}, nil
}

func TestPrefetchKeepsOrderAndLimit(t *testing.T) {
	synth := &slowSynth{}
	texts := []string{"a", "bb", "", "dddd", "eeeee", "ffffff"}

	clips, err := Prefetch(context.Background(), synth, texts, Voice{}, 2)
	require.NoError(t, err)

	require.Len(t, clips, len(texts))
	for i, text := range texts {
		assert.Equal(t, text, clips[i].Text)
		assert.Equal(t, float64(len(text)), clips[i].Duration)
	}
	assert.LessOrEqual(t, synth.peak, 2)
}

func TestPrefetchReportsFailure(t *testing.T) {
	synth := &slowSynth{failOn: "bad"}

	_, err := Prefetch(context.Background(), synth, []string{"ok", "bad", "ok"}, Voice{}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narration 2")
	assert.Contains(t, err.Error(), "quota exceeded")
}
