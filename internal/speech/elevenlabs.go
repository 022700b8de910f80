package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ivlev/voicescene/internal/system"
)

const (
	defaultBaseURL     = "https://api.elevenlabs.io"
	defaultModel       = "eleven_turbo_v2_5"
	defaultHTTPTimeout = 60 * time.Second
	outputFormat       = "mp3_44100_128"
)

var ErrNoAPIKey = errors.New("ELEVENLABS_API_KEY is not set")

// ElevenLabs synthesizes speech through the ElevenLabs HTTP API and stores
// the audio as mp3 files in Dir.
type ElevenLabs struct {
	apiKey     string
	baseURL    string
	dir        string
	model      string
	httpClient *http.Client
	probe      func(ctx context.Context, path string) (float64, error)

	mu     sync.Mutex
	voices map[string]string
}

type Option func(*ElevenLabs)

func WithHTTPClient(client *http.Client) Option {
	return func(e *ElevenLabs) {
		if client != nil {
			e.httpClient = client
		}
	}
}

func WithBaseURL(base string) Option {
	return func(e *ElevenLabs) {
		base = strings.TrimSpace(base)
		if base != "" {
			e.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel sets the model used when a voice does not name one.
func WithModel(model string) Option {
	return func(e *ElevenLabs) {
		if model != "" {
			e.model = model
		}
	}
}

// WithProbe replaces ffprobe for measuring clip length.
func WithProbe(probe func(ctx context.Context, path string) (float64, error)) Option {
	return func(e *ElevenLabs) {
		if probe != nil {
			e.probe = probe
		}
	}
}

func NewElevenLabs(apiKey, dir string, opts ...Option) (*ElevenLabs, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	e := &ElevenLabs{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		dir:        dir,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		probe:      system.GetAudioDuration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

type voiceSettings struct {
	Stability       *float64 `json:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarity_boost,omitempty"`
	Style           *float64 `json:"style,omitempty"`
}

type ttsRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string, voice Voice) (*Clip, error) {
	voiceID, err := e.resolveVoice(ctx, voice)
	if err != nil {
		return nil, err
	}

	payload := ttsRequest{Text: text, ModelID: voice.Model}
	if payload.ModelID == "" {
		payload.ModelID = e.model
	}
	if voice.Stability != nil || voice.SimilarityBoost != nil || voice.Style != nil {
		payload.VoiceSettings = &voiceSettings{
			Stability:       voice.Stability,
			SimilarityBoost: voice.SimilarityBoost,
			Style:           voice.Style,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", e.baseURL, url.PathEscape(voiceID), outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	audio, err := e.do(req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(e.dir, Key(text, voice)+".mp3")
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}

	duration, err := e.probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Clip{Text: text, Path: path, Duration: duration}, nil
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string `json:"voice_id"`
		Name    string `json:"name"`
	} `json:"voices"`
}

// resolveVoice maps a voice name to its id, listing the account's voices once.
func (e *ElevenLabs) resolveVoice(ctx context.Context, voice Voice) (string, error) {
	if voice.ID != "" {
		return voice.ID, nil
	}
	if voice.Name == "" {
		return "", errors.New("voice has neither id nor name")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voices == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/v1/voices", nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("xi-api-key", e.apiKey)
		data, err := e.do(req)
		if err != nil {
			return "", err
		}
		var resp voicesResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return "", fmt.Errorf("decode voices: %w", err)
		}
		e.voices = make(map[string]string, len(resp.Voices))
		for _, v := range resp.Voices {
			e.voices[strings.ToLower(v.Name)] = v.VoiceID
		}
	}

	id, ok := e.voices[strings.ToLower(voice.Name)]
	if !ok {
		return "", fmt.Errorf("voice %q not found", voice.Name)
	}
	return id, nil
}

func (e *ElevenLabs) do(req *http.Request) ([]byte, error) {
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, fmt.Errorf("elevenlabs error: %s - %s", resp.Status, msg)
	}
	return data, nil
}
