// Package speech turns narration text into timed audio clips.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Voice selects a narrator. ID wins over Name.
type Voice struct {
	ID              string
	Name            string
	Model           string
	Stability       *float64
	SimilarityBoost *float64
	Style           *float64
}

// Clip is one synthesized narration. Path is empty for estimated clips.
type Clip struct {
	Text     string
	Path     string
	Duration float64
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) (*Clip, error)
	Name() string
}

// Key identifies a text and voice combination.
func Key(text string, v Voice) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		text, v.ID, v.Name, v.Model, optional(v.Stability), optional(v.SimilarityBoost), optional(v.Style))
	return hex.EncodeToString(h.Sum(nil))
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

// Prefetch synthesizes all texts with at most workers requests in flight.
// Clips come back in input order; empty texts yield empty clips.
func Prefetch(ctx context.Context, synth Synthesizer, texts []string, voice Voice, workers int) ([]*Clip, error) {
	clips := make([]*Clip, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, text := range texts {
		if text == "" {
			clips[i] = &Clip{}
			continue
		}
		g.Go(func() error {
			clip, err := synth.Synthesize(ctx, text, voice)
			if err != nil {
				return fmt.Errorf("narration %d: %w", i+1, err)
			}
			clips[i] = clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}
