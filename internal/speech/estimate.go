package speech

import (
	"context"
	"strings"
)

const minEstimate = 0.5

// Estimator guesses narration length from the word count without producing
// audio. It is used for planning and for renders without an API key.
type Estimator struct {
	WordsPerSecond float64
}

func (e Estimator) Name() string { return "estimate" }

func (e Estimator) Synthesize(_ context.Context, text string, _ Voice) (*Clip, error) {
	return &Clip{Text: text, Duration: e.Estimate(text)}, nil
}

func (e Estimator) Estimate(text string) float64 {
	wps := e.WordsPerSecond
	if wps <= 0 {
		wps = 2.5
	}
	return max(float64(len(strings.Fields(text)))/wps, minEstimate)
}
