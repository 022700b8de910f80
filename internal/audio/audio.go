// Package audio lays narration clips out on a timeline and mixes them into
// one soundtrack.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ivlev/voicescene/internal/sequencer"
	"github.com/sirupsen/logrus"
)

const sampleRate = 44100

// Placement is a clip scheduled at an offset on the timeline.
type Placement struct {
	Text     string
	Path     string
	Offset   float64
	Duration float64
}

// Music is an optional looped background bed.
type Music struct {
	Path   string
	Volume float64
}

// Track collects narration placements while the sequencer runs.
type Track struct {
	Placements []Placement
	Log        logrus.FieldLogger
}

var _ sequencer.AudioTrack = (*Track)(nil)

func (t *Track) Begin(_ context.Context, seg sequencer.NarrationSegment, offset float64) error {
	if seg.AudioPath == "" {
		t.Log.WithField("offset", offset).Debug("segment has no audio file, leaving silence")
		return nil
	}
	t.Placements = append(t.Placements, Placement{
		Text:     seg.Text,
		Path:     seg.AudioPath,
		Offset:   offset,
		Duration: seg.AudioDuration,
	})
	return nil
}

// Mix renders the timeline to out. total is the video length; the result is
// exactly that long.
func (t *Track) Mix(ctx context.Context, out string, total float64, music *Music) error {
	args := buildMixArgs(t.Placements, total, music, out)
	t.Log.WithFields(logrus.Fields{"clips": len(t.Placements), "out": out}).Debug("mixing narration")

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg mix error: %v, output: %s", err, stderr.String())
	}
	return nil
}

func buildMixArgs(placements []Placement, total float64, music *Music, out string) []string {
	args := []string{"-y", "-f", "lavfi", "-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo:d=%f", sampleRate, total)}
	for _, p := range placements {
		args = append(args, "-i", p.Path)
	}

	var filters []string
	inputs := []string{"[0:a]"}
	for i, p := range placements {
		delay := int(p.Offset * 1000)
		label := fmt.Sprintf("[v%d]", i+1)
		filters = append(filters, fmt.Sprintf("[%d:a]aresample=%d,adelay=%d|%d%s", i+1, sampleRate, delay, delay, label))
		inputs = append(inputs, label)
	}

	if music != nil && music.Path != "" {
		idx := len(placements) + 1
		args = append(args, "-stream_loop", "-1", "-i", music.Path)
		filters = append(filters, fmt.Sprintf("[%d:a]atrim=duration=%f,%s[bg]", idx, total, musicVolume(music.Volume, total)))
		inputs = append(inputs, "[bg]")
	}

	filters = append(filters, fmt.Sprintf("%samix=inputs=%d:duration=first:dropout_transition=0:normalize=0[aout]",
		strings.Join(inputs, ""), len(inputs)))

	return append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[aout]",
		"-t", fmt.Sprintf("%f", total),
		"-c:a", "aac", "-b:a", "192k",
		out,
	)
}

// musicVolume fades the bed in over the first seconds and out at the end.
func musicVolume(volume, total float64) string {
	fadeIn, fadeOut := 5.0, 5.0
	if total < fadeIn+fadeOut {
		fadeIn = total * 0.1
		fadeOut = total * 0.1
	}
	return fmt.Sprintf("volume='%f*(if(lte(t,%f), 0.1 + 0.9*(t/%f), if(gte(t, %f), (%f-t)/%f, 1.0)))':eval=frame",
		volume, fadeIn, fadeIn, total-fadeOut, total, fadeOut)
}
