// Package sequencer drives narration and visuals along one logical timeline.
//
// A Scene is an ordered list of narration segments. Each segment's narration
// duration is split across its sub-steps (see Resolve), the sub-steps are
// played one after another, and any time left over is filled with an idle
// wait so the next segment starts only when both narration and visuals are
// done.
package sequencer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Action is a visual mutation interpolated over one sub-step.
// Start is called once before the first Apply; Apply receives the linear
// progress in [0,1] and is always called with 1 before the step ends.
type Action interface {
	Start()
	Apply(alpha float64)
}

// SubStep is one atomic visual mutation. Either Weight or Fixed applies;
// Fixed wins when both are set.
type SubStep struct {
	Label  string
	Action Action // nil for an idle beat
	Weight float64
	Fixed  *float64
}

// NarrationSegment is one narration cue with its visual sub-steps.
type NarrationSegment struct {
	Text          string
	AudioPath     string
	AudioDuration float64
	Steps         []SubStep
	Hold          float64 // pause after the segment barrier
}

// Silent reports whether the segment has no narration to play.
func (s NarrationSegment) Silent() bool {
	return s.Text == ""
}

type Scene struct {
	Name     string
	Segments []NarrationSegment
}

// Player renders visual mutations over a duration.
type Player interface {
	Play(ctx context.Context, label string, action Action, duration float64) error
	Wait(ctx context.Context, duration float64) error
}

// AudioTrack schedules narration playback at an offset on the timeline.
type AudioTrack interface {
	Begin(ctx context.Context, segment NarrationSegment, offset float64) error
}

// Report summarizes how one segment was played.
type Report struct {
	Index   int
	Text    string
	Start   float64
	Audio   float64
	Visual  float64
	Idle    float64
	Overrun float64
	Hold    float64
	Steps   []float64
}

type Sequencer struct {
	Player Player
	Audio  AudioTrack
	Log    logrus.FieldLogger

	reports []Report
	offset  float64
}

func New(player Player, audio AudioTrack, log logrus.FieldLogger) *Sequencer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sequencer{Player: player, Audio: audio, Log: log}
}

// Run plays every segment of scene in order. Overruns are logged and never
// fail the run; collaborator errors are returned unchanged in the chain.
func (s *Sequencer) Run(ctx context.Context, scene Scene) error {
	s.reports = s.reports[:0]
	s.offset = 0

	for i, seg := range scene.Segments {
		report, err := s.runSegment(ctx, i, seg)
		if err != nil {
			return fmt.Errorf("segment %d: %w", i+1, err)
		}
		s.reports = append(s.reports, report)
	}

	s.Log.WithFields(logrus.Fields{
		"scene":    scene.Name,
		"segments": len(scene.Segments),
		"duration": fmt.Sprintf("%.2fs", s.offset),
	}).Debug("scene sequenced")
	return nil
}

func (s *Sequencer) runSegment(ctx context.Context, index int, seg NarrationSegment) (Report, error) {
	log := s.Log.WithField("segment", index+1)
	start := s.offset

	if !seg.Silent() && s.Audio != nil {
		if err := s.Audio.Begin(ctx, seg, start); err != nil {
			return Report{}, err
		}
	}

	audio := seg.AudioDuration
	if !finite(audio) || audio < 0 {
		audio = 0
	}
	plan := Resolve(seg.Steps, audio)
	if plan.Clamped {
		log.WithField("audio", seg.AudioDuration).Warn("step timing clamped: fixed steps exceed narration or a value is not finite")
	}

	for i, step := range seg.Steps {
		if err := s.Player.Play(ctx, step.Label, step.Action, plan.Durations[i]); err != nil {
			return Report{}, fmt.Errorf("step %d (%s): %w", i+1, step.Label, err)
		}
	}

	if plan.Idle > 0 {
		if err := s.Player.Wait(ctx, plan.Idle); err != nil {
			return Report{}, err
		}
	}
	if plan.Overrun > 0 && !seg.Silent() {
		log.WithFields(logrus.Fields{
			"audio":   fmt.Sprintf("%.2fs", audio),
			"overrun": fmt.Sprintf("%.2fs", plan.Overrun),
		}).Warn("visuals overrun narration")
	}

	visual := plan.Visual()
	s.offset += max(visual, audio)

	hold := seg.Hold
	if !finite(hold) || hold < 0 {
		hold = 0
	}
	if hold > 0 {
		if err := s.Player.Wait(ctx, hold); err != nil {
			return Report{}, err
		}
		s.offset += hold
	}

	return Report{
		Index:   index,
		Text:    seg.Text,
		Start:   start,
		Audio:   audio,
		Visual:  visual,
		Idle:    plan.Idle,
		Overrun: plan.Overrun,
		Hold:    hold,
		Steps:   plan.Durations,
	}, nil
}

// Reports returns the per-segment summaries of the last Run.
func (s *Sequencer) Reports() []Report {
	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Duration is the timeline length reached by the last Run.
func (s *Sequencer) Duration() float64 {
	return s.offset
}
