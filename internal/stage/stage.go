package stage

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/ivlev/voicescene/internal/animation"
	"github.com/ivlev/voicescene/internal/sequencer"
	"github.com/ivlev/voicescene/internal/system"
	"github.com/sirupsen/logrus"
)

// FrameSink consumes rendered frames in order. It must not keep the image
// after WriteFrame returns.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

type Drawer interface {
	Draw(c *animation.Canvas, dst *image.RGBA) error
}

// Stage plays actions as frames. Frame counts are derived from the absolute
// end time of each step, so rounding never accumulates into drift against
// the audio.
type Stage struct {
	Canvas *animation.Canvas
	Drawer Drawer
	Sink   FrameSink
	Pool   *system.ImagePool
	FPS    int
	Log    logrus.FieldLogger

	clock   float64
	emitted int
}

func New(canvas *animation.Canvas, drawer Drawer, sink FrameSink, fps int, log logrus.FieldLogger) *Stage {
	return &Stage{
		Canvas: canvas,
		Drawer: drawer,
		Sink:   sink,
		Pool:   system.NewImagePool(),
		FPS:    fps,
		Log:    log,
	}
}

var _ sequencer.Player = (*Stage)(nil)

// framesUntil advances the clock by duration and returns how many frames
// cover the new interval.
func (s *Stage) framesUntil(duration float64) int {
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = 0
	}
	s.clock += math.Max(duration, 0)
	return int(math.Round(s.clock*float64(s.FPS))) - s.emitted
}

func (s *Stage) Play(ctx context.Context, label string, action sequencer.Action, duration float64) error {
	if action != nil {
		action.Start()
	}
	n := s.framesUntil(duration)
	if n <= 0 {
		if action != nil {
			action.Apply(1)
		}
		return nil
	}

	s.Log.WithFields(logrus.Fields{"step": label, "frames": n}).Debug("play")
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if action != nil {
			action.Apply(float64(i) / float64(n))
		}
		if err := s.emit(1); err != nil {
			return err
		}
	}
	return nil
}

// Wait holds the current picture.
func (s *Stage) Wait(ctx context.Context, duration float64) error {
	n := s.framesUntil(duration)
	if n <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.emit(n)
}

// emit renders the canvas once and writes it count times.
func (s *Stage) emit(count int) error {
	frame := s.Pool.Get(s.Canvas.Width, s.Canvas.Height)
	defer s.Pool.Put(frame)

	if err := s.Drawer.Draw(s.Canvas, frame); err != nil {
		return fmt.Errorf("render frame %d: %w", s.emitted, err)
	}
	for i := 0; i < count; i++ {
		if err := s.Sink.WriteFrame(frame); err != nil {
			return fmt.Errorf("frame %d: %w", s.emitted, err)
		}
		s.emitted++
	}
	return nil
}

// Frames is the number of frames written so far.
func (s *Stage) Frames() int {
	return s.emitted
}

// Clock is the exact scene time played so far, in seconds.
func (s *Stage) Clock() float64 {
	return s.clock
}
