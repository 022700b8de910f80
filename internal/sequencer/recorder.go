package sequencer

import "context"

type EntryKind string

const (
	EntryAudio EntryKind = "audio"
	EntryPlay  EntryKind = "play"
	EntryWait  EntryKind = "wait"
)

// Entry is one event on a recorded timeline.
type Entry struct {
	Kind     EntryKind
	Label    string
	Start    float64
	Duration float64
}

// Recorder is a Player and AudioTrack that only records what it is asked to
// do. Actions are still applied so scene state ends up where a real render
// would leave it.
type Recorder struct {
	Entries []Entry
	clock   float64
}

func (r *Recorder) Play(_ context.Context, label string, action Action, duration float64) error {
	if action != nil {
		action.Start()
		action.Apply(1)
	}
	r.Entries = append(r.Entries, Entry{Kind: EntryPlay, Label: label, Start: r.clock, Duration: duration})
	r.clock += duration
	return nil
}

func (r *Recorder) Wait(_ context.Context, duration float64) error {
	r.Entries = append(r.Entries, Entry{Kind: EntryWait, Start: r.clock, Duration: duration})
	r.clock += duration
	return nil
}

func (r *Recorder) Begin(_ context.Context, seg NarrationSegment, offset float64) error {
	r.Entries = append(r.Entries, Entry{Kind: EntryAudio, Label: seg.Text, Start: offset, Duration: seg.AudioDuration})
	return nil
}

// Clock is the visual time consumed so far.
func (r *Recorder) Clock() float64 {
	return r.clock
}

// Filter returns the entries of the given kind, in order.
func (r *Recorder) Filter(kind EntryKind) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
