package animation

import (
	"image/color"

	"github.com/ivlev/voicescene/internal/sequencer"
)

// Fade moves a shape's fade factor between two values. A fade-out hides the
// shape once it completes.
type Fade struct {
	shape    *Shape
	rate     RateFunc
	from, to float64
}

func FadeIn(s *Shape, rate RateFunc) *Fade  { return &Fade{shape: s, rate: rate, from: 0, to: 1} }
func FadeOut(s *Shape, rate RateFunc) *Fade { return &Fade{shape: s, rate: rate, from: 1, to: 0} }

func (f *Fade) Start() {
	if f.to > f.from {
		f.shape.Visible = true
		f.shape.Reveal = 1
		f.shape.Fade = f.from
		return
	}
	f.from = f.shape.Fade
}

func (f *Fade) Apply(alpha float64) {
	f.shape.Fade = lerp(f.from, f.to, f.rate(alpha))
	if alpha >= 1 && f.to == 0 {
		f.shape.Visible = false
	}
}

// Reveal draws a shape progressively: outlines are traced, text is typed
// and images are wiped in from the left.
type Reveal struct {
	shape *Shape
	rate  RateFunc
}

func Create(s *Shape, rate RateFunc) *Reveal { return &Reveal{shape: s, rate: rate} }

func (r *Reveal) Start() {
	r.shape.Visible = true
	r.shape.Fade = 1
	r.shape.Reveal = 0
}

func (r *Reveal) Apply(alpha float64) {
	r.shape.Reveal = r.rate(alpha)
}

// Grow scales a shape up from nothing around its anchor.
type Grow struct {
	shape *Shape
	rate  RateFunc
	scale float64
}

func NewGrow(s *Shape, rate RateFunc) *Grow { return &Grow{shape: s, rate: rate} }

func (g *Grow) Start() {
	g.scale = g.shape.Scale
	g.shape.Visible = true
	g.shape.Fade = 1
	g.shape.Reveal = 1
	g.shape.Scale = 0
}

func (g *Grow) Apply(alpha float64) {
	g.shape.Scale = lerp(0, g.scale, g.rate(alpha))
}

// Transform interpolates a shape from the state it has when the step starts
// to the state computed by End.
type Transform struct {
	shape    *Shape
	rate     RateFunc
	End      func(State) State
	from, to State
}

func NewTransform(s *Shape, rate RateFunc, end func(State) State) *Transform {
	return &Transform{shape: s, rate: rate, End: end}
}

func (t *Transform) Start() {
	t.from = t.shape.State
	t.to = t.End(t.from)
}

func (t *Transform) Apply(alpha float64) {
	t.shape.State = t.from.lerp(t.to, t.rate(alpha))
}

// MoveTo moves a shape to an absolute position. A nil axis keeps its
// current coordinate.
func MoveTo(s *Shape, x, y *float64, rate RateFunc) *Transform {
	return NewTransform(s, rate, func(st State) State {
		if x != nil {
			st.Pos.X = *x
		}
		if y != nil {
			st.Pos.Y = *y
		}
		return st
	})
}

func Shift(s *Shape, d Vec, rate RateFunc) *Transform {
	return NewTransform(s, rate, func(st State) State {
		st.Pos = st.Pos.Add(d)
		return st
	})
}

// Rotate turns a shape by rad radians relative to its current rotation.
func Rotate(s *Shape, rad float64, rate RateFunc) *Transform {
	return NewTransform(s, rate, func(st State) State {
		st.Rotation += rad
		return st
	})
}

func ScaleBy(s *Shape, factor float64, rate RateFunc) *Transform {
	return NewTransform(s, rate, func(st State) State {
		st.Scale *= factor
		return st
	})
}

// Recolor changes stroke and fill. A nil color leaves that channel as is.
// Text and dots have no stroke, so their stroke color goes to the fill.
func Recolor(s *Shape, stroke, fill *color.RGBA, rate RateFunc) *Transform {
	return NewTransform(s, rate, func(st State) State {
		return recolor(s.Kind, st, stroke, fill)
	})
}

func recolor(kind Kind, st State, stroke, fill *color.RGBA) State {
	if stroke != nil && solid(kind) && fill == nil {
		fill = stroke
		stroke = nil
	}
	if stroke != nil {
		st.Style.Stroke = *stroke
	}
	if fill != nil {
		st.Style.Fill = *fill
		if st.Style.FillOpacity == 0 {
			st.Style.FillOpacity = 1
		}
	}
	return st
}

// Replace morphs one shape into another: src travels to dst's state and is
// then swapped out for dst.
type Replace struct {
	src, dst *Shape
	rate     RateFunc
	from     State
}

func NewReplace(src, dst *Shape, rate RateFunc) *Replace {
	return &Replace{src: src, dst: dst, rate: rate}
}

func (r *Replace) Start() {
	r.from = r.src.State
}

func (r *Replace) Apply(alpha float64) {
	r.src.State = r.from.lerp(r.dst.State, r.rate(alpha))
	if alpha < 1 {
		return
	}
	r.src.Visible = false
	r.src.State = r.from
	r.dst.Visible = true
	r.dst.Fade = 1
	r.dst.Reveal = 1
}

// Group plays several actions over the same sub-step.
type Group []sequencer.Action

func (g Group) Start() {
	for _, a := range g {
		a.Start()
	}
}

func (g Group) Apply(alpha float64) {
	for _, a := range g {
		a.Apply(alpha)
	}
}

// OnVisible binds an action to every shape visible on the canvas when the
// step starts.
type OnVisible struct {
	canvas *Canvas
	build  func(*Shape) sequencer.Action
	group  Group
}

func NewOnVisible(c *Canvas, build func(*Shape) sequencer.Action) *OnVisible {
	return &OnVisible{canvas: c, build: build}
}

func (o *OnVisible) Start() {
	o.group = o.group[:0]
	for _, s := range o.canvas.Visible() {
		o.group = append(o.group, o.build(s))
	}
	o.group.Start()
}

func (o *OnVisible) Apply(alpha float64) {
	o.group.Apply(alpha)
}
