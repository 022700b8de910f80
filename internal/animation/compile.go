package animation

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/ivlev/voicescene/internal/scene"
	"github.com/ivlev/voicescene/internal/sequencer"
)

// AssetLoader provides pixels for image and qrcode shapes.
type AssetLoader interface {
	Load(spec scene.ShapeSpec) (image.Image, error)
}

type Options struct {
	Width, Height int
	// Background is used when the scene does not set its own.
	Background string
	Assets     AssetLoader
}

const (
	defaultStrokeWidth = 4
	defaultFontSize    = 48
	dotRadius          = 0.08
)

var ErrNoAssets = errors.New("scene uses images but no asset loader is configured")

// Compile turns a scene table into a canvas and the narration segments that
// animate it. Actions hold pointers into the returned canvas.
func Compile(sc *scene.Scene, opts Options) (*Canvas, []sequencer.NarrationSegment, error) {
	bgName := sc.Background
	if bgName == "" {
		bgName = opts.Background
	}
	bg := Palette["BLACK"]
	if bgName != "" {
		c, err := ParseColor(bgName)
		if err != nil {
			return nil, nil, fmt.Errorf("background: %w", err)
		}
		bg = c
	}

	canvas := NewCanvas(opts.Width, opts.Height, bg)
	for _, spec := range sc.Shapes {
		sh, err := buildShape(spec, opts.Assets)
		if err != nil {
			return nil, nil, fmt.Errorf("shape %q: %w", spec.ID, err)
		}
		canvas.Add(sh)
	}

	segments := make([]sequencer.NarrationSegment, 0, len(sc.Segments))
	for i, segSpec := range sc.Segments {
		seg := sequencer.NarrationSegment{Text: segSpec.Text, Hold: segSpec.Hold}
		for j, stepSpec := range segSpec.Steps {
			step, err := buildStep(canvas, stepSpec)
			if err != nil {
				return nil, nil, fmt.Errorf("segment %d step %d: %w", i+1, j+1, err)
			}
			seg.Steps = append(seg.Steps, step)
		}
		segments = append(segments, seg)
	}
	return canvas, segments, nil
}

func buildShape(spec scene.ShapeSpec, assets AssetLoader) (*Shape, error) {
	sh := &Shape{
		ID:      spec.ID,
		Kind:    Kind(spec.Kind),
		Text:    spec.Text,
		Visible: spec.Visible,
		Fade:    1,
		Reveal:  1,
		State: State{
			Pos:        Vec{spec.X, spec.Y},
			Scale:      orDefault(spec.Scale, 1),
			Rotation:   radians(spec.Rotation),
			Width:      spec.Width,
			Height:     spec.Height,
			Radius:     spec.Radius,
			Angle:      radians(spec.Angle),
			StartAngle: radians(spec.StartAngle),
			Opacity:    1,
		},
	}
	if spec.Opacity != nil {
		sh.Opacity = *spec.Opacity
	}

	style, err := buildStyle(spec)
	if err != nil {
		return nil, err
	}
	sh.Style = style

	switch sh.Kind {
	case Circle:
		sh.Radius = orDefault(sh.Radius, 1)
	case Dot:
		sh.Radius = orDefault(sh.Radius, dotRadius)
	case Sector:
		sh.Radius = orDefault(sh.Radius, 1)
		sh.Angle = orDefault(sh.Angle, math.Pi/2)
	case Square:
		side := orDefault(sh.Width, 2)
		sh.Width, sh.Height = side, side
	case Rectangle:
		sh.Width = orDefault(sh.Width, 4)
		sh.Height = orDefault(sh.Height, 2)
	case Line, Arrow:
		// Anchored at the first point so Grow extends from the tail.
		p0 := Vec{spec.Points[0][0], spec.Points[0][1]}
		p1 := Vec{spec.Points[1][0], spec.Points[1][1]}
		sh.Pos = p0
		sh.Points = []Vec{{}, {p1.X - p0.X, p1.Y - p0.Y}}
	case Text:
		sh.FontSize = orDefault(spec.FontSize, defaultFontSize)
	case Picture, QRCode:
		if assets == nil {
			return nil, ErrNoAssets
		}
		img, err := assets.Load(spec)
		if err != nil {
			return nil, err
		}
		sh.Image = img
		sh.Height = orDefault(sh.Height, 2)
		if sh.Width == 0 {
			b := img.Bounds()
			sh.Width = sh.Height * float64(b.Dx()) / float64(max(b.Dy(), 1))
		}
	}
	return sh, nil
}

func buildStyle(spec scene.ShapeSpec) (Style, error) {
	style := Style{
		Stroke:      Palette["WHITE"],
		Fill:        None,
		StrokeWidth: orDefault(spec.StrokeWidth, defaultStrokeWidth),
	}
	if spec.Color != "" {
		c, err := ParseColor(spec.Color)
		if err != nil {
			return style, err
		}
		style.Stroke = c
	}
	if spec.Fill != "" {
		c, err := ParseColor(spec.Fill)
		if err != nil {
			return style, err
		}
		style.Fill = c
		style.FillOpacity = 1
	}
	if spec.FillOpacity != nil {
		style.FillOpacity = *spec.FillOpacity
	}

	if solid(Kind(spec.Kind)) {
		if spec.Fill == "" {
			style.Fill = style.Stroke
			if spec.FillOpacity == nil {
				style.FillOpacity = 1
			}
		}
		style.Stroke = None
	}
	return style, nil
}

func buildStep(canvas *Canvas, spec scene.StepSpec) (sequencer.SubStep, error) {
	step := sequencer.SubStep{Label: spec.Label, Fixed: spec.Duration}
	switch {
	case spec.Weight != nil:
		step.Weight = *spec.Weight
	case spec.Duration == nil:
		step.Weight = 1
	}

	var group Group
	var names []string
	for _, anim := range spec.Play {
		build, err := actionBuilder(canvas, anim)
		if err != nil {
			return step, err
		}
		for _, id := range anim.TargetIDs() {
			names = append(names, anim.Kind+"("+id+")")
			if id == scene.AllTargets {
				group = append(group, NewOnVisible(canvas, build))
				continue
			}
			sh, ok := canvas.Shape(id)
			if !ok {
				return step, fmt.Errorf("%w %q", scene.ErrUnknownShape, id)
			}
			group = append(group, build(sh))
		}
	}
	if step.Label == "" {
		step.Label = strings.Join(names, " ")
	}

	switch len(group) {
	case 0:
	case 1:
		step.Action = group[0]
	default:
		step.Action = group
	}
	return step, nil
}

func actionBuilder(canvas *Canvas, anim scene.AnimationSpec) (func(*Shape) sequencer.Action, error) {
	rate := RateByName(anim.Rate)
	switch anim.Kind {
	case scene.AnimFadeIn:
		return func(s *Shape) sequencer.Action { return FadeIn(s, rate) }, nil
	case scene.AnimFadeOut:
		return func(s *Shape) sequencer.Action { return FadeOut(s, rate) }, nil
	case scene.AnimCreate, scene.AnimWrite:
		return func(s *Shape) sequencer.Action { return Create(s, rate) }, nil
	case scene.AnimGrow:
		return func(s *Shape) sequencer.Action { return NewGrow(s, rate) }, nil
	case scene.AnimMove:
		return func(s *Shape) sequencer.Action { return MoveTo(s, anim.X, anim.Y, rate) }, nil
	case scene.AnimShift:
		d := Vec{anim.DX, anim.DY}
		return func(s *Shape) sequencer.Action { return Shift(s, d, rate) }, nil
	case scene.AnimRotate:
		rad := radians(anim.Angle)
		return func(s *Shape) sequencer.Action { return Rotate(s, rad, rate) }, nil
	case scene.AnimScale:
		return func(s *Shape) sequencer.Action { return ScaleBy(s, anim.Scale, rate) }, nil
	case scene.AnimRecolor:
		stroke, fill, err := animColors(anim)
		if err != nil {
			return nil, err
		}
		return func(s *Shape) sequencer.Action { return Recolor(s, stroke, fill, rate) }, nil
	case scene.AnimTransform:
		if anim.To != "" {
			dst, ok := canvas.Shape(anim.To)
			if !ok {
				return nil, fmt.Errorf("%w %q", scene.ErrUnknownShape, anim.To)
			}
			return func(s *Shape) sequencer.Action { return NewReplace(s, dst, rate) }, nil
		}
		end, err := endState(anim)
		if err != nil {
			return nil, err
		}
		return func(s *Shape) sequencer.Action {
			return NewTransform(s, rate, func(st State) State { return end(s.Kind, st) })
		}, nil
	}
	return nil, fmt.Errorf("%w %q", scene.ErrUnknownKind, anim.Kind)
}

func animColors(anim scene.AnimationSpec) (stroke, fill *color.RGBA, err error) {
	if anim.Color != "" {
		c, err := ParseColor(anim.Color)
		if err != nil {
			return nil, nil, err
		}
		stroke = &c
	}
	if anim.Fill != "" {
		c, err := ParseColor(anim.Fill)
		if err != nil {
			return nil, nil, err
		}
		fill = &c
	}
	return stroke, fill, nil
}

// endState combines every field a transform sets: x and y are absolute, dx
// and dy relative, angle is added and scale multiplies.
func endState(anim scene.AnimationSpec) (func(Kind, State) State, error) {
	stroke, fill, err := animColors(anim)
	if err != nil {
		return nil, err
	}
	return func(kind Kind, st State) State {
		if anim.X != nil {
			st.Pos.X = *anim.X
		}
		if anim.Y != nil {
			st.Pos.Y = *anim.Y
		}
		st.Pos = st.Pos.Add(Vec{anim.DX, anim.DY})
		st.Rotation += radians(anim.Angle)
		if anim.Scale != 0 {
			st.Scale *= anim.Scale
		}
		return recolor(kind, st, stroke, fill)
	}, nil
}

func solid(k Kind) bool {
	return k == Dot || k == Text
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
