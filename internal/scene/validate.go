package scene

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownShape = errors.New("unknown shape")
	ErrUnknownKind  = errors.New("unknown kind")
)

// Shape kinds.
const (
	KindCircle    = "circle"
	KindRectangle = "rectangle"
	KindSquare    = "square"
	KindSector    = "sector"
	KindLine      = "line"
	KindArrow     = "arrow"
	KindDot       = "dot"
	KindText      = "text"
	KindImage     = "image"
	KindQRCode    = "qrcode"
)

// Animation kinds.
const (
	AnimFadeIn    = "fade_in"
	AnimFadeOut   = "fade_out"
	AnimCreate    = "create"
	AnimWrite     = "write"
	AnimGrow      = "grow"
	AnimTransform = "transform"
	AnimMove      = "move"
	AnimShift     = "shift"
	AnimRotate    = "rotate"
	AnimScale     = "scale"
	AnimRecolor   = "recolor"
)

var shapeKinds = map[string]bool{
	KindCircle: true, KindRectangle: true, KindSquare: true, KindSector: true,
	KindLine: true, KindArrow: true, KindDot: true, KindText: true,
	KindImage: true, KindQRCode: true,
}

var animationKinds = map[string]bool{
	AnimFadeIn: true, AnimFadeOut: true, AnimCreate: true, AnimWrite: true,
	AnimGrow: true, AnimTransform: true, AnimMove: true, AnimShift: true,
	AnimRotate: true, AnimScale: true, AnimRecolor: true,
}

// Validate checks references and timing fields. All problems are reported
// together.
func (s *Scene) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("scene has no name"))
	}

	ids := make(map[string]bool, len(s.Shapes))
	for i, sh := range s.Shapes {
		switch {
		case sh.ID == "":
			errs = append(errs, fmt.Errorf("shape %d: missing id", i+1))
		case ids[sh.ID]:
			errs = append(errs, fmt.Errorf("shape %q: duplicate id", sh.ID))
		case sh.ID == AllTargets:
			errs = append(errs, fmt.Errorf("shape %q: reserved id", sh.ID))
		}
		ids[sh.ID] = true

		if !shapeKinds[sh.Kind] {
			errs = append(errs, fmt.Errorf("shape %q: %w %q", sh.ID, ErrUnknownKind, sh.Kind))
		}
		switch sh.Kind {
		case KindLine, KindArrow:
			if len(sh.Points) != 2 {
				errs = append(errs, fmt.Errorf("shape %q: %s needs exactly 2 points", sh.ID, sh.Kind))
			}
		case KindImage:
			if sh.Src == "" {
				errs = append(errs, fmt.Errorf("shape %q: image needs src", sh.ID))
			}
		case KindQRCode:
			if sh.Content == "" {
				errs = append(errs, fmt.Errorf("shape %q: qrcode needs content", sh.ID))
			}
		}
	}

	for i, seg := range s.Segments {
		where := fmt.Sprintf("segment %d", i+1)
		switch {
		case !finite(seg.Hold):
			errs = append(errs, fmt.Errorf("%s: hold is not a finite number", where))
		case seg.Hold < 0:
			errs = append(errs, fmt.Errorf("%s: negative hold", where))
		}
		for j, step := range seg.Steps {
			stepWhere := fmt.Sprintf("%s step %d", where, j+1)
			if step.Weight != nil && step.Duration != nil {
				errs = append(errs, fmt.Errorf("%s: weight and duration are exclusive", stepWhere))
			}
			if step.Weight != nil && !finite(*step.Weight) {
				errs = append(errs, fmt.Errorf("%s: weight is not a finite number", stepWhere))
			}
			if step.Duration != nil {
				switch d := *step.Duration; {
				case !finite(d):
					errs = append(errs, fmt.Errorf("%s: duration is not a finite number", stepWhere))
				case d < 0:
					errs = append(errs, fmt.Errorf("%s: negative duration", stepWhere))
				}
			}
			for _, anim := range step.Play {
				if !animationKinds[anim.Kind] {
					errs = append(errs, fmt.Errorf("%s: %w %q", stepWhere, ErrUnknownKind, anim.Kind))
				}
				targets := anim.TargetIDs()
				if len(targets) == 0 {
					errs = append(errs, fmt.Errorf("%s: %s has no target", stepWhere, anim.Kind))
				}
				for _, id := range targets {
					if id == AllTargets {
						continue
					}
					if !ids[id] {
						errs = append(errs, fmt.Errorf("%s: %w %q", stepWhere, ErrUnknownShape, id))
					}
				}
				if anim.To != "" && !ids[anim.To] {
					errs = append(errs, fmt.Errorf("%s: %w %q", stepWhere, ErrUnknownShape, anim.To))
				}
				if err := anim.checkFields(); err != nil {
					errs = append(errs, fmt.Errorf("%s: %s: %w", stepWhere, anim.Kind, err))
				}
			}
		}
		if seg.Text == "" && !hasFixed(seg.Steps) && seg.Hold == 0 {
			errs = append(errs, fmt.Errorf("%s: silent segment needs a fixed duration or hold", where))
		}
	}
	return errors.Join(errs...)
}

func hasFixed(steps []StepSpec) bool {
	for _, st := range steps {
		if st.Duration != nil {
			return true
		}
	}
	return false
}

// checkFields requires the fields each animation kind reads. Kinds that
// take no parameters always pass.
func (a AnimationSpec) checkFields() error {
	for _, v := range []*float64{a.X, a.Y} {
		if v != nil && !finite(*v) {
			return errors.New("x and y must be finite numbers")
		}
	}
	if !finite(a.DX) || !finite(a.DY) || !finite(a.Angle) || !finite(a.Scale) {
		return errors.New("dx, dy, angle and scale must be finite numbers")
	}
	if a.To != "" && a.Kind != AnimTransform {
		return errors.New("to is only valid for transform")
	}

	switch a.Kind {
	case AnimMove:
		if a.X == nil && a.Y == nil {
			return errors.New("needs x or y")
		}
	case AnimShift:
		if a.DX == 0 && a.DY == 0 {
			return errors.New("needs dx or dy")
		}
	case AnimRotate:
		if a.Angle == 0 {
			return errors.New("needs a nonzero angle")
		}
	case AnimScale:
		if a.Scale == 0 {
			return errors.New("needs a nonzero scale")
		}
	case AnimRecolor:
		if a.Color == "" && a.Fill == "" {
			return errors.New("needs color or fill")
		}
	case AnimTransform:
		if a.To == "" && a.X == nil && a.Y == nil && a.DX == 0 && a.DY == 0 &&
			a.Angle == 0 && a.Scale == 0 && a.Color == "" && a.Fill == "" {
			return errors.New("needs to or at least one target field")
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
