package scene

// Scene is a complete narrated scene: declared shapes plus the narration
// segments that animate them.
type Scene struct {
	Version    string        `yaml:"version"`
	Name       string        `yaml:"name"`
	Title      string        `yaml:"title,omitempty"`
	Voice      Voice         `yaml:"voice"`
	Background string        `yaml:"background,omitempty"`
	Shapes     []ShapeSpec   `yaml:"shapes"`
	Segments   []SegmentSpec `yaml:"segments"`
}

// Voice selects the narrator. ID wins over Name when both are set.
type Voice struct {
	ID              string   `yaml:"id,omitempty"`
	Name            string   `yaml:"name,omitempty"`
	Model           string   `yaml:"model,omitempty"`
	Stability       *float64 `yaml:"stability,omitempty"`
	SimilarityBoost *float64 `yaml:"similarity_boost,omitempty"`
	Style           *float64 `yaml:"style,omitempty"`
}

// ShapeSpec declares one primitive. Coordinates are scene units: the frame
// is 8 units tall, origin at the centre, y pointing up. Angles are degrees.
type ShapeSpec struct {
	ID          string       `yaml:"id"`
	Kind        string       `yaml:"kind"`
	X           float64      `yaml:"x,omitempty"`
	Y           float64      `yaml:"y,omitempty"`
	Width       float64      `yaml:"width,omitempty"`
	Height      float64      `yaml:"height,omitempty"`
	Radius      float64      `yaml:"radius,omitempty"`
	Angle       float64      `yaml:"angle,omitempty"`
	StartAngle  float64      `yaml:"start_angle,omitempty"`
	Rotation    float64      `yaml:"rotation,omitempty"`
	Scale       float64      `yaml:"scale,omitempty"`
	Points      [][2]float64 `yaml:"points,omitempty"`
	Text        string       `yaml:"text,omitempty"`
	FontSize    float64      `yaml:"font_size,omitempty"`
	Color       string       `yaml:"color,omitempty"`
	Fill        string       `yaml:"fill,omitempty"`
	FillOpacity *float64     `yaml:"fill_opacity,omitempty"`
	StrokeWidth float64      `yaml:"stroke_width,omitempty"`
	Opacity     *float64     `yaml:"opacity,omitempty"`
	Visible     bool         `yaml:"visible,omitempty"`
	Src         string       `yaml:"src,omitempty"`
	Page        int          `yaml:"page,omitempty"`
	Trim        bool         `yaml:"trim,omitempty"`
	Content     string       `yaml:"content,omitempty"`
}

// SegmentSpec is one narration cue. An empty Text makes a silent segment
// whose length is the sum of its fixed-duration steps.
type SegmentSpec struct {
	Text  string     `yaml:"text,omitempty"`
	Hold  float64    `yaml:"hold,omitempty"`
	Steps []StepSpec `yaml:"steps"`
}

// StepSpec is one sub-step. Animations in Play run together. With neither
// Weight nor Duration set the step gets weight 1.
type StepSpec struct {
	Label    string          `yaml:"label,omitempty"`
	Weight   *float64        `yaml:"weight,omitempty"`
	Duration *float64        `yaml:"duration,omitempty"`
	Play     []AnimationSpec `yaml:"play,omitempty"`
}

// AnimationSpec mutates one or more shapes.
type AnimationSpec struct {
	Kind    string   `yaml:"kind"`
	Target  string   `yaml:"target,omitempty"`
	Targets []string `yaml:"targets,omitempty"`
	To      string   `yaml:"to,omitempty"`
	X       *float64 `yaml:"x,omitempty"`
	Y       *float64 `yaml:"y,omitempty"`
	DX      float64  `yaml:"dx,omitempty"`
	DY      float64  `yaml:"dy,omitempty"`
	Angle   float64  `yaml:"angle,omitempty"`
	Scale   float64  `yaml:"scale,omitempty"`
	Color   string   `yaml:"color,omitempty"`
	Fill    string   `yaml:"fill,omitempty"`
	Rate    string   `yaml:"rate,omitempty"`
}

// AllTargets is the target that selects every visible shape.
const AllTargets = "all"

// TargetIDs returns Target and Targets combined, in declaration order.
func (a AnimationSpec) TargetIDs() []string {
	var ids []string
	if a.Target != "" {
		ids = append(ids, a.Target)
	}
	return append(ids, a.Targets...)
}

// Narrated returns the texts of all non-silent segments in order.
func (s *Scene) Narrated() []string {
	var texts []string
	for _, seg := range s.Segments {
		if seg.Text != "" {
			texts = append(texts, seg.Text)
		}
	}
	return texts
}
