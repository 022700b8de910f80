package animation

import (
	"image"
	"image/color"
	"math"
)

// Vec is a point in scene units.
type Vec struct{ X, Y float64 }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }
func (v Vec) Lerp(o Vec, t float64) Vec { return Vec{lerp(v.X, o.X, t), lerp(v.Y, o.Y, t)} }

// Rotate turns v around the origin by rad radians.
func (v Vec) Rotate(rad float64) Vec {
	s, c := math.Sincos(rad)
	return Vec{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

type Kind string

const (
	Circle    Kind = "circle"
	Rectangle Kind = "rectangle"
	Square    Kind = "square"
	Sector    Kind = "sector"
	Line      Kind = "line"
	Arrow     Kind = "arrow"
	Dot       Kind = "dot"
	Text      Kind = "text"
	Picture   Kind = "image"
	QRCode    Kind = "qrcode"
)

type Style struct {
	Stroke      color.RGBA
	Fill        color.RGBA
	FillOpacity float64
	StrokeWidth float64 // pixels at 720p
}

// State is the interpolatable part of a shape.
type State struct {
	Pos        Vec
	Scale      float64
	Rotation   float64 // radians, counter-clockwise
	Width      float64
	Height     float64
	Radius     float64
	Angle      float64 // sector sweep, radians
	StartAngle float64 // radians
	Style      Style
	Opacity    float64
}

func (s State) lerp(o State, t float64) State {
	return State{
		Pos:        s.Pos.Lerp(o.Pos, t),
		Scale:      lerp(s.Scale, o.Scale, t),
		Rotation:   lerp(s.Rotation, o.Rotation, t),
		Width:      lerp(s.Width, o.Width, t),
		Height:     lerp(s.Height, o.Height, t),
		Radius:     lerp(s.Radius, o.Radius, t),
		Angle:      lerp(s.Angle, o.Angle, t),
		StartAngle: lerp(s.StartAngle, o.StartAngle, t),
		Style: Style{
			Stroke:      lerpColor(s.Style.Stroke, o.Style.Stroke, t),
			Fill:        lerpColor(s.Style.Fill, o.Style.Fill, t),
			FillOpacity: lerp(s.Style.FillOpacity, o.Style.FillOpacity, t),
			StrokeWidth: lerp(s.Style.StrokeWidth, o.Style.StrokeWidth, t),
		},
		Opacity: lerp(s.Opacity, o.Opacity, t),
	}
}

// Shape is one primitive on the canvas. Points are relative to Pos.
type Shape struct {
	ID   string
	Kind Kind
	State

	Points   []Vec
	Text     string
	FontSize float64
	Image    image.Image

	// Reveal is the drawn fraction of the outline or text, in [0,1].
	Reveal float64
	// Fade multiplies Opacity while fading in or out.
	Fade    float64
	Visible bool
}

// Canvas is the explicit drawing context a scene mutates: frame geometry,
// background, and shapes in z-order.
type Canvas struct {
	Width, Height int
	Background    color.RGBA
	Shapes        []*Shape

	byID map[string]*Shape
}

// FrameHeight is the visible height in scene units.
const FrameHeight = 8.0

func NewCanvas(width, height int, background color.RGBA) *Canvas {
	return &Canvas{
		Width:      width,
		Height:     height,
		Background: background,
		byID:       make(map[string]*Shape),
	}
}

// Add appends s on top of the current shapes.
func (c *Canvas) Add(s *Shape) {
	c.Shapes = append(c.Shapes, s)
	c.byID[s.ID] = s
}

func (c *Canvas) Shape(id string) (*Shape, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Visible returns the shapes currently on screen, bottom first.
func (c *Canvas) Visible() []*Shape {
	var out []*Shape
	for _, s := range c.Shapes {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// PixelsPerUnit converts scene units to pixels.
func (c *Canvas) PixelsPerUnit() float64 {
	return float64(c.Height) / FrameHeight
}

// ToPixel maps a scene point to pixel coordinates.
func (c *Canvas) ToPixel(v Vec) (float64, float64) {
	ppu := c.PixelsPerUnit()
	return float64(c.Width)/2 + v.X*ppu, float64(c.Height)/2 - v.Y*ppu
}
