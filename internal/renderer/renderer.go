package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"unicode/utf8"

	"github.com/ivlev/voicescene/internal/animation"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	circleSegments = 72
	// referenceHeight is the frame height stroke widths are specified for.
	referenceHeight = 720.0
	// fontScale maps scene font sizes to scene units.
	fontScale = 0.01
	arrowTip  = 0.25
)

// Renderer rasterizes a canvas into RGBA frames. It caches font faces and is
// not safe for concurrent use.
type Renderer struct {
	font  *opentype.Font
	faces map[int]font.Face
}

func New() (*Renderer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Renderer{font: f, faces: make(map[int]font.Face)}, nil
}

// Draw paints the background and every visible shape, bottom first.
func (r *Renderer) Draw(c *animation.Canvas, dst *image.RGBA) error {
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(c.Background), image.Point{}, xdraw.Src)

	for _, s := range c.Visible() {
		opacity := clamp01(s.Opacity * s.Fade)
		if opacity <= 0 {
			continue
		}
		var err error
		switch s.Kind {
		case animation.Text:
			err = r.drawText(c, s, dst, opacity)
		case animation.Picture, animation.QRCode:
			drawImage(c, s, dst, opacity)
		case animation.Line:
			r.drawOutline(c, s, dst, opacity, s.Points, false)
		case animation.Arrow:
			r.drawArrow(c, s, dst, opacity)
		default:
			r.drawOutline(c, s, dst, opacity, outline(s), true)
		}
		if err != nil {
			return fmt.Errorf("draw %s: %w", s.ID, err)
		}
	}
	return nil
}

// outline returns the closed contour of a shape in local scene units.
func outline(s *animation.Shape) []animation.Vec {
	switch s.Kind {
	case animation.Circle, animation.Dot:
		return arc(s.Radius, 0, 2*math.Pi, circleSegments)
	case animation.Sector:
		n := int(math.Ceil(circleSegments * math.Abs(s.Angle) / (2 * math.Pi)))
		pts := []animation.Vec{{}}
		return append(pts, arc(s.Radius, s.StartAngle, s.Angle, max(n, 2))...)
	default:
		w, h := s.Width/2, s.Height/2
		return []animation.Vec{{X: w, Y: h}, {X: -w, Y: h}, {X: -w, Y: -h}, {X: w, Y: -h}}
	}
}

func arc(radius, start, sweep float64, n int) []animation.Vec {
	pts := make([]animation.Vec, 0, n+1)
	full := math.Abs(sweep) >= 2*math.Pi
	last := n
	if full {
		last = n - 1
	}
	for i := 0; i <= last; i++ {
		a := start + sweep*float64(i)/float64(n)
		pts = append(pts, animation.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	return pts
}

// place maps local points through the shape transform into pixels.
func place(c *animation.Canvas, s *animation.Shape, pts []animation.Vec) []animation.Vec {
	out := make([]animation.Vec, len(pts))
	for i, p := range pts {
		x, y := c.ToPixel(s.Pos.Add(p.Scale(s.Scale).Rotate(s.Rotation)))
		out[i] = animation.Vec{X: x, Y: y}
	}
	return out
}

func strokeWidth(c *animation.Canvas, s *animation.Shape) float64 {
	return math.Max(s.Style.StrokeWidth*float64(c.Height)/referenceHeight, 1)
}

func (r *Renderer) drawOutline(c *animation.Canvas, s *animation.Shape, dst *image.RGBA, opacity float64, local []animation.Vec, closed bool) {
	px := place(c, s, local)
	if closed && s.Style.Fill != animation.None {
		fillPolygon(dst, px, s.Style.Fill, opacity*s.Style.FillOpacity*s.Reveal)
	}
	if s.Style.Stroke != animation.None && s.Reveal > 0 {
		strokePath(dst, px, closed, s.Reveal, strokeWidth(c, s), s.Style.Stroke, opacity)
	}
}

func (r *Renderer) drawArrow(c *animation.Canvas, s *animation.Shape, dst *image.RGBA, opacity float64) {
	px := place(c, s, s.Points)
	a, b := px[0], px[1]
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	if length == 0 {
		return
	}
	u := animation.Vec{X: (b.X - a.X) / length, Y: (b.Y - a.Y) / length}
	tip := math.Min(arrowTip*s.Scale*c.PixelsPerUnit(), length/2)
	base := b.Add(u.Scale(-tip))

	strokePath(dst, []animation.Vec{a, base}, false, s.Reveal, strokeWidth(c, s), s.Style.Stroke, opacity)
	if s.Reveal < 1 {
		return
	}
	n := animation.Vec{X: -u.Y, Y: u.X}.Scale(tip / 2)
	fillPolygon(dst, []animation.Vec{b, base.Add(n), base.Add(n.Scale(-1))}, s.Style.Stroke, opacity)
}

func (r *Renderer) face(px float64) (font.Face, error) {
	size := max(int(math.Round(px)), 1)
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	r.faces[size] = f
	return f, nil
}

// drawText centres the text on the shape position. Rotation is not applied
// to glyphs.
func (r *Renderer) drawText(c *animation.Canvas, s *animation.Shape, dst *image.RGBA, opacity float64) error {
	if s.Text == "" || s.Scale <= 0 {
		return nil
	}
	face, err := r.face(s.FontSize * fontScale * s.Scale * c.PixelsPerUnit())
	if err != nil {
		return err
	}

	width := font.MeasureString(face, s.Text)
	m := face.Metrics()
	x, y := c.ToPixel(s.Pos)
	dot := fixed.Point26_6{
		X: fixed.Int26_6(x*64) - width/2,
		Y: fixed.Int26_6(y*64) + (m.Ascent-m.Descent)/2,
	}

	text := s.Text
	if s.Reveal < 1 {
		n := int(math.Ceil(s.Reveal * float64(utf8.RuneCountInString(text))))
		text = string([]rune(text)[:n])
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(premultiply(s.Style.Fill, opacity*s.Style.FillOpacity)),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)
	return nil
}

// drawImage scales the picture into its box, wiping in from the left while
// revealing.
func drawImage(c *animation.Canvas, s *animation.Shape, dst *image.RGBA, opacity float64) {
	if s.Image == nil || s.Reveal <= 0 {
		return
	}
	ppu := c.PixelsPerUnit()
	w, h := s.Width*s.Scale*ppu, s.Height*s.Scale*ppu
	cx, cy := c.ToPixel(s.Pos)
	dr := image.Rect(
		int(math.Round(cx-w/2)), int(math.Round(cy-h/2)),
		int(math.Round(cx-w/2+w*s.Reveal)), int(math.Round(cy+h/2)),
	)
	if dr.Empty() {
		return
	}
	sb := s.Image.Bounds()
	sr := image.Rect(sb.Min.X, sb.Min.Y, sb.Min.X+int(math.Round(float64(sb.Dx())*s.Reveal)), sb.Max.Y)

	var opts *xdraw.Options
	if opacity < 1 {
		opts = &xdraw.Options{DstMask: image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})}
	}
	xdraw.BiLinear.Scale(dst, dr, s.Image, sr, xdraw.Over, opts)
}

// premultiply converts a straight-alpha color and extra opacity into the
// premultiplied form image/color expects.
func premultiply(c color.RGBA, opacity float64) color.RGBA {
	a := float64(c.A) / 255 * clamp01(opacity)
	return color.RGBA{
		R: uint8(float64(c.R)*a + 0.5),
		G: uint8(float64(c.G)*a + 0.5),
		B: uint8(float64(c.B)*a + 0.5),
		A: uint8(255*a + 0.5),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
