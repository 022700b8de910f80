package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ivlev/voicescene/internal/animation"
	"golang.org/x/image/vector"
)

// fillPolygon fills a pixel-space polygon with anti-aliasing. The rasterizer
// only covers the polygon's clipped bounding box.
func fillPolygon(dst *image.RGBA, pts []animation.Vec, col color.RGBA, opacity float64) {
	if len(pts) < 3 || opacity <= 0 || col.A == 0 {
		return
	}
	b := dst.Bounds()
	pts = clip(pts, float64(b.Min.X), float64(b.Min.Y), float64(b.Max.X), float64(b.Max.Y))
	if len(pts) < 3 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rect := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))).Intersect(b)
	if rect.Empty() {
		return
	}

	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	z.DrawOp = draw.Over
	ox, oy := float64(rect.Min.X), float64(rect.Min.Y)
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()
	z.Draw(dst, rect, image.NewUniform(premultiply(col, opacity)), image.Point{})
}

// strokePath draws the first fraction of a polyline's length. Each edge is a
// quad with square caps.
func strokePath(dst *image.RGBA, pts []animation.Vec, closed bool, fraction, width float64, col color.RGBA, opacity float64) {
	if len(pts) < 2 || fraction <= 0 || col.A == 0 {
		return
	}
	if closed {
		pts = append(pts[:len(pts):len(pts)], pts[0])
	}

	var total float64
	for i := 1; i < len(pts); i++ {
		total += dist(pts[i-1], pts[i])
	}
	remaining := total * math.Min(fraction, 1)

	for i := 1; i < len(pts) && remaining > 0; i++ {
		a, b := pts[i-1], pts[i]
		l := dist(a, b)
		if l == 0 {
			continue
		}
		if l > remaining {
			b = a.Lerp(b, remaining/l)
			l = remaining
		}
		remaining -= l
		fillPolygon(dst, segmentQuad(a, b, l, width/2), col, opacity)
	}
}

func segmentQuad(a, b animation.Vec, length, hw float64) []animation.Vec {
	u := animation.Vec{X: (b.X - a.X) / length * hw, Y: (b.Y - a.Y) / length * hw}
	n := animation.Vec{X: -u.Y, Y: u.X}
	a = a.Add(u.Scale(-1))
	b = b.Add(u)
	return []animation.Vec{a.Add(n), b.Add(n), b.Add(n.Scale(-1)), a.Add(n.Scale(-1))}
}

func dist(a, b animation.Vec) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// clip cuts a polygon to an axis-aligned rectangle (Sutherland-Hodgman).
func clip(pts []animation.Vec, x0, y0, x1, y1 float64) []animation.Vec {
	edges := []struct {
		inside func(animation.Vec) bool
		cross  func(a, b animation.Vec) animation.Vec
	}{
		{func(p animation.Vec) bool { return p.X >= x0 }, func(a, b animation.Vec) animation.Vec { return atX(a, b, x0) }},
		{func(p animation.Vec) bool { return p.X <= x1 }, func(a, b animation.Vec) animation.Vec { return atX(a, b, x1) }},
		{func(p animation.Vec) bool { return p.Y >= y0 }, func(a, b animation.Vec) animation.Vec { return atY(a, b, y0) }},
		{func(p animation.Vec) bool { return p.Y <= y1 }, func(a, b animation.Vec) animation.Vec { return atY(a, b, y1) }},
	}

	out := pts
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = make([]animation.Vec, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && !e.inside(prev):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(cur):
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func atX(a, b animation.Vec, x float64) animation.Vec {
	t := (x - a.X) / (b.X - a.X)
	return animation.Vec{X: x, Y: a.Y + (b.Y-a.Y)*t}
}

func atY(a, b animation.Vec, y float64) animation.Vec {
	t := (y - a.Y) / (b.Y - a.Y)
	return animation.Vec{X: a.X + (b.X-a.X)*t, Y: y}
}
