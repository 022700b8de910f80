package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/voicescene/internal/animation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCanvas() *animation.Canvas {
	return animation.NewCanvas(160, 90, animation.Palette["BLACK"])
}

func shape(kind animation.Kind) *animation.Shape {
	return &animation.Shape{
		ID:      string(kind),
		Kind:    kind,
		Visible: true,
		Fade:    1,
		Reveal:  1,
		State: animation.State{
			Scale:   1,
			Opacity: 1,
			Style: animation.Style{
				Stroke:      animation.None,
				Fill:        animation.Palette["RED"],
				FillOpacity: 1,
				StrokeWidth: 4,
			},
		},
	}
}

func render(t *testing.T, c *animation.Canvas) *image.RGBA {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	dst := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	require.NoError(t, r.Draw(c, dst))
	return dst
}

func assertColor(t *testing.T, want color.RGBA, got color.RGBA, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 2, msgAndArgs...)
	assert.InDelta(t, want.G, got.G, 2, msgAndArgs...)
	assert.InDelta(t, want.B, got.B, 2, msgAndArgs...)
	assert.InDelta(t, want.A, got.A, 2, msgAndArgs...)
}

func TestDrawBackground(t *testing.T) {
	c := animation.NewCanvas(32, 18, animation.Palette["BLUE"])
	dst := render(t, c)
	assert.Equal(t, animation.Palette["BLUE"], dst.RGBAAt(0, 0))
	assert.Equal(t, animation.Palette["BLUE"], dst.RGBAAt(31, 17))
}

func TestDrawFilledRectangle(t *testing.T) {
	c := newCanvas()
	rect := shape(animation.Rectangle)
	rect.Width, rect.Height = 4, 2
	c.Add(rect)

	dst := render(t, c)

	assertColor(t, animation.Palette["RED"], dst.RGBAAt(80, 45))
	// 4x2 units at 11.25 px per unit spans x 57.5..102.5.
	assertColor(t, animation.Palette["RED"], dst.RGBAAt(60, 40))
	assert.Equal(t, animation.Palette["BLACK"], dst.RGBAAt(50, 45))
	assert.Equal(t, animation.Palette["BLACK"], dst.RGBAAt(80, 20))
}

func TestDrawHiddenAndFaded(t *testing.T) {
	c := newCanvas()
	rect := shape(animation.Square)
	rect.Width, rect.Height = 2, 2
	c.Add(rect)

	rect.Visible = false
	assert.Equal(t, animation.Palette["BLACK"], render(t, c).RGBAAt(80, 45))

	rect.Visible = true
	rect.Fade = 0.5
	got := render(t, c).RGBAAt(80, 45)
	assert.InDelta(t, 0xFC/2, got.R, 2)
	assert.Equal(t, uint8(0xFF), got.A)
}

func TestDrawCircleOutline(t *testing.T) {
	c := newCanvas()
	circle := shape(animation.Circle)
	circle.Radius = 2
	circle.Style.Fill = animation.None
	circle.Style.Stroke = animation.Palette["WHITE"]
	circle.Style.StrokeWidth = 16
	c.Add(circle)

	dst := render(t, c)

	assert.Equal(t, animation.Palette["BLACK"], dst.RGBAAt(80, 45), "outline only")
	// Radius 2 units is 22.5 px to the right of centre.
	assert.Greater(t, dst.RGBAAt(102, 45).R, uint8(100))
}

func TestDrawPartialReveal(t *testing.T) {
	c := newCanvas()
	line := shape(animation.Line)
	line.Style.Stroke = animation.Palette["WHITE"]
	line.Style.StrokeWidth = 16
	line.Pos = animation.Vec{X: -4}
	line.Points = []animation.Vec{{}, {X: 8}}
	line.Reveal = 0.5
	c.Add(line)

	dst := render(t, c)

	assert.Greater(t, dst.RGBAAt(50, 45).R, uint8(100), "first half drawn")
	assert.Equal(t, animation.Palette["BLACK"], dst.RGBAAt(110, 45), "second half pending")
}

func TestDrawClipsOffscreenShapes(t *testing.T) {
	c := newCanvas()
	rect := shape(animation.Rectangle)
	rect.Width, rect.Height = 40, 4
	rect.Pos = animation.Vec{X: 15}
	c.Add(rect)

	dst := render(t, c)
	assertColor(t, animation.Palette["RED"], dst.RGBAAt(159, 45))
	assertColor(t, animation.Palette["RED"], dst.RGBAAt(0, 45))
}

func TestDrawText(t *testing.T) {
	c := newCanvas()
	text := shape(animation.Text)
	text.Text = "Hello"
	text.FontSize = 200
	text.Style.Fill = animation.Palette["WHITE"]
	c.Add(text)

	lit := func(dst *image.RGBA) int {
		n := 0
		for i := 0; i < len(dst.Pix); i += 4 {
			if dst.Pix[i] > 0 {
				n++
			}
		}
		return n
	}

	full := lit(render(t, c))
	assert.Positive(t, full)

	text.Reveal = 0.2
	partial := lit(render(t, c))
	assert.Positive(t, partial)
	assert.Less(t, partial, full)
}

func TestDrawImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}

	c := newCanvas()
	pic := shape(animation.Picture)
	pic.Image = src
	pic.Width, pic.Height = 2, 2
	c.Add(pic)

	dst := render(t, c)
	assert.Equal(t, animation.Palette["WHITE"], dst.RGBAAt(80, 45))

	pic.Reveal = 0.5
	dst = render(t, c)
	assert.Equal(t, animation.Palette["WHITE"], dst.RGBAAt(75, 45))
	assert.Equal(t, animation.Palette["BLACK"], dst.RGBAAt(88, 45))
}

func TestClip(t *testing.T) {
	square := []animation.Vec{{X: -5, Y: -5}, {X: 5, Y: -5}, {X: 5, Y: 5}, {X: -5, Y: 5}}
	got := clip(square, 0, 0, 10, 10)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
	}

	assert.Empty(t, clip(square, 20, 20, 30, 30))
}

func TestPremultiply(t *testing.T) {
	assert.Equal(t, color.RGBA{100, 50, 0, 128}, premultiply(color.RGBA{200, 100, 0, 255}, 0.5))
	assert.Equal(t, color.RGBA{}, premultiply(color.RGBA{200, 100, 0, 255}, 0))
}
