package animation

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette holds the named colors scene tables may use.
var Palette = map[string]color.RGBA{
	"WHITE":   {0xFF, 0xFF, 0xFF, 0xFF},
	"BLACK":   {0x00, 0x00, 0x00, 0xFF},
	"GRAY":    {0x88, 0x88, 0x88, 0xFF},
	"GRAY_B":  {0xBB, 0xBB, 0xBB, 0xFF},
	"BLUE":    {0x58, 0xC4, 0xDD, 0xFF},
	"BLUE_B":  {0x9C, 0xDC, 0xEB, 0xFF},
	"BLUE_C":  {0x58, 0xC4, 0xDD, 0xFF},
	"RED":     {0xFC, 0x62, 0x55, 0xFF},
	"RED_B":   {0xFF, 0x80, 0x80, 0xFF},
	"RED_C":   {0xFC, 0x62, 0x55, 0xFF},
	"GREEN":   {0x83, 0xC1, 0x67, 0xFF},
	"GREEN_C": {0x83, 0xC1, 0x67, 0xFF},
	"YELLOW":  {0xFF, 0xFF, 0x00, 0xFF},
	"ORANGE":  {0xFF, 0x86, 0x2F, 0xFF},
	"PURPLE":  {0x9A, 0x72, 0xAC, 0xFF},
	"PINK":    {0xD1, 0x47, 0xBD, 0xFF},
	"TEAL":    {0x5C, 0xD0, 0xB3, 0xFF},
	"GOLD":    {0xF0, 0xAC, 0x5F, 0xFF},
	"MAROON":  {0xC5, 0x5F, 0x73, 0xFF},
}

// None marks an absent stroke or fill.
var None = color.RGBA{}

// ParseColor accepts a palette name, "none", "#RRGGBB" or "#RRGGBBAA".
// The result is not premultiplied; alpha is applied at draw time.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") {
		return None, nil
	}
	if c, ok := Palette[strings.ToUpper(s)]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xFF
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	// Fading from or to None keeps the visible hue.
	if a == None {
		a = color.RGBA{b.R, b.G, b.B, 0}
	}
	if b == None {
		b = color.RGBA{a.R, a.G, a.B, 0}
	}
	ch := func(x, y uint8) uint8 {
		return uint8(lerp(float64(x), float64(y), t) + 0.5)
	}
	return color.RGBA{ch(a.R, b.R), ch(a.G, b.G), ch(a.B, b.B), ch(a.A, b.A)}
}
