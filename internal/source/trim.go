package source

import (
	"image"
	"image/draw"
	"math"
)

const (
	edgeThreshold = 30.0
	// minRegionArea drops specks such as scan noise, in pixels².
	minRegionArea = 500
	dilateRadius  = 2
)

// Trim crops an image to the union of its content regions, plus pad pixels
// on each side. Regions are found by edge detection, so flat margins of any
// colour are removed. An image without detectable content is returned as is.
func Trim(img image.Image, pad int) image.Image {
	b := img.Bounds()
	content := ContentBounds(img)
	if content.Empty() {
		return img
	}
	content = image.Rect(content.Min.X-pad, content.Min.Y-pad, content.Max.X+pad, content.Max.Y+pad).Intersect(b)
	if content == b {
		return img
	}
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(content)
	}
	out := image.NewRGBA(image.Rect(0, 0, content.Dx(), content.Dy()))
	draw.Draw(out, out.Bounds(), img, content.Min, draw.Src)
	return out
}

// ContentBounds returns the union of all edge regions at least
// minRegionArea large, or an empty rectangle when there are none.
func ContentBounds(img image.Image) image.Rectangle {
	var union image.Rectangle
	for _, r := range regions(img) {
		if r.Dx()*r.Dy() >= minRegionArea {
			union = union.Union(r)
		}
	}
	return union
}

// regions finds bounding boxes of connected edge areas: Sobel gradient,
// thresholded, dilated and then flood filled.
func regions(img image.Image) []image.Rectangle {
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)

	mask := dilate(sobel(gray, edgeThreshold), b.Dx(), b.Dy(), dilateRadius)
	return components(mask, b)
}

// sobel returns a w*h edge mask in row-major order.
func sobel(gray *image.Gray, threshold float64) []bool {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	edges := make([]bool, w*h)
	at := func(x, y int) float64 {
		return float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			edges[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return edges
}

// dilate grows the mask by r pixels in every direction so nearby glyphs
// join into one region.
func dilate(mask []bool, w, h, r int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dy := max(y-r, 0); dy <= min(y+r, h-1); dy++ {
				for dx := max(x-r, 0); dx <= min(x+r, w-1); dx++ {
					out[dy*w+dx] = true
				}
			}
		}
	}
	return out
}

func components(mask []bool, b image.Rectangle) []image.Rectangle {
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, len(mask))
	var out []image.Rectangle
	var stack []image.Point

	for i, on := range mask {
		if !on || visited[i] {
			continue
		}
		minP := image.Point{X: i % w, Y: i / w}
		maxP := minP
		visited[i] = true
		stack = append(stack[:0], minP)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			minP.X, minP.Y = min(minP.X, p.X), min(minP.Y, p.Y)
			maxP.X, maxP.Y = max(maxP.X, p.X), max(maxP.Y, p.Y)
			for _, n := range [4]image.Point{image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y), image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1)} {
				if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
					continue
				}
				j := n.Y*w + n.X
				if mask[j] && !visited[j] {
					visited[j] = true
					stack = append(stack, n)
				}
			}
		}
		out = append(out, image.Rectangle{Min: minP, Max: maxP.Add(image.Pt(1, 1))}.Add(b.Min))
	}
	return out
}
