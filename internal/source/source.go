// Package source loads the pixels behind image and qrcode shapes.
package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/ivlev/voicescene/internal/scene"
)

const (
	DefaultDPI = 150
	qrSize     = 512
	// trimPadding keeps a little margin around trimmed content, in pixels.
	trimPadding = 8
)

// Loader resolves asset paths against Dir and memoizes decoded images, so a
// PDF page used by several shapes is rendered once.
type Loader struct {
	Dir string
	DPI int

	mu    sync.Mutex
	cache map[string]image.Image
}

func NewLoader(dir string, dpi int) *Loader {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Loader{Dir: dir, DPI: dpi, cache: make(map[string]image.Image)}
}

func (l *Loader) Load(spec scene.ShapeSpec) (image.Image, error) {
	var key string
	switch spec.Kind {
	case scene.KindQRCode:
		key = "qr:" + spec.Content
	case scene.KindImage:
		key = fmt.Sprintf("%s#%d", l.path(spec.Src), spec.Page)
		if spec.Trim {
			key += "#trim"
		}
	default:
		return nil, fmt.Errorf("%s shapes have no image asset", spec.Kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.cache[key]; ok {
		return img, nil
	}

	var img image.Image
	var err error
	switch {
	case spec.Kind == scene.KindQRCode:
		img, err = QRCode(spec.Content, qrSize)
	case strings.EqualFold(filepath.Ext(spec.Src), ".pdf"):
		img, err = PDFPage(l.path(spec.Src), spec.Page, l.DPI)
	default:
		img, err = DecodeFile(l.path(spec.Src))
	}
	if err != nil {
		return nil, err
	}
	if spec.Trim {
		img = Trim(img, trimPadding)
	}
	l.cache[key] = img
	return img, nil
}

func (l *Loader) path(src string) string {
	if filepath.IsAbs(src) || l.Dir == "" {
		return src
	}
	return filepath.Join(l.Dir, src)
}

// PDFPage renders a 1-based page; page 0 means the first page.
func PDFPage(path string, page, dpi int) (image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	index := max(page, 1) - 1
	if index >= doc.NumPage() {
		return nil, fmt.Errorf("pdf %s has %d pages, page %d requested", path, doc.NumPage(), page)
	}
	return doc.ImageDPI(index, float64(dpi))
}
