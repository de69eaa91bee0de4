//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"rice-guard/internal/domain/entity"
	"rice-guard/internal/domain/port"
)

// Annotator рисует рамки зёрен на чистом Go (сборка без тега gocv)
type Annotator struct{}

// NewAnnotator создаёт аннотатор без OpenCV
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Highlight рисует рамки вокруг зёрен и возвращает новую картинку.
func (a *Annotator) Highlight(data []byte, grains []entity.ClassifiedDetection) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(float64(lineWidth(dc.Width(), dc.Height())))
	for _, g := range grains {
		dc.SetColor(LabelColor(g.Label))
		dc.DrawRectangle(g.Box.XMin, g.Box.YMin, g.Box.Width(), g.Box.Height())
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Проверка реализации интерфейса
var _ port.GrainAnnotator = (*Annotator)(nil)
