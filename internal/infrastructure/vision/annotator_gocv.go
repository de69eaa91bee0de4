//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"gocv.io/x/gocv"

	"rice-guard/internal/domain/entity"
	"rice-guard/internal/domain/port"
)

// Annotator рисует рамки зёрен средствами OpenCV
type Annotator struct{}

// NewAnnotator создаёт аннотатор на OpenCV
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Highlight рисует рамки вокруг зёрен и возвращает новую картинку.
func (a *Annotator) Highlight(data []byte, grains []entity.ClassifiedDetection) ([]byte, error) {
	mat, err := decodeToMat(data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	thickness := lineWidth(mat.Cols(), mat.Rows())
	for _, g := range grains {
		rect := image.Rect(int(g.Box.XMin), int(g.Box.YMin), int(g.Box.XMax), int(g.Box.YMax))
		gocv.Rectangle(&mat, rect, LabelColor(g.Label), thickness)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
// IMReadColor применяет EXIF-ориентацию, как и подготовка снимка для детектора.
func decodeToMat(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

// Проверка реализации интерфейса
var _ port.GrainAnnotator = (*Annotator)(nil)
