package imageprep

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // регистрирует декодер WebP

	"rice-guard/internal/domain/entity"
	"rice-guard/internal/domain/port"
)

// Качество JPEG, отправляемого детектору.
const jpegQuality = 95

// Preparer декодирует загруженный снимок и перекодирует его в JPEG для детектора
type Preparer struct {
	// MaxSide - максимальная сторона JPEG для детектора; 0 - без уменьшения
	MaxSide int
}

// NewPreparer создаёт подготовщик снимков
func NewPreparer(maxSide int) *Preparer {
	return &Preparer{MaxSide: maxSide}
}

// Prepare декодирует снимок с учётом EXIF-ориентации, при необходимости уменьшает
// и кодирует в JPEG. Данные, которые не удалось декодировать, дают *entity.InvalidImageError.
func (p *Preparer) Prepare(data []byte) (*port.PreparedImage, error) {
	if len(data) == 0 {
		return nil, &entity.InvalidImageError{Err: errors.New("empty payload")}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &entity.InvalidImageError{Err: err}
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, &entity.InvalidImageError{Err: errors.New("image has no pixels")}
	}
	frame := entity.Frame{Width: bounds.Dx(), Height: bounds.Dy()}

	scale := 1.0
	if p.MaxSide > 0 && (frame.Width > p.MaxSide || frame.Height > p.MaxSide) {
		resized := imaging.Fit(img, p.MaxSide, p.MaxSide, imaging.Lanczos)
		scale = float64(resized.Bounds().Dx()) / float64(frame.Width)
		img = resized
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &port.PreparedImage{
		JPEG:  buf.Bytes(),
		Frame: frame,
		Scale: scale,
	}, nil
}

// Проверка реализации интерфейса
var _ port.ImagePreparer = (*Preparer)(nil)
