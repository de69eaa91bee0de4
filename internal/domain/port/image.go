package port

import "rice-guard/internal/domain/entity"

// PreparedImage - снимок, подготовленный для детектора
type PreparedImage struct {
	JPEG  []byte       // перекодированный снимок
	Frame entity.Frame // размеры исходного снимка (после учёта EXIF-ориентации)
	// Scale - во сколько раз JPEG меньше исходника; координаты детектора
	// делятся на Scale, чтобы вернуться в пиксели исходного снимка
	Scale float64
}

// ImagePreparer интерфейс подготовки загруженного снимка
type ImagePreparer interface {
	// Prepare декодирует снимок; ошибка декодирования - *entity.InvalidImageError
	Prepare(data []byte) (*PreparedImage, error)
}

// GrainAnnotator интерфейс подсветки зёрен на снимке
type GrainAnnotator interface {
	// Highlight рисует рамки зёрен, окрашенные по классу, и возвращает JPEG
	Highlight(data []byte, grains []entity.ClassifiedDetection) ([]byte, error)
}
