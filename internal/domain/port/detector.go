package port

import (
	"context"

	"rice-guard/internal/domain/entity"
)

// GrainDetector интерфейс внешнего детектора зёрен
type GrainDetector interface {
	// Detect отправляет JPEG-снимок детектору и возвращает найденные объекты.
	// Пустой срез - корректный ответ (зёрен не найдено).
	// Любой отказ детектора возвращается как *entity.UpstreamDetectionError.
	Detect(ctx context.Context, jpeg []byte) ([]entity.RawDetection, error)
}
