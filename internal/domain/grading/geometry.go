// Package grading переводит рамки детектора в размеры зёрен, классы качества
// и сводную статистику по снимку. Все функции чистые и не зависят от сети.
package grading

import (
	"fmt"
	"math"

	"rice-guard/internal/domain/entity"
)

// Ширина меньше этого порога считается вырожденной, отношение сторон не определено.
const widthEpsilon = 1e-9

// Calibration - неизменяемые калибровочные константы камеры
type Calibration struct {
	// PxToMM - миллиметров на один пиксель
	PxToMM float64
	// WidthCorrection компенсирует завышение малой оси повёрнутого зерна
	// осевой рамкой; 0 < WidthCorrection <= 1
	WidthCorrection float64
}

// Validate проверяет калибровку
func (c Calibration) Validate() error {
	if !(c.PxToMM > 0) || math.IsInf(c.PxToMM, 0) {
		return fmt.Errorf("px_to_mm must be positive, got %v", c.PxToMM)
	}
	if !(c.WidthCorrection > 0 && c.WidthCorrection <= 1) {
		return fmt.Errorf("width correction factor must be in (0, 1], got %v", c.WidthCorrection)
	}
	return nil
}

// GeometryExtractor переводит пиксельные рамки в миллиметры
type GeometryExtractor struct {
	cal Calibration
}

// NewGeometryExtractor создаёт экстрактор с фиксированной калибровкой
func NewGeometryExtractor(cal Calibration) (*GeometryExtractor, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &GeometryExtractor{cal: cal}, nil
}

// Calibration возвращает калибровку экстрактора
func (g *GeometryExtractor) Calibration() Calibration {
	return g.cal
}

// Measure вычисляет длину и ширину зерна. Длинная сторона рамки - длина.
// Для некорректной рамки возвращает *entity.InvalidBoxError.
func (g *GeometryExtractor) Measure(raw entity.RawDetection) (entity.DimensionedDetection, error) {
	box := raw.Box
	if !box.IsFinite() {
		return entity.DimensionedDetection{}, &entity.InvalidBoxError{Box: box, Reason: "non-finite coordinates"}
	}
	if box.XMax <= box.XMin || box.YMax <= box.YMin {
		return entity.DimensionedDetection{}, &entity.InvalidBoxError{Box: box, Reason: "inverted or empty box"}
	}

	w, h := box.Width(), box.Height()
	lengthPx, widthPx := math.Max(w, h), math.Min(w, h)
	if !(widthPx > 0) || math.IsInf(lengthPx, 0) {
		return entity.DimensionedDetection{}, &entity.InvalidBoxError{Box: box, Reason: "non-positive size"}
	}

	d := entity.DimensionedDetection{
		RawDetection: raw,
		LengthMM:     lengthPx * g.cal.PxToMM,
		WidthMM:      widthPx * g.cal.PxToMM * g.cal.WidthCorrection,
		RawWidthMM:   widthPx * g.cal.PxToMM,
	}
	d.RawAspectRatio = lengthPx / widthPx
	if d.WidthMM > widthEpsilon {
		d.AspectRatio = d.LengthMM / d.WidthMM
	}
	return d, nil
}
