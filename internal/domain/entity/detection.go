package entity

import "math"

// Box - осевой прямоугольник в пиксельных координатах изображения
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// BoxFromCenter строит прямоугольник по центру и размерам (формат Roboflow)
func BoxFromCenter(cx, cy, width, height float64) Box {
	return Box{
		XMin: cx - width/2,
		YMin: cy - height/2,
		XMax: cx + width/2,
		YMax: cy + height/2,
	}
}

// Width возвращает ширину прямоугольника в пикселях
func (b Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height возвращает высоту прямоугольника в пикселях
func (b Box) Height() float64 {
	return b.YMax - b.YMin
}

// Area возвращает площадь прямоугольника; для вырожденных рамок 0
func (b Box) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center возвращает координаты центра
func (b Box) Center() (x, y float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}

// Scale умножает все координаты на factor
func (b Box) Scale(factor float64) Box {
	return Box{
		XMin: b.XMin * factor,
		YMin: b.YMin * factor,
		XMax: b.XMax * factor,
		YMax: b.YMax * factor,
	}
}

// IsFinite сообщает, что все координаты конечны
func (b Box) IsFinite() bool {
	for _, v := range [...]float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RawDetection - один объект, найденный внешним детектором.
// Необязательные поля: пустая метка и nil-указатели означают «детектор не прислал».
type RawDetection struct {
	Box           Box      `json:"box"`
	DetectorLabel string   `json:"detector_label,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
	Chalkiness    *float64 `json:"chalkiness,omitempty"`
}

// DimensionedDetection - детекция с физическими размерами в миллиметрах
type DimensionedDetection struct {
	RawDetection
	LengthMM float64 `json:"length_mm"`
	WidthMM  float64 `json:"width_mm"`
	// AspectRatio равен 0, если ширина вырождена и отношение не определено
	AspectRatio float64 `json:"aspect_ratio"`
	// RawWidthMM и RawAspectRatio считаются по рамке без поправки ширины;
	// по ним сор отличается от зерна
	RawWidthMM     float64 `json:"raw_width_mm"`
	RawAspectRatio float64 `json:"raw_aspect_ratio"`
}

// HasAspectRatio сообщает, определено ли отношение сторон
func (d DimensionedDetection) HasAspectRatio() bool {
	return d.AspectRatio > 0
}

// Frame - размеры исходного изображения в пикселях
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area возвращает площадь кадра; 0, если размеры неизвестны
func (f Frame) Area() float64 {
	if f.Width <= 0 || f.Height <= 0 {
		return 0
	}
	return float64(f.Width) * float64(f.Height)
}
