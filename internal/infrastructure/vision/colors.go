package vision

import (
	"image/color"

	"rice-guard/internal/domain/entity"
)

// Качество JPEG с подсветкой.
const jpegQuality = 90

// labelColors - цвет рамки для каждого класса
var labelColors = map[entity.GrainLabel]color.RGBA{
	entity.LabelGood:    {G: 200, A: 255},
	entity.LabelBroken:  {R: 255, G: 160, A: 255},
	entity.LabelChalky:  {R: 80, G: 160, B: 255, A: 255},
	entity.LabelForeign: {R: 255, A: 255},
}

// LabelColor возвращает цвет рамки для класса
func LabelColor(label entity.GrainLabel) color.RGBA {
	if c, ok := labelColors[label]; ok {
		return c
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// lineWidth подбирает толщину рамки под размер снимка
func lineWidth(width, height int) int {
	side := width
	if height > side {
		side = height
	}
	if w := side / 400; w > 2 {
		return w
	}
	return 2
}
