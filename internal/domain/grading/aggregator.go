package grading

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"rice-guard/internal/domain/entity"
)

// DenseNote - предупреждение для плотной или перекрывающейся насыпи
const DenseNote = "Grains appear dense or overlapping; counts and sizes may be less accurate. " +
	"Spread the grains in a single layer for best results."

// CountsTowardSize сообщает, входит ли класс в средние размеры.
// Меловые зёрна и сор не представляют нормальный размер зерна.
func CountsTowardSize(label entity.GrainLabel) bool {
	switch label {
	case entity.LabelGood, entity.LabelBroken:
		return true
	}
	return false
}

// Знаков после запятой в средних размерах.
const sizePrecision = 2

// AggregatorOptions - настройки агрегатора
type AggregatorOptions struct {
	// UseMedian: медиана вместо среднего арифметического
	UseMedian bool
	// DenseMaxGrains: больше детекций - насыпь считается плотной; 0 отключает
	DenseMaxGrains int
	// DenseCoverageRatio: доля кадра, занятая рамками, выше которой насыпь плотная; 0 отключает
	DenseCoverageRatio float64
}

// Validate проверяет настройки
func (o AggregatorOptions) Validate() error {
	if o.DenseMaxGrains < 0 {
		return fmt.Errorf("dense max grains must not be negative, got %d", o.DenseMaxGrains)
	}
	if o.DenseCoverageRatio < 0 {
		return fmt.Errorf("dense coverage ratio must not be negative, got %v", o.DenseCoverageRatio)
	}
	return nil
}

// Aggregator сводит классифицированные зёрна в AnalysisSummary
type Aggregator struct {
	opts AggregatorOptions
}

// NewAggregator создаёт агрегатор
func NewAggregator(opts AggregatorOptions) (*Aggregator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{opts: opts}, nil
}

// Summarize считает классы, средние размеры и заметку о плотности.
// Пустой набор средних даёт 0.
func (a *Aggregator) Summarize(grains []entity.ClassifiedDetection, frame entity.Frame) entity.AnalysisSummary {
	var summary entity.AnalysisSummary
	lengths := make([]float64, 0, len(grains))
	widths := make([]float64, 0, len(grains))
	var covered float64

	for _, g := range grains {
		summary.Add(g.Label)
		covered += g.Box.Area()
		if CountsTowardSize(g.Label) {
			lengths = append(lengths, g.LengthMM)
			widths = append(widths, g.WidthMM)
		}
	}

	summary.AvgGrainLengthMM = a.reduce(lengths)
	summary.AvgGrainWidthMM = a.reduce(widths)
	if a.isDense(len(grains), covered, frame) {
		summary.Note = DenseNote
	}
	return summary
}

func (a *Aggregator) reduce(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var (
		v   float64
		err error
	)
	if a.opts.UseMedian {
		v, err = stats.Median(values)
	} else {
		v, err = stats.Mean(values)
	}
	if err != nil {
		return 0
	}

	rounded, err := stats.Round(v, sizePrecision)
	if err != nil {
		return v
	}
	return rounded
}

func (a *Aggregator) isDense(count int, covered float64, frame entity.Frame) bool {
	if a.opts.DenseMaxGrains > 0 && count > a.opts.DenseMaxGrains {
		return true
	}
	area := frame.Area()
	return a.opts.DenseCoverageRatio > 0 && area > 0 && covered/area > a.opts.DenseCoverageRatio
}
