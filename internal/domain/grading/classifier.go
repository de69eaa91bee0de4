package grading

import (
	"fmt"
	"strings"

	"rice-guard/internal/domain/entity"
)

// Thresholds - калиброванные пороги классификатора
type Thresholds struct {
	// BrokenMaxLengthMM: зерно короче этого может быть битым
	BrokenMaxLengthMM float64
	// BrokenAspectRatio: битое зерно ещё и «коренастое» - отношение сторон меньше порога
	BrokenAspectRatio float64
	// MinGrainLengthMM, MinGrainWidthMM: меньше - не зерно, а сор
	MinGrainLengthMM float64
	MinGrainWidthMM  float64
	// MaxGrainWidthMM: шире - не зерно (камешек, комок); сравнивается с шириной
	// без поправки; 0 отключает проверку
	MaxGrainWidthMM float64
	// MinGrainAspectRatio: почти квадратная рамка (отношение сторон без поправки
	// не больше порога) - не зерно; 0 отключает проверку
	MinGrainAspectRatio float64
	// ChalkyScoreThreshold: оценка меловости выше порога даёт класс chalky
	ChalkyScoreThreshold float64
}

// Validate проверяет пороги
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"broken max length": t.BrokenMaxLengthMM,
		"broken aspect":     t.BrokenAspectRatio,
		"min grain length":  t.MinGrainLengthMM,
		"min grain width":   t.MinGrainWidthMM,
		"max grain width":   t.MaxGrainWidthMM,
		"min grain aspect":  t.MinGrainAspectRatio,
	} {
		if v < 0 {
			return fmt.Errorf("%s threshold must not be negative, got %v", name, v)
		}
	}
	if t.ChalkyScoreThreshold < 0 || t.ChalkyScoreThreshold > 1 {
		return fmt.Errorf("chalky score threshold must be in [0, 1], got %v", t.ChalkyScoreThreshold)
	}
	if t.MaxGrainWidthMM > 0 && t.MaxGrainWidthMM <= t.MinGrainWidthMM {
		return fmt.Errorf("max grain width %v must exceed min grain width %v", t.MaxGrainWidthMM, t.MinGrainWidthMM)
	}
	return nil
}

type hint int

const (
	hintNone hint = iota
	hintForeign
	hintChalky
	hintBroken
)

// parseHint нормализует метку детектора и ищет в ней известный класс
func parseHint(label string) hint {
	l := strings.TrimSpace(strings.ToLower(label))
	l = strings.NewReplacer("-", "_", " ", "_").Replace(l)
	switch {
	case l == "":
		return hintNone
	case strings.Contains(l, "foreign"):
		return hintForeign
	case strings.Contains(l, "chalky"):
		return hintChalky
	case strings.Contains(l, "broken"):
		return hintBroken
	}
	return hintNone
}

// Classifier присваивает зерну ровно один класс. Без состояния.
type Classifier struct {
	th Thresholds
}

// NewClassifier создаёт классификатор
func NewClassifier(th Thresholds) (*Classifier, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{th: th}, nil
}

// Classify определяет класс зерна; первое сработавшее правило побеждает:
// сор, меловое, битое, целое.
func (c *Classifier) Classify(d entity.DimensionedDetection) entity.ClassifiedDetection {
	return entity.ClassifiedDetection{DimensionedDetection: d, Label: c.label(d)}
}

func (c *Classifier) label(d entity.DimensionedDetection) entity.GrainLabel {
	h := parseHint(d.DetectorLabel)

	if h == hintForeign || c.tooSmall(d) || c.tooWide(d) || c.tooRound(d) {
		return entity.LabelForeign
	}

	// Без метки или оценки меловости от детектора этот путь недостижим.
	if h == hintChalky || (d.Chalkiness != nil && *d.Chalkiness > c.th.ChalkyScoreThreshold) {
		return entity.LabelChalky
	}

	if h == hintBroken || c.brokenByGeometry(d) {
		return entity.LabelBroken
	}

	return entity.LabelGood
}

func (c *Classifier) tooSmall(d entity.DimensionedDetection) bool {
	return d.LengthMM < c.th.MinGrainLengthMM || d.WidthMM < c.th.MinGrainWidthMM
}

func (c *Classifier) tooWide(d entity.DimensionedDetection) bool {
	return c.th.MaxGrainWidthMM > 0 && d.RawWidthMM >= c.th.MaxGrainWidthMM
}

func (c *Classifier) tooRound(d entity.DimensionedDetection) bool {
	return c.th.MinGrainAspectRatio > 0 && d.RawAspectRatio > 0 &&
		d.RawAspectRatio <= c.th.MinGrainAspectRatio
}

// Короткое и коренастое зерно - битое; короткое, но вытянутое - целое.
func (c *Classifier) brokenByGeometry(d entity.DimensionedDetection) bool {
	return d.LengthMM < c.th.BrokenMaxLengthMM &&
		d.HasAspectRatio() && d.AspectRatio < c.th.BrokenAspectRatio
}
