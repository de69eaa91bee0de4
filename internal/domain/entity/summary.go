package entity

// AnalysisSummary - итог анализа одного снимка
type AnalysisSummary struct {
	TotalGrains      int     `json:"total_grains"`
	GoodGrains       int     `json:"good_grains"`
	BrokenGrains     int     `json:"broken_grains"`
	ForeignMatter    int     `json:"foreign_matter"`
	ChalkyGrains     int     `json:"chalky_grains"`
	AvgGrainLengthMM float64 `json:"avg_grain_length_mm"`
	AvgGrainWidthMM  float64 `json:"avg_grain_width_mm"`
	Note             string  `json:"note"`
}

// Add учитывает одно зерно в счётчиках и пересчитывает общее количество
func (s *AnalysisSummary) Add(label GrainLabel) {
	switch label {
	case LabelGood:
		s.GoodGrains++
	case LabelBroken:
		s.BrokenGrains++
	case LabelChalky:
		s.ChalkyGrains++
	case LabelForeign:
		s.ForeignMatter++
	default:
		return
	}
	s.TotalGrains = s.GoodGrains + s.BrokenGrains + s.ChalkyGrains + s.ForeignMatter
}

// Count возвращает количество зёрен класса
func (s AnalysisSummary) Count(label GrainLabel) int {
	switch label {
	case LabelGood:
		return s.GoodGrains
	case LabelBroken:
		return s.BrokenGrains
	case LabelChalky:
		return s.ChalkyGrains
	case LabelForeign:
		return s.ForeignMatter
	}
	return 0
}

// IsEmpty сообщает, что на снимке не найдено ни одного объекта
func (s AnalysisSummary) IsEmpty() bool {
	return s.TotalGrains == 0
}
