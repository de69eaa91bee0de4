package entity

// GrainLabel - класс качества зерна
type GrainLabel string

const (
	LabelGood    GrainLabel = "good"    // целое зерно
	LabelBroken  GrainLabel = "broken"  // битое зерно
	LabelChalky  GrainLabel = "chalky"  // меловое зерно
	LabelForeign GrainLabel = "foreign" // сорная примесь
)

// Labels перечисляет все классы в порядке вывода
var Labels = []GrainLabel{LabelGood, LabelBroken, LabelChalky, LabelForeign}

// ClassifiedDetection - детекция с присвоенным классом
type ClassifiedDetection struct {
	DimensionedDetection
	Label GrainLabel `json:"label"`
}
