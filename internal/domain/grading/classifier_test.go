package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rice-guard/internal/domain/entity"
)

var testThresholds = Thresholds{
	BrokenMaxLengthMM:    4.5,
	BrokenAspectRatio:    1.45,
	MinGrainLengthMM:     1.0,
	MinGrainWidthMM:      0.5,
	MaxGrainWidthMM:      4.0,
	ChalkyScoreThreshold: 0.5,
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(testThresholds)
	require.NoError(t, err)
	return c
}

func grain(length, width float64, label string) entity.DimensionedDetection {
	d := entity.DimensionedDetection{
		RawDetection: entity.RawDetection{DetectorLabel: label},
		LengthMM:     length,
		WidthMM:      width,
		RawWidthMM:   width,
	}
	if width > 0 {
		d.AspectRatio = length / width
		d.RawAspectRatio = d.AspectRatio
	}
	return d
}

func score(v float64) *float64 {
	return &v
}

func TestClassifier_Precedence(t *testing.T) {
	c := newTestClassifier(t)

	cases := []struct {
		name string
		in   entity.DimensionedDetection
		want entity.GrainLabel
	}{
		{"long slender grain", grain(6.0, 2.0, ""), entity.LabelGood},
		{"short stubby grain", grain(3.0, 2.5, ""), entity.LabelBroken},
		{"short but slender grain", grain(4.0, 1.5, ""), entity.LabelGood},
		{"long stubby grain", grain(5.0, 3.9, ""), entity.LabelGood},
		{"too short", grain(0.8, 0.6, ""), entity.LabelForeign},
		{"too thin", grain(3.0, 0.4, ""), entity.LabelForeign},
		{"too wide", grain(6.0, 4.0, ""), entity.LabelForeign},
		{"foreign hint wins over good geometry", grain(6.0, 2.0, "Foreign-Matter"), entity.LabelForeign},
		{"foreign hint wins over chalky score", entity.DimensionedDetection{
			RawDetection: entity.RawDetection{DetectorLabel: "foreign", Chalkiness: score(0.9)},
			LengthMM:     6, WidthMM: 2, AspectRatio: 3,
		}, entity.LabelForeign},
		{"chalky hint", grain(6.0, 2.0, "chalky"), entity.LabelChalky},
		{"chalky hint wins over broken geometry", grain(3.0, 2.5, "chalky grain"), entity.LabelChalky},
		{"size check wins over chalky hint", grain(0.5, 0.3, "chalky"), entity.LabelForeign},
		{"broken hint", grain(6.0, 2.0, "broken"), entity.LabelBroken},
		{"good hint does not override geometry", grain(3.0, 2.5, "good"), entity.LabelBroken},
		{"unknown hint", grain(6.0, 2.0, "rice"), entity.LabelGood},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, c.Classify(tc.in).Label)
		})
	}
}

func TestClassifier_ChalkinessScore(t *testing.T) {
	c := newTestClassifier(t)

	d := grain(6.0, 2.0, "")
	d.Chalkiness = score(0.51)
	require.Equal(t, entity.LabelChalky, c.Classify(d).Label)

	d.Chalkiness = score(0.5)
	require.Equal(t, entity.LabelGood, c.Classify(d).Label, "threshold is strict")
}

func TestClassifier_ChalkyUnreachableWithoutSignal(t *testing.T) {
	c := newTestClassifier(t)

	for l := 0.2; l < 10; l += 0.3 {
		for w := 0.1; w < 5; w += 0.2 {
			require.NotEqual(t, entity.LabelChalky, c.Classify(grain(l, w, "")).Label)
		}
	}
}

func TestClassifier_BrokenLengthBoundary(t *testing.T) {
	c := newTestClassifier(t)

	require.Equal(t, entity.LabelGood, c.Classify(grain(4.5, 3.6, "")).Label, "length at threshold is not broken")
	require.Equal(t, entity.LabelBroken, c.Classify(grain(4.49, 3.6, "")).Label, "length below threshold is broken")
}

func TestClassifier_BrokenAspectBoundary(t *testing.T) {
	c := newTestClassifier(t)

	require.Equal(t, entity.LabelGood, c.Classify(grain(2.9, 2.0, "")).Label, "aspect at threshold is not broken")
	require.Equal(t, entity.LabelBroken, c.Classify(grain(2.8, 2.0, "")).Label, "aspect below threshold is broken")
}

func TestClassifier_Idempotent(t *testing.T) {
	c := newTestClassifier(t)

	for _, d := range []entity.DimensionedDetection{
		grain(6.0, 2.0, ""), grain(3.0, 2.5, ""), grain(0.5, 0.2, ""), grain(6.0, 2.0, "chalky"),
	} {
		first := c.Classify(d)
		second := c.Classify(d)
		require.Equal(t, first, second)
		require.Equal(t, d, first.DimensionedDetection)
	}
}

func TestClassifier_WidthCheckUsesUncorrectedWidth(t *testing.T) {
	c := newTestClassifier(t)
	g := newTestExtractor(t, 0.18, 0.42)

	// 40x30 px: ширина 5.4 мм до поправки и 2.27 мм после
	d, err := g.Measure(entity.RawDetection{Box: entity.Box{XMax: 40, YMax: 30}})
	require.NoError(t, err)
	require.Less(t, d.WidthMM, testThresholds.MaxGrainWidthMM)
	require.GreaterOrEqual(t, d.RawWidthMM, testThresholds.MaxGrainWidthMM)
	require.Equal(t, entity.LabelForeign, c.Classify(d).Label)

	// 40x20 px: 3.6 мм до поправки - обычное зерно
	d, err = g.Measure(entity.RawDetection{Box: entity.Box{XMax: 40, YMax: 20}})
	require.NoError(t, err)
	require.Equal(t, entity.LabelGood, c.Classify(d).Label)
}

func TestClassifier_RoundShapeIsForeign(t *testing.T) {
	th := testThresholds
	th.MinGrainAspectRatio = 1.15
	c, err := NewClassifier(th)
	require.NoError(t, err)
	g := newTestExtractor(t, 0.1, 0.42)

	// 30x28 px: отношение сторон 1.07 до поправки
	d, err := g.Measure(entity.RawDetection{Box: entity.Box{XMax: 30, YMax: 28}})
	require.NoError(t, err)
	require.InDelta(t, 30.0/28.0, d.RawAspectRatio, 1e-9)
	require.Equal(t, entity.LabelForeign, c.Classify(d).Label)

	// граница включительная
	require.Equal(t, entity.LabelForeign, c.Classify(grain(2.3, 2.0, "")).Label)
	require.Equal(t, entity.LabelBroken, c.Classify(grain(2.4, 2.0, "")).Label)

	// без порога та же рамка не сор
	require.NotEqual(t, entity.LabelForeign, newTestClassifier(t).Classify(d).Label)
}

func TestParseHint(t *testing.T) {
	require.Equal(t, hintForeign, parseHint(" Foreign Matter "))
	require.Equal(t, hintChalky, parseHint("CHALKY"))
	require.Equal(t, hintBroken, parseHint("broken-grain"))
	require.Equal(t, hintNone, parseHint("good"))
	require.Equal(t, hintNone, parseHint(""))
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, testThresholds.Validate())

	bad := testThresholds
	bad.BrokenMaxLengthMM = -1
	require.Error(t, bad.Validate())

	bad = testThresholds
	bad.ChalkyScoreThreshold = 1.5
	require.Error(t, bad.Validate())

	bad = testThresholds
	bad.MinGrainAspectRatio = -0.1
	require.Error(t, bad.Validate())

	bad = testThresholds
	bad.MaxGrainWidthMM = 0.3
	require.Error(t, bad.Validate())

	disabled := testThresholds
	disabled.MaxGrainWidthMM = 0
	require.NoError(t, disabled.Validate())
}
