package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"rice-guard/internal/domain/entity"
)

func classified(label entity.GrainLabel, length, width float64) entity.ClassifiedDetection {
	return entity.ClassifiedDetection{
		DimensionedDetection: entity.DimensionedDetection{
			RawDetection: entity.RawDetection{Box: entity.Box{XMax: 10, YMax: 10}},
			LengthMM:     length,
			WidthMM:      width,
		},
		Label: label,
	}
}

func newTestAggregator(t *testing.T, opts AggregatorOptions) *Aggregator {
	t.Helper()
	a, err := NewAggregator(opts)
	require.NoError(t, err)
	return a
}

func outlierGrains() []entity.ClassifiedDetection {
	var grains []entity.ClassifiedDetection
	for _, v := range []float64{2, 4, 4, 6, 100} {
		grains = append(grains, classified(entity.LabelGood, v, v))
	}
	return grains
}

func TestAggregator_MedianIgnoresOutlier(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: true})
	s := a.Summarize(outlierGrains(), entity.Frame{})
	require.InDelta(t, 4.0, s.AvgGrainLengthMM, 1e-9)
	require.InDelta(t, 4.0, s.AvgGrainWidthMM, 1e-9)
}

func TestAggregator_MeanFollowsOutlier(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: false})
	s := a.Summarize(outlierGrains(), entity.Frame{})
	require.InDelta(t, 23.2, s.AvgGrainLengthMM, 1e-9)
	require.InDelta(t, 23.2, s.AvgGrainWidthMM, 1e-9)
}

func TestAggregator_MedianEvenLength(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: true})
	grains := []entity.ClassifiedDetection{
		classified(entity.LabelGood, 7, 2),
		classified(entity.LabelGood, 5, 1),
		classified(entity.LabelBroken, 3, 1.5),
		classified(entity.LabelGood, 6, 2.5),
	}
	s := a.Summarize(grains, entity.Frame{})
	require.InDelta(t, 5.5, s.AvgGrainLengthMM, 1e-9)
	require.InDelta(t, 1.75, s.AvgGrainWidthMM, 1e-9)
}

func TestAggregator_CountsAndSizeSubset(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: false})
	grains := []entity.ClassifiedDetection{
		classified(entity.LabelGood, 6, 2),
		classified(entity.LabelBroken, 4, 2),
		classified(entity.LabelChalky, 50, 50),
		classified(entity.LabelForeign, 90, 90),
		classified(entity.LabelForeign, 0.5, 0.1),
	}
	s := a.Summarize(grains, entity.Frame{})

	require.Equal(t, 5, s.TotalGrains)
	require.Equal(t, 1, s.GoodGrains)
	require.Equal(t, 1, s.BrokenGrains)
	require.Equal(t, 1, s.ChalkyGrains)
	require.Equal(t, 2, s.ForeignMatter)
	require.Equal(t, s.TotalGrains, s.GoodGrains+s.BrokenGrains+s.ForeignMatter+s.ChalkyGrains)
	require.InDelta(t, 5.0, s.AvgGrainLengthMM, 1e-9, "chalky and foreign excluded")
	require.InDelta(t, 2.0, s.AvgGrainWidthMM, 1e-9)
	require.Empty(t, s.Note)
}

func TestCountsTowardSize(t *testing.T) {
	require.True(t, CountsTowardSize(entity.LabelGood))
	require.True(t, CountsTowardSize(entity.LabelBroken))
	require.False(t, CountsTowardSize(entity.LabelChalky))
	require.False(t, CountsTowardSize(entity.LabelForeign))
	require.False(t, CountsTowardSize(entity.GrainLabel("unknown")))
}

func TestAggregator_EmptyInput(t *testing.T) {
	for _, median := range []bool{true, false} {
		a := newTestAggregator(t, AggregatorOptions{UseMedian: median, DenseMaxGrains: 10})
		s := a.Summarize(nil, entity.Frame{Width: 100, Height: 100})
		require.Equal(t, entity.AnalysisSummary{}, s)
		require.False(t, math.IsNaN(s.AvgGrainLengthMM))
		require.True(t, s.IsEmpty())
	}
}

func TestAggregator_OnlyExcludedLabels(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: true})
	s := a.Summarize([]entity.ClassifiedDetection{
		classified(entity.LabelForeign, 10, 10),
		classified(entity.LabelChalky, 6, 2),
	}, entity.Frame{})
	require.Equal(t, 2, s.TotalGrains)
	require.Zero(t, s.AvgGrainLengthMM)
	require.Zero(t, s.AvgGrainWidthMM)
}

func TestAggregator_DenseByCount(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: true, DenseMaxGrains: 4})

	require.Empty(t, a.Summarize(outlierGrains()[:4], entity.Frame{}).Note)
	require.Equal(t, DenseNote, a.Summarize(outlierGrains(), entity.Frame{}).Note)
}

func TestAggregator_DenseByCoverage(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: true, DenseCoverageRatio: 0.5})

	// пять рамок 10x10 = 500 px²
	grains := outlierGrains()
	require.Equal(t, DenseNote, a.Summarize(grains, entity.Frame{Width: 30, Height: 30}).Note)
	require.Empty(t, a.Summarize(grains, entity.Frame{Width: 100, Height: 100}).Note)
	require.Empty(t, a.Summarize(grains, entity.Frame{}).Note, "unknown frame skips coverage check")
}

func TestAggregator_Deterministic(t *testing.T) {
	a := newTestAggregator(t, AggregatorOptions{UseMedian: true})
	grains := outlierGrains()
	require.Equal(t, a.Summarize(grains, entity.Frame{}), a.Summarize(grains, entity.Frame{}))
	require.Equal(t, 2.0, grains[0].LengthMM, "input is not reordered")
}

func TestNewAggregator_RejectsNegative(t *testing.T) {
	_, err := NewAggregator(AggregatorOptions{DenseMaxGrains: -1})
	require.Error(t, err)
	_, err = NewAggregator(AggregatorOptions{DenseCoverageRatio: -0.1})
	require.Error(t, err)
}
