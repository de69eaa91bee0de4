package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"rice-guard/internal/domain/entity"
	"rice-guard/internal/domain/grading"
	"rice-guard/internal/domain/port"
	"rice-guard/internal/logging"
)

// AnalysisConfig - неизменяемые настройки конвейера, задаются при старте
type AnalysisConfig struct {
	Calibration grading.Calibration
	Thresholds  grading.Thresholds
	Aggregation grading.AggregatorOptions
	// MinConfidence отбрасывает детекции с меньшей уверенностью; 0 - без фильтра
	MinConfidence float64
}

// AnalysisOutput - результат анализа одного снимка. Разделяется между
// одновременными запросами с тем же снимком, поэтому только для чтения.
type AnalysisOutput struct {
	Summary entity.AnalysisSummary
	Grains  []entity.ClassifiedDetection
	Frame   entity.Frame
	// Dropped - детекции с некорректной рамкой
	Dropped int
	// Filtered - детекции ниже порога уверенности
	Filtered int
}

// PhotoOutput содержит результат анализа и картинку с подсветкой.
type PhotoOutput struct {
	*AnalysisOutput
	Highlighted []byte
}

// AnalysisService проводит снимок через детектор, измерение, классификацию и агрегацию
type AnalysisService struct {
	preparer   port.ImagePreparer
	detector   port.GrainDetector
	annotator  port.GrainAnnotator
	geometry   *grading.GeometryExtractor
	classifier *grading.Classifier
	aggregator *grading.Aggregator

	minConfidence float64
	flights       singleflight.Group
	logger        *zap.SugaredLogger
}

// NewAnalysisService создаёт сервис анализа. annotator может быть nil.
func NewAnalysisService(
	cfg AnalysisConfig,
	preparer port.ImagePreparer,
	detector port.GrainDetector,
	annotator port.GrainAnnotator,
	logger *zap.SugaredLogger,
) (*AnalysisService, error) {
	if preparer == nil || detector == nil {
		return nil, errors.New("image preparer and detector are required")
	}
	geometry, err := grading.NewGeometryExtractor(cfg.Calibration)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	classifier, err := grading.NewClassifier(cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	aggregator, err := grading.NewAggregator(cfg.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence must be in [0, 1], got %v", cfg.MinConfidence)
	}

	return &AnalysisService{
		preparer:      preparer,
		detector:      detector,
		annotator:     annotator,
		geometry:      geometry,
		classifier:    classifier,
		aggregator:    aggregator,
		minConfidence: cfg.MinConfidence,
		logger:        logger,
	}, nil
}

// Analyze анализирует снимок. Фатальны только ошибки снимка (*entity.InvalidImageError)
// и детектора (*entity.UpstreamDetectionError); некорректные рамки отбрасываются.
// Одновременные запросы с одинаковым содержимым выполняются один раз.
func (s *AnalysisService) Analyze(ctx context.Context, image []byte) (*AnalysisOutput, error) {
	key := contentKey(image)
	log := logging.FromContext(ctx, s.logger)

	v, err, shared := s.flights.Do(key, func() (interface{}, error) {
		// работа общая для всех ждущих запросов: отмена одного клиента её не прерывает,
		// а логи пишутся без идентификатора конкретного запроса
		flightCtx := logging.WithLogger(context.WithoutCancel(ctx), s.logger.With("content", key[:12]))
		return s.analyze(flightCtx, image)
	})
	if err != nil {
		return nil, err
	}
	out := v.(*AnalysisOutput)

	if out.Summary.IsEmpty() {
		log.Warnw("no grains found",
			"raw_detections", len(out.Grains)+out.Dropped+out.Filtered,
			"dropped", out.Dropped,
			"filtered", out.Filtered,
		)
	}
	log.Infow("analysis done",
		"content", key[:12],
		"shared", shared,
		"total", out.Summary.TotalGrains,
		"good", out.Summary.GoodGrains,
		"broken", out.Summary.BrokenGrains,
		"chalky", out.Summary.ChalkyGrains,
		"foreign", out.Summary.ForeignMatter,
		"dropped", out.Dropped,
		"filtered", out.Filtered,
	)
	return out, nil
}

// ProcessPhoto анализирует снимок и подсвечивает зёрна. Ошибка подсветки не фатальна.
func (s *AnalysisService) ProcessPhoto(ctx context.Context, image []byte) (*PhotoOutput, error) {
	out, err := s.Analyze(ctx, image)
	if err != nil {
		return nil, err
	}

	result := &PhotoOutput{AnalysisOutput: out}
	if s.annotator == nil || len(out.Grains) == 0 {
		return result, nil
	}

	highlighted, err := s.annotator.Highlight(image, out.Grains)
	if err != nil {
		logging.FromContext(ctx, s.logger).Warnw("highlight grains failed", "error", err)
		return result, nil
	}
	result.Highlighted = highlighted
	return result, nil
}

func (s *AnalysisService) analyze(ctx context.Context, image []byte) (*AnalysisOutput, error) {
	log := logging.FromContext(ctx, s.logger)

	prepared, err := s.preparer.Prepare(image)
	if err != nil {
		return nil, fmt.Errorf("prepare image: %w", err)
	}

	raw, err := s.detector.Detect(ctx, prepared.JPEG)
	if err != nil {
		var upstream *entity.UpstreamDetectionError
		if !errors.As(err, &upstream) {
			err = &entity.UpstreamDetectionError{Reason: entity.ReasonUnreachable, Err: err}
		}
		return nil, fmt.Errorf("detect grains: %w", err)
	}

	out := s.grade(log, raw, prepared)
	out.Summary = s.aggregator.Summarize(out.Grains, out.Frame)
	return out, nil
}

// grade возвращает рамки в пиксели исходника, измеряет и классифицирует каждое зерно
func (s *AnalysisService) grade(log *zap.SugaredLogger, raw []entity.RawDetection, prepared *port.PreparedImage) *AnalysisOutput {
	out := &AnalysisOutput{
		Frame:  prepared.Frame,
		Grains: make([]entity.ClassifiedDetection, 0, len(raw)),
	}

	scale := prepared.Scale
	if !(scale > 0) {
		scale = 1
	}

	for _, r := range raw {
		if scale != 1 {
			r.Box = r.Box.Scale(1 / scale)
		}
		if s.minConfidence > 0 && r.Confidence != nil && *r.Confidence < s.minConfidence {
			out.Filtered++
			continue
		}

		d, err := s.geometry.Measure(r)
		if err != nil {
			out.Dropped++
			log.Debugw("dropping detection", "error", err)
			continue
		}
		out.Grains = append(out.Grains, s.classifier.Classify(d))
	}
	return out
}

func contentKey(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
