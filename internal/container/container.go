package container

import (
	"fmt"

	"go.uber.org/zap"

	"rice-guard/config"
	app "rice-guard/internal/application"
	"rice-guard/internal/domain/grading"
	"rice-guard/internal/domain/port"
	"rice-guard/internal/infrastructure/imageprep"
	"rice-guard/internal/infrastructure/roboflow"
	"rice-guard/internal/infrastructure/storage"
	"rice-guard/internal/infrastructure/vision"
)

type Container struct {
	SessionService  *app.SessionService
	AnalysisService *app.AnalysisService
}

// New собирает сервисы приложения из готовых адаптеров
func New(
	sessions port.SessionRepository,
	analysis app.AnalysisConfig,
	preparer port.ImagePreparer,
	detector port.GrainDetector,
	annotator port.GrainAnnotator,
	logger *zap.SugaredLogger,
) (*Container, error) {
	analysisService, err := app.NewAnalysisService(analysis, preparer, detector, annotator, logger.Named("analysis"))
	if err != nil {
		return nil, err
	}

	return &Container{
		SessionService:  app.NewSessionService(sessions),
		AnalysisService: analysisService,
	}, nil
}

// FromConfig собирает контейнер с боевыми адаптерами
func FromConfig(cfg *config.Config, logger *zap.SugaredLogger) (*Container, error) {
	detector, err := roboflow.NewClient(roboflow.Options{
		APIURL:    cfg.RoboflowAPIURL,
		APIKey:    cfg.RoboflowAPIKey,
		ModelID:   cfg.RoboflowModelID,
		Timeout:   cfg.RoboflowTimeout,
		RateLimit: cfg.RoboflowRateLimit,
	}, logger.Named("roboflow"))
	if err != nil {
		return nil, fmt.Errorf("roboflow client: %w", err)
	}

	return New(
		storage.NewMemorySessionRepository(),
		AnalysisConfig(cfg),
		imageprep.NewPreparer(cfg.ImageMaxSide),
		detector,
		vision.NewAnnotator(),
		logger,
	)
}

// AnalysisConfig переносит калибровку и пороги из конфигурации процесса
func AnalysisConfig(cfg *config.Config) app.AnalysisConfig {
	return app.AnalysisConfig{
		Calibration: grading.Calibration{
			PxToMM:          cfg.PxToMM,
			WidthCorrection: cfg.WidthCorrectionFactor,
		},
		Thresholds: grading.Thresholds{
			BrokenMaxLengthMM:    cfg.BrokenMaxLengthMM,
			BrokenAspectRatio:    cfg.BrokenAspectRatio,
			MinGrainLengthMM:     cfg.MinGrainLengthMM,
			MinGrainWidthMM:      cfg.MinGrainWidthMM,
			MaxGrainWidthMM:      cfg.MaxGrainWidthMM,
			MinGrainAspectRatio:  cfg.MinGrainAspectRatio,
			ChalkyScoreThreshold: cfg.ChalkyScoreThreshold,
		},
		Aggregation: grading.AggregatorOptions{
			UseMedian:          cfg.UseMedianStats,
			DenseMaxGrains:     cfg.DenseMaxGrains,
			DenseCoverageRatio: cfg.DenseCoverageRatio,
		},
		MinConfidence: cfg.MinConfidence,
	}
}
