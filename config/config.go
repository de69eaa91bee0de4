package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Config - настройки процесса, читаются один раз при старте
type Config struct {
	HTTPAddr      string
	MaxUploadSize int64
	LogLevel      string
	LogFormat     string

	RoboflowAPIKey    string
	RoboflowAPIURL    string
	RoboflowModelID   string
	RoboflowTimeout   time.Duration
	RoboflowRateLimit float64

	ImageMaxSide int

	PxToMM                float64
	WidthCorrectionFactor float64
	BrokenMaxLengthMM     float64
	BrokenAspectRatio     float64
	MinGrainLengthMM      float64
	MinGrainWidthMM       float64
	MaxGrainWidthMM       float64
	MinGrainAspectRatio   float64
	ChalkyScoreThreshold  float64
	MinConfidence         float64
	UseMedianStats        bool
	DenseMaxGrains        int
	DenseCoverageRatio    float64

	// TelegramToken включает Telegram-бота; пустой - бот не запускается
	TelegramToken string
}

// Load читает .env (если есть) и переменные окружения.
// Все ошибки разбора и проверки возвращаются разом.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8000"),
		MaxUploadSize: int64(p.intVar("MAX_UPLOAD_MB", 20)) << 20,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),

		RoboflowAPIKey:    os.Getenv("ROBOFLOW_API_KEY"),
		RoboflowAPIURL:    getEnv("ROBOFLOW_API_URL", "https://serverless.roboflow.com"),
		RoboflowModelID:   os.Getenv("ROBOFLOW_MODEL_ID"),
		RoboflowTimeout:   time.Duration(p.floatVar("ROBOFLOW_TIMEOUT_SECONDS", 60) * float64(time.Second)),
		RoboflowRateLimit: p.floatVar("ROBOFLOW_RATE_LIMIT", 0),

		ImageMaxSide: p.intVar("IMAGE_MAX_SIDE", 2048),

		PxToMM:                p.floatVar("PX_TO_MM", 0.18),
		WidthCorrectionFactor: p.floatVar("WIDTH_CORRECTION_FACTOR", 0.42),
		BrokenMaxLengthMM:     p.floatVar("BROKEN_MAX_LENGTH_MM", 4.5),
		BrokenAspectRatio:     p.floatVar("BROKEN_ASPECT_RATIO", 2.5),
		MinGrainLengthMM:      p.floatVar("MIN_GRAIN_LENGTH_MM", 1.0),
		MinGrainWidthMM:       p.floatVar("MIN_GRAIN_WIDTH_MM", 0.5),
		MaxGrainWidthMM:       p.floatVar("MAX_GRAIN_WIDTH_MM", 4.0),
		MinGrainAspectRatio:   p.floatVar("MIN_GRAIN_ASPECT_RATIO", 0),
		ChalkyScoreThreshold:  p.floatVar("CHALKY_SCORE_THRESHOLD", 0.5),
		MinConfidence:         p.floatVar("MIN_DETECTION_CONFIDENCE", 0),
		UseMedianStats:        p.boolVar("USE_MEDIAN_STATS", true),
		DenseMaxGrains:        p.intVar("DENSE_MAX_GRAINS", 300),
		DenseCoverageRatio:    p.floatVar("DENSE_COVERAGE_RATIO", 0.55),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	if err := multierr.Append(p.err, cfg.Validate()); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate проверяет обязательные поля и диапазоны.
// Пороги грейдинга дополнительно проверяет сам конвейер при сборке.
func (c *Config) Validate() error {
	var err error
	if c.RoboflowAPIKey == "" {
		err = multierr.Append(err, fmt.Errorf("ROBOFLOW_API_KEY is required"))
	}
	if c.RoboflowModelID == "" {
		err = multierr.Append(err, fmt.Errorf("ROBOFLOW_MODEL_ID is required"))
	}
	if c.RoboflowTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("ROBOFLOW_TIMEOUT_SECONDS must be positive"))
	}
	if c.RoboflowRateLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("ROBOFLOW_RATE_LIMIT must not be negative"))
	}
	if c.MaxUploadSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("MAX_UPLOAD_MB must be positive"))
	}
	if c.ImageMaxSide < 0 {
		err = multierr.Append(err, fmt.Errorf("IMAGE_MAX_SIDE must not be negative"))
	}
	if c.PxToMM <= 0 {
		err = multierr.Append(err, fmt.Errorf("PX_TO_MM must be positive"))
	}
	if c.WidthCorrectionFactor <= 0 || c.WidthCorrectionFactor > 1 {
		err = multierr.Append(err, fmt.Errorf("WIDTH_CORRECTION_FACTOR must be in (0, 1]"))
	}
	return err
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// parser копит ошибки разбора, чтобы сообщить обо всех сразу
type parser struct {
	err error
}

func (p *parser) floatVar(key string, defaultVal float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: %q is not a number", key, raw))
		return defaultVal
	}
	return v
}

func (p *parser) intVar(key string, defaultVal int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: %q is not an integer", key, raw))
		return defaultVal
	}
	return v
}

func (p *parser) boolVar(key string, defaultVal bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return defaultVal
	}
	return v
}
