// Package roboflow - клиент хостингового детектора Roboflow.
package roboflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"rice-guard/internal/domain/entity"
	"rice-guard/internal/domain/port"
)

const (
	// DefaultAPIURL - serverless-эндпоинт Roboflow
	DefaultAPIURL = "https://serverless.roboflow.com"

	maxResponseBytes = 16 << 20
	maxErrorSnippet  = 256
)

// Options - параметры клиента
type Options struct {
	APIURL  string
	APIKey  string
	ModelID string
	// Timeout ограничивает один вызов детектора
	Timeout time.Duration
	// RateLimit - запросов в секунду к детектору; 0 - без ограничения
	RateLimit float64
	// HTTPClient можно подменить в тестах
	HTTPClient *http.Client
}

// Client вызывает модель детекции зёрен в Roboflow
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.SugaredLogger
}

// NewClient создаёт клиента детектора
func NewClient(opts Options, logger *zap.SugaredLogger) (*Client, error) {
	if opts.APIKey == "" || opts.ModelID == "" {
		return nil, errors.New("roboflow api key and model id are required")
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	base, err := url.Parse(strings.TrimRight(opts.APIURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse roboflow api url: %w", err)
	}
	base.Path += "/" + strings.Trim(opts.ModelID, "/")
	base.RawQuery = url.Values{"api_key": {opts.APIKey}}.Encode()

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		endpoint: base.String(),
		timeout:  opts.Timeout,
		http:     httpClient,
		logger:   logger,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c, nil
}

// prediction - один объект в ответе Roboflow; рамка задана центром и размерами
type prediction struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
	Class      string   `json:"class"`
	Confidence *float64 `json:"confidence"`
	Chalkiness *float64 `json:"chalkiness"`
}

type inferResponse struct {
	Predictions *[]prediction `json:"predictions"`
}

// Detect отправляет снимок в Roboflow и возвращает детекции в пикселях отправленного JPEG
func (c *Client) Detect(ctx context.Context, jpeg []byte) ([]entity.RawDetection, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &entity.UpstreamDetectionError{Reason: entity.ReasonTimeout, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	body := strings.NewReader(base64.StdEncoding.EncodeToString(jpeg))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, upstreamError(ctx, fmt.Errorf("send request: %w", redact(err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return nil, &entity.UpstreamDetectionError{
			Reason: entity.ReasonBadStatus,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var parsed inferResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		if ctx.Err() != nil {
			return nil, upstreamError(ctx, fmt.Errorf("read response: %w", err))
		}
		return nil, &entity.UpstreamDetectionError{Reason: entity.ReasonMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}

	detections, err := convert(parsed)
	if err != nil {
		return nil, &entity.UpstreamDetectionError{Reason: entity.ReasonMalformed, Err: err}
	}

	c.logger.Debugw("roboflow inference done",
		"detections", len(detections),
		"elapsed", time.Since(started),
	)
	return detections, nil
}

func convert(resp inferResponse) ([]entity.RawDetection, error) {
	if resp.Predictions == nil {
		return nil, errors.New("response has no predictions field")
	}

	out := make([]entity.RawDetection, 0, len(*resp.Predictions))
	for i, p := range *resp.Predictions {
		if p.X == nil || p.Y == nil || p.Width == nil || p.Height == nil {
			return nil, fmt.Errorf("prediction %d: missing box fields", i)
		}
		out = append(out, entity.RawDetection{
			Box:           entity.BoxFromCenter(*p.X, *p.Y, *p.Width, *p.Height),
			DetectorLabel: p.Class,
			Confidence:    p.Confidence,
			Chalkiness:    p.Chalkiness,
		})
	}
	return out, nil
}

// upstreamError отличает таймаут от недоступности сервиса
func upstreamError(ctx context.Context, err error) error {
	reason := entity.ReasonUnreachable
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		reason = entity.ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		reason = entity.ReasonTimeout
	}
	return &entity.UpstreamDetectionError{Reason: reason, Err: err}
}

// redact убирает URL с api_key из ошибки транспорта
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// Проверка реализации интерфейса
var _ port.GrainDetector = (*Client)(nil)
