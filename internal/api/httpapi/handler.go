package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"goji.io"
	"goji.io/pat"

	app "rice-guard/internal/application"
	"rice-guard/internal/domain/entity"
	"rice-guard/internal/logging"
)

//go:embed static/index.html
var staticFS embed.FS

// Analyzer - сервис анализа снимка
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*app.AnalysisOutput, error)
}

// Коды ошибок в теле ответа
const (
	codeUnsupportedMedia = "unsupported_media_type"
	codeMissingFile      = "missing_file"
	codeEmptyFile        = "empty_file"
	codeFileTooLarge     = "file_too_large"
	codeInvalidImage     = "invalid_image"
	codeDetectionTimeout = "detection_timeout"
	codeDetectionFailed  = "detection_unavailable"
	codeInternal         = "internal_error"
)

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

type Handler struct {
	analyzer      Analyzer
	maxUploadSize int64
	logger        *zap.SugaredLogger
}

func NewHandler(analyzer Analyzer, maxUploadSize int64, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		analyzer:      analyzer,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Routes возвращает корневой обработчик со всеми маршрутами и CORS
func (h *Handler) Routes() http.Handler {
	mux := goji.NewMux()
	mux.Use(withRequestID(h.logger))
	mux.Use(accessLog(h.logger))

	mux.HandleFunc(pat.Post("/analyze"), h.Analyze)
	mux.HandleFunc(pat.Get("/health"), h.Health)
	mux.HandleFunc(pat.Get("/"), h.Index)

	return cors.AllowAll().Handler(mux)
}

// Analyze обрабатывает POST /analyze с полем формы file
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge, codeFileTooLarge, "Uploaded file is too large")
			return
		}
		h.respondError(w, r, http.StatusBadRequest, codeMissingFile, "Expected an image in form field \"file\"")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		h.respondError(w, r, http.StatusUnsupportedMediaType, codeUnsupportedMedia, "Uploaded file is not an image")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, codeMissingFile, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		h.respondError(w, r, http.StatusBadRequest, codeEmptyFile, "Uploaded file is empty")
		return
	}

	out, err := h.analyzer.Analyze(r.Context(), data)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}

	respondJSON(w, out.Summary, http.StatusOK)
}

// Health проверка здоровья сервиса
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Index отдаёт страницу загрузки снимка
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, codeInternal, "Upload page is unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (h *Handler) respondAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		imgErr   *entity.InvalidImageError
		upstream *entity.UpstreamDetectionError
	)
	log := logging.FromContext(r.Context(), h.logger)

	switch {
	case errors.As(err, &imgErr):
		h.respondError(w, r, http.StatusBadRequest, codeInvalidImage, "Uploaded file is not a decodable image")
	case errors.As(err, &upstream) && upstream.Reason == entity.ReasonTimeout:
		log.Warnw("detection timed out", "error", err)
		h.respondError(w, r, http.StatusGatewayTimeout, codeDetectionTimeout, "Grain detection service timed out")
	case errors.As(err, &upstream):
		log.Errorw("detection failed", "reason", upstream.Reason, "error", err)
		h.respondError(w, r, http.StatusBadGateway, codeDetectionFailed, "Grain detection service is unavailable")
	default:
		log.Errorw("analysis failed", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, codeInternal, "Internal error")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	respondJSON(w, ErrorResponse{
		Error:     code,
		Detail:    detail,
		RequestID: RequestID(r.Context()),
	}, status)
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
