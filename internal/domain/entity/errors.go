package entity

import (
	"errors"
	"fmt"
)

// UpstreamReason - причина отказа внешнего детектора
type UpstreamReason string

const (
	ReasonTimeout     UpstreamReason = "timeout"
	ReasonUnreachable UpstreamReason = "unreachable"
	ReasonBadStatus   UpstreamReason = "bad_status"
	ReasonMalformed   UpstreamReason = "malformed_response"
)

// UpstreamDetectionError - детектор недоступен, не ответил вовремя или ответил мусором
type UpstreamDetectionError struct {
	Reason UpstreamReason
	Err    error
}

func (e *UpstreamDetectionError) Error() string {
	return fmt.Sprintf("upstream detection failed (%s): %v", e.Reason, e.Err)
}

func (e *UpstreamDetectionError) Unwrap() error {
	return e.Err
}

// InvalidImageError - загруженные данные не декодируются как изображение
type InvalidImageError struct {
	Err error
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %v", e.Err)
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// InvalidBoxError - некорректная геометрия одной детекции
type InvalidBoxError struct {
	Box    Box
	Reason string
}

func (e *InvalidBoxError) Error() string {
	return fmt.Sprintf("invalid box %+v: %s", e.Box, e.Reason)
}

// IsUpstreamTimeout сообщает, что ошибка - таймаут детектора
func IsUpstreamTimeout(err error) bool {
	var upstream *UpstreamDetectionError
	return errors.As(err, &upstream) && upstream.Reason == ReasonTimeout
}
