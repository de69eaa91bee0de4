package app

import (
	"context"
	"errors"

	"rice-guard/internal/domain/entity"
	"rice-guard/internal/domain/port"
)

// SessionService управляет состоянием диалога с ботом
type SessionService struct {
	repo port.SessionRepository
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SessionService) SetState(ctx context.Context, userID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	session.SetState(state)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SessionService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *SessionService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateProcessing)
}

func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// CompleteCheck засчитывает анализ и возвращает пользователя в главное меню
func (s *SessionService) CompleteCheck(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	session.CompleteCheck()
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// RunCheck переводит сессию в обработку, выполняет check и возвращает
// пользователя в главное меню. Проверка засчитывается, только если check
// завершился без ошибки; ошибка check возвращается как есть.
func (s *SessionService) RunCheck(ctx context.Context, userID, chatID int64, check func() error) error {
	if _, err := s.StartProcessing(ctx, userID, chatID); err != nil {
		return err
	}

	if err := check(); err != nil {
		_, cancelErr := s.Cancel(ctx, userID, chatID)
		return errors.Join(err, cancelErr)
	}

	_, err := s.CompleteCheck(ctx, userID, chatID)
	return err
}
