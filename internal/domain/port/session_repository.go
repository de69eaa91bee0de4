package port

import (
	"context"

	"rice-guard/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий бота
type SessionRepository interface {
	// Get возвращает сессию пользователя, создаёт новую если не найдена
	Get(ctx context.Context, userID, chatID int64) (*entity.Session, error)

	// Save сохраняет состояние сессии
	Save(ctx context.Context, session *entity.Session) error

	// UpdateState обновляет состояние диалога
	UpdateState(ctx context.Context, userID int64, state entity.SessionState) error
}
