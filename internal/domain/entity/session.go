package entity

// SessionState состояние диалога с пользователем бота
type SessionState string

const (
	StateMainMenu      SessionState = "main_menu"      // В главном меню
	StateAwaitingPhoto SessionState = "awaiting_photo" // Ожидание фото зерна
	StateProcessing    SessionState = "processing"     // Идёт анализ снимка
)

// Session - состояние чата с ботом. Снимки и результаты здесь не хранятся.
type Session struct {
	UserID int64        // Telegram User ID
	ChatID int64        // Telegram Chat ID
	State  SessionState // Текущее состояние диалога
	Checks int          // Сколько снимков проанализировано за сессию
}

// NewSession создаёт сессию в главном меню
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние диалога
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// CompleteCheck отмечает завершённый анализ и возвращает в главное меню
func (s *Session) CompleteCheck() {
	s.Checks++
	s.State = StateMainMenu
}
