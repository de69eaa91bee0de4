package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "rice-guard/internal/application"
	"rice-guard/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я оцениваю качество риса по фотографии.

📸 Отправьте фото зёрен, рассыпанных в один слой, и я посчитаю целые, битые, меловые зёрна и сор.

📋 Команды:
/check — начать проверку
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Рассыпьте зёрна в один слой на однотонном фоне
2️⃣ Сфотографируйте сверху и отправьте фото
3️⃣ Получите сводку и фото с подсветкой зёрен

🟩 целое  🟧 битое  🟦 меловое  🟥 сор

📋 Команды:
/check — начать проверку
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото зёрен для проверки."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото зёрен."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую снимок..."
	msgNoGrains        = "🤷 Зёрна на снимке не найдены. Попробуйте другое фото."
	msgInvalidImage    = "⚠️ Не удалось прочитать изображение. Отправьте фото в формате JPEG или PNG."
	msgDetectorTimeout = "⌛ Сервис распознавания не ответил вовремя. Попробуйте ещё раз чуть позже."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
)

// PhotoAnalyzer анализирует снимок и подсвечивает зёрна
type PhotoAnalyzer interface {
	ProcessPhoto(ctx context.Context, image []byte) (*app.PhotoOutput, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	sessions *app.SessionService
	analyzer PhotoAnalyzer
	http     *http.Client
	logger   *zap.SugaredLogger
}

// NewBot создаёт нового бота
func NewBot(token string, sessions *app.SessionService, analyzer PhotoAnalyzer, logger *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Infow("telegram bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:      api,
		sessions: sessions,
		analyzer: analyzer,
		http:     &http.Client{},
		logger:   logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	var err error

	switch msg.Command() {
	case "start":
		_, err = b.sessions.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		_, err = b.sessions.BeginCheck(ctx, userID, chatID)
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "cancel":
		_, err = b.sessions.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}

	if err != nil {
		b.logger.Warnw("update session failed", "user", userID, "error", err)
	}
}

// handlePhoto анализирует входящее фото и отвечает сводкой.
// Апдейты обрабатываются по одному, так что второе фото того же
// пользователя не может прийти посреди анализа.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	log := b.logger.With("user", userID)

	b.sendMessage(chatID, msgProcessing)

	var out *app.PhotoOutput
	err := b.sessions.RunCheck(ctx, userID, chatID, func() error {
		// Получаем файл с максимальным разрешением
		photo := msg.Photo[len(msg.Photo)-1]

		imageData, err := b.downloadFile(ctx, photo.FileID)
		if err != nil {
			return err
		}

		out, err = b.analyzer.ProcessPhoto(ctx, imageData)
		return err
	})
	if err != nil {
		log.Warnw("photo check failed", "error", err)
		b.sendMessage(chatID, errorMessage(err))
		return
	}

	if out.Summary.IsEmpty() {
		b.sendMessage(chatID, msgNoGrains)
		return
	}

	text := FormatSummary(out.Summary)
	if len(out.Highlighted) == 0 {
		b.sendMessage(chatID, text)
		return
	}

	reply := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "grains.jpg", Bytes: out.Highlighted})
	reply.Caption = text
	if _, err := b.api.Send(reply); err != nil {
		log.Warnw("send photo failed", "error", err)
		b.sendMessage(chatID, text)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, errors.New("download file: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warnw("send message failed", "chat", chatID, "error", err)
	}
}

// FormatSummary готовит текст сводки для пользователя
func FormatSummary(s entity.AnalysisSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌾 Всего зёрен: %d\n", s.TotalGrains)
	fmt.Fprintf(&sb, "✅ Целые: %d\n", s.GoodGrains)
	fmt.Fprintf(&sb, "💔 Битые: %d\n", s.BrokenGrains)
	fmt.Fprintf(&sb, "⚪ Меловые: %d\n", s.ChalkyGrains)
	fmt.Fprintf(&sb, "🪨 Сор: %d\n", s.ForeignMatter)
	fmt.Fprintf(&sb, "📏 Средняя длина: %.2f мм\n", s.AvgGrainLengthMM)
	fmt.Fprintf(&sb, "📐 Средняя ширина: %.2f мм", s.AvgGrainWidthMM)
	if s.Note != "" {
		fmt.Fprintf(&sb, "\n\n⚠️ %s", s.Note)
	}
	return sb.String()
}

// errorMessage подбирает ответ пользователю по типу ошибки
func errorMessage(err error) string {
	var imgErr *entity.InvalidImageError
	switch {
	case errors.As(err, &imgErr):
		return msgInvalidImage
	case entity.IsUpstreamTimeout(err):
		return msgDetectorTimeout
	}
	return msgProcessingError
}
