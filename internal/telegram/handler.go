package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oygul/asil/conversation"
	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/logging"
)

// PendingText is shown while a turn is being answered.
const PendingText = "⏳..."

// LanguageCallbackPrefix prefixes the callback data of the language keyboard.
const LanguageCallbackPrefix = "lang_"

// MaxMessageLength is the longest text Telegram accepts in one message.
const MaxMessageLength = 4096

// Lifecycle is the conversation surface the bot drives.
type Lifecycle interface {
	Start(ctx context.Context, userID string) conversation.Reply
	SelectLanguage(ctx context.Context, userID, lang string) (conversation.Reply, error)
	HandleText(ctx context.Context, userID, text string, onPending func()) conversation.Reply
}

// Handler turns updates into lifecycle calls and sends the replies.
type Handler struct {
	api     API
	conv    Lifecycle
	logger  logging.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewHandler creates a Handler.
func NewHandler(api API, conv Lifecycle, logger logging.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Handler{api: api, conv: conv, logger: logger, metrics: m, locks: make(map[int64]*sync.Mutex)}
}

// HandleUpdate processes one update. Updates of the same user never run
// concurrently.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil || cq.Message == nil {
			return nil
		}
		unlock := h.lock(cq.From.ID)
		defer unlock()
		return h.handleCallback(ctx, cq)
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Text == "" {
			return nil
		}
		unlock := h.lock(msg.From.ID)
		defer unlock()
		h.metrics.ObserveTelegram(metrics.TelegramReceived)
		return h.handleMessage(ctx, msg)
	default:
		return nil
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	h.logger.Debug("telegram.message.received", "chat_id", chatID, "user_id", userID, "command", msg.Command())

	if msg.IsCommand() && msg.Command() == "start" {
		reply := h.conv.Start(ctx, userID)
		return h.send(chatID, reply, false)
	}

	var (
		pendingID  int
		pendingErr error
	)
	reply := h.conv.HandleText(ctx, userID, msg.Text, func() {
		sent, err := h.api.Send(tgbotapi.NewMessage(chatID, PendingText))
		if err != nil {
			pendingErr = err
			return
		}
		h.metrics.ObserveTelegram(metrics.TelegramSent)
		pendingID = sent.MessageID
	})

	if pendingErr != nil {
		h.logger.Warn("telegram.pending.failed", "chat_id", chatID, "error", pendingErr)
	}

	chunks := splitMessage(reply.Text, MaxMessageLength)

	if pendingID == 0 {
		for _, chunk := range chunks {
			if err := h.send(chatID, conversation.Reply{Text: chunk}, false); err != nil {
				return err
			}
		}
		return nil
	}

	if err := h.edit(chatID, pendingID, chunks[0]); err != nil {
		return err
	}
	for _, chunk := range chunks[1:] {
		if err := h.send(chatID, conversation.Reply{Text: chunk}, true); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if !strings.HasPrefix(cq.Data, LanguageCallbackPrefix) {
		return nil
	}

	userID := strconv.FormatInt(cq.From.ID, 10)
	lang := strings.TrimPrefix(cq.Data, LanguageCallbackPrefix)

	reply, err := h.conv.SelectLanguage(ctx, userID, lang)

	if _, ackErr := h.api.Request(tgbotapi.NewCallback(cq.ID, "")); ackErr != nil {
		h.logger.Warn("telegram.callback.ack_failed", "user_id", userID, "error", ackErr)
	}

	if err != nil {
		return fmt.Errorf("select language: %w", err)
	}

	return h.send(cq.Message.Chat.ID, reply, true)
}

// send delivers reply as a new message, with the language keyboard when the
// reply asks for it.
func (h *Handler) send(chatID int64, reply conversation.Reply, html bool) error {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.ChooseLanguage {
		msg.ReplyMarkup = languageKeyboard()
	}
	if html {
		msg.ParseMode = tgbotapi.ModeHTML
	}

	_, err := h.api.Send(msg)
	if err != nil && html && isMarkupError(err) {
		msg.ParseMode = ""
		_, err = h.api.Send(msg)
	}
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	h.metrics.ObserveTelegram(metrics.TelegramSent)
	return nil
}

// edit replaces the pending message with text, retrying without markup when
// Telegram rejects the HTML.
func (h *Handler) edit(chatID int64, messageID int, text string) error {
	start := time.Now()

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML

	_, err := h.api.Send(edit)
	if err != nil && isMarkupError(err) {
		h.logger.Debug("telegram.edit.plain_retry", "chat_id", chatID, "error", err)
		edit.ParseMode = ""
		_, err = h.api.Send(edit)
	}
	if err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return fmt.Errorf("failed to update message: %w", err)
	}

	h.logger.Debug("telegram.reply.sent", "chat_id", chatID, "message_id", messageID, "duration", time.Since(start))
	return nil
}

func (h *Handler) lock(userID int64) func() {
	h.mu.Lock()
	l, ok := h.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		h.locks[userID] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(conversation.Languages))
	for _, lang := range conversation.Languages {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(conversation.LanguageLabels[lang], LanguageCallbackPrefix+lang))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
}

// splitMessage cuts text into pieces of at most limit runes, preferring
// line breaks. It always returns at least one piece.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func isMarkupError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "can't parse entities") || strings.Contains(s, "can't find end of")
}
