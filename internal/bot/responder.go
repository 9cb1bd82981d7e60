package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Sender — часть Telegram API, которой пользуются обработчики.
// Реализуется *telego.Bot.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
	DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error
}

// Responder отвечает на действие пользователя: новым сообщением на команду
// или правкой сообщения с кнопками на callback. Варианты — NewMessage и
// EditableMessage.
type Responder interface {
	Respond(ctx context.Context, text string, markup *telego.InlineKeyboardMarkup) error
	ChatID() int64
}

// NewMessage отправляет ответ отдельным сообщением.
type NewMessage struct {
	API  Sender
	Chat int64
}

func (r NewMessage) ChatID() int64 { return r.Chat }

func (r NewMessage) Respond(ctx context.Context, text string, markup *telego.InlineKeyboardMarkup) error {
	msg := tu.Message(tu.ID(r.Chat), text).
		WithParseMode(telego.ModeHTML).
		WithLinkPreviewOptions(&telego.LinkPreviewOptions{IsDisabled: true})
	if markup != nil {
		msg = msg.WithReplyMarkup(markup)
	}
	if _, err := r.API.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("ошибка отправки сообщения (chat_id=%d): %w", r.Chat, err)
	}
	return nil
}

// EditableMessage заменяет текст сообщения, на кнопку которого нажали.
type EditableMessage struct {
	API       Sender
	Chat      int64
	MessageID int
}

func (r EditableMessage) ChatID() int64 { return r.Chat }

func (r EditableMessage) Respond(ctx context.Context, text string, markup *telego.InlineKeyboardMarkup) error {
	_, err := r.API.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:             tu.ID(r.Chat),
		MessageID:          r.MessageID,
		Text:               text,
		ParseMode:          telego.ModeHTML,
		ReplyMarkup:        markup,
		LinkPreviewOptions: &telego.LinkPreviewOptions{IsDisabled: true},
	})
	if err != nil && !IsNotModified(err) {
		return fmt.Errorf("ошибка редактирования сообщения (chat_id=%d): %w", r.Chat, err)
	}
	return nil
}

// ForCallback — ответ на нажатие кнопки. Если исходное сообщение
// недоступно, отвечаем новым сообщением в тот же чат пользователя.
func ForCallback(api Sender, query *telego.CallbackQuery) Responder {
	if query.Message != nil {
		return EditableMessage{
			API:       api,
			Chat:      query.Message.GetChat().ID,
			MessageID: query.Message.GetMessageID(),
		}
	}
	return NewMessage{API: api, Chat: query.From.ID}
}

// IsNotModified — Telegram отказался править сообщение, потому что текст
// и кнопки не изменились.
func IsNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// Answer закрывает «часики» на кнопке. Ошибку можно игнорировать:
// callback мог устареть.
func Answer(ctx context.Context, api Sender, query *telego.CallbackQuery, text string) {
	params := tu.CallbackQuery(query.ID)
	if text != "" {
		params = params.WithText(text)
	}
	_ = api.AnswerCallbackQuery(ctx, params)
}

// SplitText режет длинный текст на части не длиннее limit рун,
// по возможности по границе строк.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	var parts []string
	var cur []rune
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) > limit && len(cur) > 0 {
			parts = append(parts, string(cur))
			cur = nil
		}
		for len(r) > limit {
			parts = append(parts, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	if len(cur) > 0 || len(parts) == 0 {
		parts = append(parts, string(cur))
	}
	return parts
}
