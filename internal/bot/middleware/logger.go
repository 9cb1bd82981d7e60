// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// LogMessage логирует входящее сообщение.
// Записывает: бот, user_id, chat_id, username, текст (первые 50 символов).
func LogMessage(botName string, message *telego.Message) {
	if message == nil {
		return
	}

	fields := log.Fields{
		"bot":     botName,
		"chat_id": message.Chat.ID,
		"text":    truncate(message.Text, 50),
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.Username
	}
	if message.Location != nil {
		fields["location"] = true
	}
	log.WithFields(fields).Debug("Входящее сообщение")
}

// LogCallback логирует нажатие inline-кнопки.
func LogCallback(botName string, query *telego.CallbackQuery) {
	if query == nil {
		return
	}
	log.WithFields(log.Fields{
		"bot":      botName,
		"user_id":  query.From.ID,
		"username": query.From.Username,
		"data":     query.Data,
	}).Debug("Callback")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
