// Package filters решает, какие чаты может обслуживать бот.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает админ-команды только из группы операторов.
type ChatFilter struct {
	adminGroupID int64
}

func NewChatFilter(adminGroupID int64) *ChatFilter {
	return &ChatFilter{adminGroupID: adminGroupID}
}

// IsAdminGroup — чат является группой операторов.
func (f *ChatFilter) IsAdminGroup(chatID int64) bool {
	if f.adminGroupID == 0 {
		log.WithField("component", "ChatFilter").Error("adminGroupID is 0 (config bug)")
		return false
	}
	return chatID == f.adminGroupID
}

// AdminGroupID — ID группы операторов.
func (f *ChatFilter) AdminGroupID() int64 {
	return f.adminGroupID
}

// CheckAdmin проверяет сообщение для админ-бота.
func (f *ChatFilter) CheckAdmin(message *telego.Message) bool {
	if message == nil || message.From == nil {
		return false
	}
	if f.IsAdminGroup(message.Chat.ID) {
		return true
	}
	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	}).Info("deny: not admin group")
	return false
}

// CheckPrivate пропускает только личные чаты: бот водителей в группах молчит.
func CheckPrivate(message *telego.Message) bool {
	return message != nil && message.From != nil && message.Chat.Type == telego.ChatTypePrivate
}
