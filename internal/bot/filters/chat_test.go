package filters

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

func TestChatFilter(t *testing.T) {
	f := NewChatFilter(-100500)
	from := &telego.User{ID: 7}

	assert.True(t, f.CheckAdmin(&telego.Message{From: from, Chat: telego.Chat{ID: -100500, Type: telego.ChatTypeSupergroup}}))
	assert.False(t, f.CheckAdmin(&telego.Message{From: from, Chat: telego.Chat{ID: 7, Type: telego.ChatTypePrivate}}))
	assert.False(t, f.CheckAdmin(&telego.Message{Chat: telego.Chat{ID: -100500}}), "без отправителя")
	assert.False(t, f.CheckAdmin(nil))

	assert.False(t, NewChatFilter(0).IsAdminGroup(0))
}

func TestCheckPrivate(t *testing.T) {
	from := &telego.User{ID: 7}
	assert.True(t, CheckPrivate(&telego.Message{From: from, Chat: telego.Chat{ID: 7, Type: telego.ChatTypePrivate}}))
	assert.False(t, CheckPrivate(&telego.Message{From: from, Chat: telego.Chat{ID: -1, Type: telego.ChatTypeGroup}}))
}
