package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"serotonyl.ru/teamhub-bot/internal/db/postgres"
	"serotonyl.ru/teamhub-bot/internal/listener"
)

// userNotifier реагирует на событие по ID пользователя.
type userNotifier func(ctx context.Context, userID int64) error

// notificationRouter раздаёт уведомления PostgreSQL обработчикам.
// Полезная нагрузка обоих каналов — user_id.
func notificationRouter(onNewDriver, onApproved userNotifier) listener.Handler {
	return func(ctx context.Context, channel, payload string) error {
		var notify userNotifier
		switch channel {
		case postgres.ChannelNewDriver:
			notify = onNewDriver
		case postgres.ChannelUserApproved:
			notify = onApproved
		default:
			return fmt.Errorf("неизвестный канал %q", channel)
		}

		userID, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
		if err != nil {
			return fmt.Errorf("некорректный user_id в уведомлении: %w", err)
		}
		return notify(ctx, userID)
	}
}
