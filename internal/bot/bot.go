// Package bot содержит общий цикл бота: long polling, ограничение
// параллелизма, rate-limit и восстановление после паники.
// Что делать с апдейтом, решает Router конкретного бота.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"serotonyl.ru/teamhub-bot/internal/bot/middleware"
)

// Router обрабатывает апдейты одного бота.
type Router interface {
	HandleMessage(ctx context.Context, msg *telego.Message)
	HandleCallback(ctx context.Context, query *telego.CallbackQuery)
}

// Options — настройки цикла.
type Options struct {
	Name          string // "driver" / "admin", для логов
	MaxInflight   int
	UpdateTimeout int // секунды long polling
	RateRequests  int
	RateWindow    time.Duration
}

// Bot — цикл получения и раздачи апдейтов.
type Bot struct {
	api    *telego.Bot
	name   string
	router Router

	rateLimiter *middleware.RateLimiter
	timeout     int

	// ограничитель параллелизма обработки апдейтов
	inflight *semaphore.Weighted
	wg       sync.WaitGroup
}

// New создаёт бота.
func New(api *telego.Bot, router Router, opts Options) *Bot {
	maxInFlight := opts.MaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		name:        opts.Name,
		router:      router,
		rateLimiter: middleware.NewRateLimiter(opts.RateRequests, opts.RateWindow),
		timeout:     opts.UpdateTimeout,
		inflight:    semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// Start запускает polling и блокируется до отмены ctx.
// Перед возвратом дожидается уже запущенных обработчиков.
func (b *Bot) Start(ctx context.Context) error {
	defer b.rateLimiter.Close()

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.timeout,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return fmt.Errorf("бот %s: не удалось запустить long polling: %w", b.name, err)
	}

	log.WithFields(log.Fields{
		"bot":         b.name,
		"timeout_sec": b.timeout,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			log.WithField("bot", b.name).Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.WithField("bot", b.name).Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			if err := b.inflight.Acquire(ctx, 1); err != nil {
				return nil
			}
			b.wg.Add(1)
			go func(upd telego.Update) {
				defer b.wg.Done()
				defer b.inflight.Release(1)
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(b.name, update.UpdateID)

	switch {
	case update.Message != nil:
		message := update.Message
		middleware.LogMessage(b.name, message)
		if message.From == nil {
			return
		}
		if !b.rateLimiter.Allow(message.From.ID) {
			log.WithFields(log.Fields{"bot": b.name, "user_id": message.From.ID}).Debug("rate limited")
			return
		}
		b.router.HandleMessage(ctx, message)

	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		middleware.LogCallback(b.name, query)
		if !b.rateLimiter.Allow(query.From.ID) {
			log.WithFields(log.Fields{"bot": b.name, "user_id": query.From.ID}).Debug("rate limited")
			return
		}
		b.router.HandleCallback(ctx, query)
	}
}

// CommandParser разбирает команды вида "/find NY Buffalo" и "/rate_42@TeamHubBot".
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс "@username" бота у команды отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if i := strings.IndexByte(command, '@'); i >= 0 {
		command = command[:i]
	}
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
