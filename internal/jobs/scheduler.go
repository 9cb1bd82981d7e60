// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает проверку неактивных водителей: тем, кто давно
// не обновлял локацию, уходит напоминание.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/teamhub-bot/internal/features/drivers"
)

// InactiveLister отдаёт активных водителей без обновлений дольше inactiveFor.
type InactiveLister interface {
	ListInactive(ctx context.Context, now time.Time, inactiveFor time.Duration) ([]*drivers.Driver, error)
}

// Reminder отправляет водителю напоминание на его языке.
type Reminder interface {
	RemindLocation(ctx context.Context, userID int64, language string, hours int) error
}

// Сколько напоминаний отправляем одновременно.
const sendConcurrency = 8

// Config — параметры планировщика.
type Config struct {
	Spec          string // cron-выражение, например "*/30 * * * *"
	InactiveHours int
	Timezone      string
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	lister   InactiveLister
	reminder Reminder
	now      func() time.Time
}

// NewScheduler создаёт планировщик в часовом поясе cfg.Timezone.
func NewScheduler(cfg Config, lister InactiveLister, reminder Reminder) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.WithError(err).WithField("tz", cfg.Timezone).Warn("Не удалось загрузить часовой пояс, используем UTC")
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		cfg:      cfg,
		lister:   lister,
		reminder: reminder,
		now:      time.Now,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		log.Debug("[CRON] Проверка неактивных водителей")
		if _, err := s.SweepInactive(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка проверки неактивных водителей")
		}
	})
	if err != nil {
		return fmt.Errorf("некорректное расписание %q: %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"schedule":       s.cfg.Spec,
		"inactive_hours": s.cfg.InactiveHours,
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт текущую задачу.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// SweepInactive отправляет напоминания всем неактивным водителям.
// Ошибка отправки одному водителю не мешает остальным; повтор — на
// следующем запуске. Возвращает число отправленных напоминаний.
func (s *Scheduler) SweepInactive(ctx context.Context) (int, error) {
	started := s.now()
	inactiveFor := time.Duration(s.cfg.InactiveHours) * time.Hour

	list, err := s.lister.ListInactive(ctx, started, inactiveFor)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения неактивных водителей: %w", err)
	}

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(sendConcurrency)
	for _, d := range list {
		g.Go(func() error {
			if err := s.reminder.RemindLocation(ctx, d.UserID, d.Language, s.cfg.InactiveHours); err != nil {
				log.WithError(err).WithField("user_id", d.UserID).Warn("Не удалось отправить напоминание")
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	if n := sent.Load(); n > 0 {
		log.WithFields(log.Fields{
			"sent":     n,
			"inactive": len(list),
			"duration": s.now().Sub(started).String(),
		}).Info("Напоминания о локации отправлены")
	}
	return int(sent.Load()), nil
}
