// Package rating — service.go связывает историю оценок, алгоритм пересчёта
// и запись рейтинга в справочник водителей.
package rating

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/metrics"
)

// History — источник истории оценок (таблица orders).
type History interface {
	Insert(ctx context.Context, e *Evaluation) error
	ListByDriver(ctx context.Context, driverID int64) ([]Evaluation, error)
}

// ScoreWriter — запись рейтинга в справочник, только замена целиком.
type ScoreWriter interface {
	UpdateScore(ctx context.Context, driverID int64, score Score) error
}

// Service управляет оценками и пересчётом рейтинга.
type Service struct {
	history History
	scores  ScoreWriter
	metrics *metrics.Manager
	locks   *subjectLocks
	now     func() time.Time
}

// NewService создаёт сервис рейтинга.
func NewService(history History, scores ScoreWriter, m *metrics.Manager) *Service {
	return &Service{
		history: history,
		scores:  scores,
		metrics: m,
		locks:   newSubjectLocks(),
		now:     time.Now,
	}
}

// Record сохраняет оценку оператора и сразу пересчитывает рейтинг водителя.
func (s *Service) Record(ctx context.Context, adminID, driverID int64, passed bool, routeFrom, routeTo string) (Score, error) {
	if driverID == 0 {
		return Score{}, fmt.Errorf("нет водителя: %w", common.ErrInvalidEvaluation)
	}

	e := &Evaluation{
		DriverID:  driverID,
		AdminID:   adminID,
		RouteFrom: routeFrom,
		RouteTo:   routeTo,
		Passed:    passed,
	}
	if err := s.history.Insert(ctx, e); err != nil {
		return Score{}, err
	}

	log.WithFields(log.Fields{
		"driver_id": driverID,
		"admin_id":  adminID,
		"passed":    passed,
	}).Info("Оценка сохранена")

	return s.Recalculate(ctx, driverID)
}

// Recalculate перечитывает всю историю водителя и заменяет рейтинг.
// Пересчёты одного водителя сериализуются, разных — идут параллельно.
// При ошибке рейтинг в базе не трогается.
func (s *Service) Recalculate(ctx context.Context, driverID int64) (Score, error) {
	unlock := s.locks.Lock(driverID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return Score{}, err
	}

	history, err := s.history.ListByDriver(ctx, driverID)
	if err != nil {
		return Score{}, err
	}

	score, err := Recompute(history, s.now())
	if err != nil {
		s.metrics.IncScoringRejected()
		return Score{}, fmt.Errorf("пересчёт рейтинга водителя %d: %w", driverID, err)
	}

	if err := s.scores.UpdateScore(ctx, driverID, score); err != nil {
		return Score{}, err
	}
	s.metrics.IncScoringRecomputed()

	log.WithFields(log.Fields{
		"driver_id":  driverID,
		"orders":     len(history),
		"score":      score.Value,
		"confidence": score.Confidence,
	}).Debug("Рейтинг пересчитан")

	return score, nil
}
