// Package admin — service.go содержит операции операторов и state-машину
// для подтверждения удаления.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/teamhub-bot/internal/features/discovery"
	"serotonyl.ru/teamhub-bot/internal/features/drivers"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
)

// Directory — справочник водителей. Реализуется *drivers.Service.
type Directory interface {
	Get(ctx context.Context, userID int64) (*drivers.Driver, error)
	ListActive(ctx context.Context) ([]*drivers.Driver, error)
	Approve(ctx context.Context, userID int64) error
	Suspend(ctx context.Context, userID int64) error
}

// Rater записывает оценку и пересчитывает рейтинг. Реализуется *rating.Service.
type Rater interface {
	Record(ctx context.Context, adminID, driverID int64, passed bool, routeFrom, routeTo string) (rating.Score, error)
}

// Finder ищет водителей. Реализуется *discovery.Engine.
type Finder interface {
	Discover(ctx context.Context, q discovery.Query, active []*drivers.Driver) discovery.Result
}

// AuditLog — журнал действий. Реализуется *Repository.
type AuditLog interface {
	LogAction(ctx context.Context, e AuditEntry) error
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Service управляет операциями операторов.
type Service struct {
	directory Directory
	rater     Rater
	finder    Finder
	audit     AuditLog

	states   map[int64]*AdminState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
	now      func() time.Time
}

// NewService создаёт сервис операторов.
func NewService(directory Directory, rater Rater, finder Finder, audit AuditLog) *Service {
	return &Service{
		directory: directory,
		rater:     rater,
		finder:    finder,
		audit:     audit,
		states:    make(map[int64]*AdminState),
		now:       time.Now,
	}
}

// Driver возвращает водителя по ID.
func (s *Service) Driver(ctx context.Context, userID int64) (*drivers.Driver, error) {
	return s.directory.Get(ctx, userID)
}

// ActiveDrivers — активные водители по имени.
func (s *Service) ActiveDrivers(ctx context.Context) ([]*drivers.Driver, error) {
	return s.directory.ListActive(ctx)
}

// Find ищет водителей по штату и/или городу среди активных на момент вызова.
func (s *Service) Find(ctx context.Context, q discovery.Query) (discovery.Result, error) {
	active, err := s.directory.ListActive(ctx)
	if err != nil {
		return discovery.Result{}, err
	}
	return s.finder.Discover(ctx, q, active), nil
}

// Rate записывает оценку водителю и возвращает новый рейтинг.
func (s *Service) Rate(ctx context.Context, adminID, driverID int64, passed bool, routeFrom, routeTo string) (rating.Score, error) {
	if _, err := s.directory.Get(ctx, driverID); err != nil {
		return rating.Score{}, err
	}
	score, err := s.rater.Record(ctx, adminID, driverID, passed, routeFrom, routeTo)
	if err != nil {
		return rating.Score{}, err
	}

	verdict := "bad"
	if passed {
		verdict = "good"
	}
	s.logAction(ctx, AuditEntry{
		AdminID:  adminID,
		Action:   ActionRate,
		TargetID: driverID,
		Details:  fmt.Sprintf("%s %s→%s score=%.4f", verdict, routeFrom, routeTo, score.Value),
	})
	return score, nil
}

// Approve одобряет водителя.
func (s *Service) Approve(ctx context.Context, adminID, driverID int64) error {
	if err := s.directory.Approve(ctx, driverID); err != nil {
		return err
	}
	s.logAction(ctx, AuditEntry{AdminID: adminID, Action: ActionApprove, TargetID: driverID})
	return nil
}

// Remove убирает водителя из справочника (status=suspended).
func (s *Service) Remove(ctx context.Context, adminID, driverID int64) error {
	if err := s.directory.Suspend(ctx, driverID); err != nil {
		return err
	}
	s.logAction(ctx, AuditEntry{AdminID: adminID, Action: ActionSuspend, TargetID: driverID})
	return nil
}

// RecentActions — последние записи журнала.
func (s *Service) RecentActions(ctx context.Context, limit int) ([]AuditEntry, error) {
	return s.audit.Recent(ctx, limit)
}

// Журнал вспомогательный: ошибка записи не отменяет действие.
func (s *Service) logAction(ctx context.Context, e AuditEntry) {
	if err := s.audit.LogAction(ctx, e); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"admin_id":  e.AdminID,
			"action":    e.Action,
			"target_id": e.TargetID,
		}).Warn("Не удалось записать действие в журнал")
	}
}

// GetState возвращает текущее состояние диалога.
func (s *Service) GetState(userID int64) *AdminState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	// Проверяем истечение
	if s.now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с таймаутом stateTTL.
func (s *Service) SetState(userID int64, stateName string, targetID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &AdminState{
		State:     stateName,
		TargetID:  targetID,
		ExpiresAt: s.now().Add(stateTTL),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}
