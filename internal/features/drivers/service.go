// Package drivers — service.go содержит бизнес-логику справочника:
// регистрация, одобрение, удаление и обновление локации.
package drivers

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/geo"
)

// Store — то, что сервису нужно от хранилища. Реализуется *Repository.
type Store interface {
	Get(ctx context.Context, userID int64) (*Driver, error)
	ListActive(ctx context.Context) ([]*Driver, error)
	ListInactive(ctx context.Context, since time.Time) ([]*Driver, error)
	Register(ctx context.Context, userID int64, fullName, phone, language string) error
	SetStatus(ctx context.Context, userID int64, status Status) error
	SetLanguage(ctx context.Context, userID int64, language string) error
	SaveLocation(ctx context.Context, userID int64, loc Location) error
}

// Названия для live-локации, которую геокодер не смог распознать.
const (
	unknownGPSState = "GPS"
	unknownGPSCity  = "Location"
)

// Service управляет справочником водителей.
type Service struct {
	store    Store
	resolver geo.Resolver
}

// NewService создаёт сервис водителей.
func NewService(store Store, resolver geo.Resolver) *Service {
	return &Service{store: store, resolver: resolver}
}

// Get возвращает водителя.
func (s *Service) Get(ctx context.Context, userID int64) (*Driver, error) {
	return s.store.Get(ctx, userID)
}

// ListActive — снимок активных водителей на момент вызова.
func (s *Service) ListActive(ctx context.Context) ([]*Driver, error) {
	return s.store.ListActive(ctx)
}

// ListInactive — активные водители без обновлений дольше inactiveFor.
func (s *Service) ListInactive(ctx context.Context, now time.Time, inactiveFor time.Duration) ([]*Driver, error) {
	return s.store.ListInactive(ctx, now.Add(-inactiveFor))
}

// Register регистрирует (или обновляет) водителя в статусе pending.
func (s *Service) Register(ctx context.Context, userID int64, fullName, phone, language string) error {
	if err := s.store.Register(ctx, userID, fullName, phone, language); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "name": fullName}).Info("Водитель зарегистрирован")
	return nil
}

// Approve переводит водителя в active. Уведомление водителю уходит
// через триггер user_approved и DB listener.
func (s *Service) Approve(ctx context.Context, userID int64) error {
	if err := s.store.SetStatus(ctx, userID, StatusActive); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Водитель одобрен")
	return nil
}

// Suspend убирает водителя из поиска. История оценок остаётся.
func (s *Service) Suspend(ctx context.Context, userID int64) error {
	if err := s.store.SetStatus(ctx, userID, StatusSuspended); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Водитель удалён из справочника")
	return nil
}

// SetLanguage меняет язык интерфейса водителя.
func (s *Service) SetLanguage(ctx context.Context, userID int64, language string) error {
	return s.store.SetLanguage(ctx, userID, language)
}

// SaveLiveLocation сохраняет GPS-позицию. Названия берутся из обратного
// геокодирования; если оно не удалось — "GPS, Location".
func (s *Service) SaveLiveLocation(ctx context.Context, userID int64, lat, lon float64) (Location, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Location{}, fmt.Errorf("lat=%f lon=%f: %w", lat, lon, common.ErrInvalidLocation)
	}

	loc := Location{State: unknownGPSState, City: unknownGPSCity, Latitude: &lat, Longitude: &lon}
	if place, ok := s.resolver.ResolveCoordinates(ctx, lat, lon); ok {
		if place.State != "" {
			loc.State = place.State
		}
		if place.City != "" {
			loc.City = place.City
		}
	}

	if err := s.store.SaveLocation(ctx, userID, loc); err != nil {
		return Location{}, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"state":   loc.State,
		"city":    loc.City,
	}).Debug("Live-локация сохранена")
	return loc, nil
}

// SaveManualLocation сохраняет выбранные вручную штат и город, без координат.
func (s *Service) SaveManualLocation(ctx context.Context, userID int64, state, city string) (Location, error) {
	loc := Location{State: state, City: city}
	if err := s.store.SaveLocation(ctx, userID, loc); err != nil {
		return Location{}, err
	}
	log.WithFields(log.Fields{"user_id": userID, "state": state, "city": city}).Debug("Локация выбрана вручную")
	return loc, nil
}
