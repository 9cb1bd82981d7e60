// Package drivers управляет справочником водителей и их последней локацией.
// models.go описывает структуры водителя и локации.
package drivers

import (
	"time"

	"serotonyl.ru/teamhub-bot/internal/features/rating"
)

// Status — состояние водителя в справочнике.
type Status string

const (
	StatusPending   Status = "pending"   // зарегистрировался, ждёт одобрения
	StatusActive    Status = "active"    // одобрен, виден в поиске
	StatusSuspended Status = "suspended" // удалён оператором
)

// Driver — запись справочника водителей.
// Только активные водители участвуют в поиске и напоминаниях.
type Driver struct {
	UserID       int64        `db:"user_id"`
	FullName     string       `db:"full_name"`
	Phone        string       `db:"phone"`
	Status       Status       `db:"status"`
	Language     string       `db:"language"`
	Rating       rating.Score // rating_score, rating_confidence, rating_updated_at
	CreatedAt    time.Time    `db:"created_at"`
	LastActiveAt time.Time    `db:"last_active_at"`
	Location     *Location    // nil — водитель ещё ни разу не присылал локацию
}

// IsActive — водитель одобрен и не удалён.
func (d *Driver) IsActive() bool {
	return d.Status == StatusActive
}

// DisplayName — имя для списков.
func (d *Driver) DisplayName() string {
	if d.FullName == "" {
		return "Driver"
	}
	return d.FullName
}

// Location — последняя известная позиция водителя (одна на водителя).
// Координаты есть только у live-локации; при ручном выборе — только названия.
type Location struct {
	State     string    `db:"state"` // штат / область
	City      string    `db:"city"`  // город / населённый пункт
	Latitude  *float64  `db:"latitude"`
	Longitude *float64  `db:"longitude"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasCoordinates — можно ли считать расстояние до водителя.
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// Label — "City, State" либо "Unknown".
func (l *Location) Label() string {
	switch {
	case l == nil:
		return "Unknown"
	case l.City != "" && l.State != "":
		return l.City + ", " + l.State
	case l.City != "":
		return l.City
	case l.State != "":
		return l.State
	default:
		return "Unknown"
	}
}
