// Package drivers — repository.go выполняет операции с таблицами users и locations.
package drivers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
)

// Repository предоставляет методы для работы со справочником водителей.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий водителей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectDriver = `
	SELECT u.user_id, COALESCE(u.full_name, ''), COALESCE(u.phone, ''), u.status, u.language,
	       u.rating_score, u.rating_confidence, u.rating_updated_at,
	       u.created_at, u.last_active_at,
	       l.state, l.city, l.latitude, l.longitude, l.updated_at
	FROM users u
	LEFT JOIN locations l ON l.user_id = u.user_id
`

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var state, city *string
	var lat, lon *float64
	var locUpdated *time.Time

	err := row.Scan(
		&d.UserID, &d.FullName, &d.Phone, &d.Status, &d.Language,
		&d.Rating.Value, &d.Rating.Confidence, &d.Rating.UpdatedAt,
		&d.CreatedAt, &d.LastActiveAt,
		&state, &city, &lat, &lon, &locUpdated,
	)
	if err != nil {
		return nil, err
	}

	if locUpdated != nil {
		d.Location = &Location{Latitude: lat, Longitude: lon, UpdatedAt: *locUpdated}
		if state != nil {
			d.Location.State = *state
		}
		if city != nil {
			d.Location.City = *city
		}
	}
	return &d, nil
}

// Get возвращает водителя по Telegram ID.
func (r *Repository) Get(ctx context.Context, userID int64) (*Driver, error) {
	d, err := scanDriver(r.db.QueryRow(ctx, selectDriver+` WHERE u.user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user_id=%d: %w", userID, common.ErrDriverNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения водителя (user_id=%d): %w", userID, err)
	}
	return d, nil
}

// ListActive возвращает всех активных водителей вместе с локацией, по имени.
func (r *Repository) ListActive(ctx context.Context) ([]*Driver, error) {
	return r.list(ctx, selectDriver+` WHERE u.status = 'active' ORDER BY u.full_name, u.user_id`)
}

// ListInactive возвращает активных водителей, не обновлявших локацию с момента since.
// Используется для напоминаний.
func (r *Repository) ListInactive(ctx context.Context, since time.Time) ([]*Driver, error) {
	return r.list(ctx, selectDriver+` WHERE u.status = 'active' AND u.last_active_at < $1 ORDER BY u.user_id`, since)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*Driver, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения водителей: %w", err)
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения водителей: %w", err)
	}
	return out, nil
}

// Register создаёт водителя в статусе pending (или обновляет профиль, если уже есть).
// Триггер new_driver срабатывает только на INSERT.
func (r *Repository) Register(ctx context.Context, userID int64, fullName, phone, language string) error {
	query := `
		INSERT INTO users (user_id, full_name, phone, language, status)
		VALUES ($1, $2, $3, $4, 'pending')
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = EXCLUDED.full_name, phone = EXCLUDED.phone, language = EXCLUDED.language
	`
	if _, err := r.db.Exec(ctx, query, userID, fullName, phone, language); err != nil {
		return fmt.Errorf("ошибка регистрации водителя: %w", err)
	}
	return nil
}

// SetStatus меняет статус водителя. Переход в active вызывает триггер user_approved.
func (r *Repository) SetStatus(ctx context.Context, userID int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET status = $2 WHERE user_id = $1`, userID, string(status))
	if err != nil {
		return fmt.Errorf("ошибка смены статуса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_id=%d: %w", userID, common.ErrDriverNotFound)
	}
	return nil
}

// SetLanguage сохраняет язык интерфейса водителя.
func (r *Repository) SetLanguage(ctx context.Context, userID int64, language string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET language = $2 WHERE user_id = $1`, userID, language)
	if err != nil {
		return fmt.Errorf("ошибка смены языка: %w", err)
	}
	return nil
}

// SaveLocation заменяет локацию водителя и обновляет last_active_at — в одной транзакции.
func (r *Repository) SaveLocation(ctx context.Context, userID int64, loc Location) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO locations (user_id, state, city, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET state = EXCLUDED.state, city = EXCLUDED.city,
		    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
		    updated_at = NOW()
	`, userID, loc.State, loc.City, loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("ошибка сохранения локации: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE users SET last_active_at = NOW() WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка обновления активности: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_id=%d: %w", userID, common.ErrDriverNotFound)
	}

	return tx.Commit(ctx)
}

// UpdateScore заменяет рейтинг водителя целиком. Единственная запись,
// которую делает сервис рейтинга.
func (r *Repository) UpdateScore(ctx context.Context, userID int64, score rating.Score) error {
	query := `
		UPDATE users
		SET rating_score = $2, rating_confidence = $3, rating_updated_at = $4
		WHERE user_id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, score.Value, score.Confidence, score.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения рейтинга: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_id=%d: %w", userID, common.ErrDriverNotFound)
	}
	return nil
}
