// Package rating — repository.go выполняет операции с таблицей orders
// (история оценок). Таблица только дописывается.
package rating

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет методы для работы с таблицей orders.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий оценок.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert добавляет оценку. created_at ставит база.
func (r *Repository) Insert(ctx context.Context, e *Evaluation) error {
	query := `
		INSERT INTO orders (driver_id, admin_id, route_from, route_to, is_good)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, e.DriverID, e.AdminID, e.RouteFrom, e.RouteTo, e.Passed).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения оценки: %w", err)
	}
	return nil
}

// ListByDriver возвращает всю историю оценок водителя.
func (r *Repository) ListByDriver(ctx context.Context, driverID int64) ([]Evaluation, error) {
	query := `
		SELECT id, driver_id, admin_id, route_from, route_to, is_good, created_at
		FROM orders
		WHERE driver_id = $1
	`
	rows, err := r.db.Query(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения оценок: %w", err)
	}
	defer rows.Close()

	var history []Evaluation
	for rows.Next() {
		var e Evaluation
		if err := rows.Scan(&e.ID, &e.DriverID, &e.AdminID, &e.RouteFrom, &e.RouteTo, &e.Passed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения оценок: %w", err)
	}
	return history, nil
}
