// Package admin — repository.go работает с таблицей admin_actions.
package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с журналом действий операторов.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// LogAction записывает действие оператора.
func (r *Repository) LogAction(ctx context.Context, e AuditEntry) error {
	query := `
		INSERT INTO admin_actions (admin_id, action, target_id, details)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, e.AdminID, string(e.Action), e.TargetID, e.Details); err != nil {
		return fmt.Errorf("ошибка записи в журнал: %w", err)
	}
	return nil
}

// Recent возвращает последние limit записей журнала, новые первыми.
func (r *Repository) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	query := `
		SELECT id, admin_id, action, target_id, details, created_at
		FROM admin_actions
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var action string
		if err := rows.Scan(&e.ID, &e.AdminID, &action, &e.TargetID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	return out, nil
}
