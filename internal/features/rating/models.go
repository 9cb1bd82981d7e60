// Package rating считает репутацию водителя по истории оценок операторов.
// models.go описывает оценку (Evaluation) и производный рейтинг (Score).
package rating

import "time"

// Параметры байесовского сглаживания. Пустая история даёт 15/20 = 0.75,
// то есть 4.0 звезды при отображении 1 + 4*score.
const (
	PriorPass  = 15.0
	PriorTotal = 20.0
)

// Evaluation — одна оценка выполненного заказа (хорошо/плохо).
// Записывается один раз и никогда не меняется.
type Evaluation struct {
	ID        int64     `db:"id"`
	DriverID  int64     `db:"driver_id"`
	AdminID   int64     `db:"admin_id"`
	RouteFrom string    `db:"route_from"`
	RouteTo   string    `db:"route_to"`
	Passed    bool      `db:"is_good"`
	CreatedAt time.Time `db:"created_at"`
}

// Score — рейтинг водителя, всегда выводится из полной истории оценок.
type Score struct {
	Value      float64    `db:"rating_score"`      // 0..1
	Confidence float64    `db:"rating_confidence"` // 0..1, сколько истории за рейтингом
	UpdatedAt  *time.Time `db:"rating_updated_at"` // nil — ещё не пересчитывался
}

// NeutralScore возвращает стартовый рейтинг нового водителя.
func NeutralScore() Score {
	return Score{Value: PriorPass / PriorTotal}
}
