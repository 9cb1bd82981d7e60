package rating

import (
	"fmt"

	"serotonyl.ru/teamhub-bot/internal/common"
)

// Category — грубая категория рейтинга для списков.
type Category string

const (
	CategoryExcellent Category = "excellent"
	CategoryNormal    Category = "normal"
	CategoryIssues    Category = "issues"
)

// Stars переводит score (0..1) в звёзды 1..5 с одним знаком после запятой.
func Stars(score float64) float64 {
	return common.Round1(1 + 4*score)
}

// FormatStars — "4.0 ⭐️".
func FormatStars(score float64) string {
	return fmt.Sprintf("%.1f ⭐️", Stars(score))
}

// CategoryOf: ≥0.85 — excellent, ≥0.65 — normal, иначе issues.
func CategoryOf(score float64) Category {
	switch {
	case score >= 0.85:
		return CategoryExcellent
	case score >= 0.65:
		return CategoryNormal
	default:
		return CategoryIssues
	}
}

// Badge — категория с цветным маркером для текста сообщений.
func (c Category) Badge() string {
	switch c {
	case CategoryExcellent:
		return "Excellent 🟢"
	case CategoryNormal:
		return "Normal 🟡"
	default:
		return "Issues 🔴"
	}
}
