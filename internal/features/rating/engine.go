package rating

import (
	"fmt"
	"math"
	"time"

	"serotonyl.ru/teamhub-bot/internal/common"
)

// Допустимый рассинхрон часов между приложением и базой:
// created_at ставит Postgres (NOW()), а пересчёт идёт по часам приложения.
const clockSkew = time.Minute

// Веса затухания по возрасту оценки.
const (
	weightFresh  = 1.0 // до 30 дней включительно
	weightRecent = 0.5 // 31–90 дней
	weightOld    = 0.2 // старше 90 дней
)

// Weight возвращает вес оценки возрастом ageDays целых дней.
func Weight(ageDays int) float64 {
	switch {
	case ageDays <= 30:
		return weightFresh
	case ageDays <= 90:
		return weightRecent
	default:
		return weightOld
	}
}

// bucket — счётчики оценок одного весового интервала.
type bucket struct {
	total, passed int
}

// Recompute пересчитывает рейтинг по ПОЛНОЙ истории оценок на момент now.
//
// Алгоритм:
//  1. Возраст каждой оценки в целых днях → вес 1.0 / 0.5 / 0.2
//  2. weighted_total = Σ w, weighted_pass = Σ w по хорошим
//  3. score = (weighted_pass + 15) / (weighted_total + 20)
//  4. confidence = 1 - e^(-n/7), n — количество оценок без весов
//
// Считаем целыми счётчиками по интервалам и умножаем в конце,
// поэтому результат побитово не зависит от порядка истории.
// Оценка без водителя, без времени или из будущего отклоняет весь пересчёт.
func Recompute(history []Evaluation, now time.Time) (Score, error) {
	var fresh, recent, old bucket
	var subject int64

	for i, e := range history {
		if err := validate(e, now); err != nil {
			return Score{}, fmt.Errorf("оценка #%d: %w", i, err)
		}
		if subject == 0 {
			subject = e.DriverID
		} else if e.DriverID != subject {
			return Score{}, fmt.Errorf("оценка #%d относится к водителю %d, ожидался %d: %w",
				i, e.DriverID, subject, common.ErrInvalidEvaluation)
		}

		age := common.AgeDays(now, e.CreatedAt)
		if age < 0 {
			age = 0
		}

		var b *bucket
		switch Weight(age) {
		case weightFresh:
			b = &fresh
		case weightRecent:
			b = &recent
		default:
			b = &old
		}
		b.total++
		if e.Passed {
			b.passed++
		}
	}

	weightedTotal := float64(fresh.total)*weightFresh + float64(recent.total)*weightRecent + float64(old.total)*weightOld
	weightedPass := float64(fresh.passed)*weightFresh + float64(recent.passed)*weightRecent + float64(old.passed)*weightOld

	updatedAt := now.UTC()
	return Score{
		Value:      (weightedPass + PriorPass) / (weightedTotal + PriorTotal),
		Confidence: Confidence(len(history)),
		UpdatedAt:  &updatedAt,
	}, nil
}

// maxConfidence — наибольшее значение меньше 1: при больших n
// 1 - e^(-n/7) во float64 округляется ровно до 1.
var maxConfidence = math.Nextafter(1, 0)

// Confidence — насколько много истории за рейтингом: 1 - e^(-n/7).
// n=3 → ≈0.349, n=15 → ≈0.883, значение всегда меньше 1.
func Confidence(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(1-math.Exp(-float64(n)/7.0), maxConfidence)
}

func validate(e Evaluation, now time.Time) error {
	if e.DriverID == 0 {
		return fmt.Errorf("нет водителя: %w", common.ErrInvalidEvaluation)
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("нет времени оценки: %w", common.ErrInvalidEvaluation)
	}
	if common.Since(now, e.CreatedAt) < -clockSkew {
		return fmt.Errorf("created_at=%s, now=%s: %w",
			e.CreatedAt.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), common.ErrFutureEvaluation)
	}
	return nil
}
