// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с временем (единая разница "сейчас минус момент"),
// округление и форматирование "был в сети".
package common

import (
	"fmt"
	"math"
	"time"
)

// UTC нормализует момент времени. Колонки timestamp без зоны pgx
// отдаёт с локацией UTC, так что "наивное" время и так считается UTC.
func UTC(t time.Time) time.Time {
	return t.UTC()
}

// Since возвращает now - t на нормализованных к UTC моментах.
// Этим же соглашением пользуются и рейтинг (возраст оценки),
// и поиск (когда водитель был в сети).
func Since(now, t time.Time) time.Duration {
	return UTC(now).Sub(UTC(t))
}

// AgeDays возвращает возраст в целых днях (отбрасывая дробную часть).
func AgeDays(now, t time.Time) int {
	return int(Since(now, t) / (24 * time.Hour))
}

// FormatSeen форматирует давность активности:
//   - меньше 60 минут → "15m ago"
//   - иначе → "3h ago"
func FormatSeen(now, t time.Time) string {
	d := Since(now, t)
	if d < 0 {
		d = 0
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	}
	return fmt.Sprintf("%dh ago", int(d/time.Hour))
}

// Round1 округляет до одного знака после запятой.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
