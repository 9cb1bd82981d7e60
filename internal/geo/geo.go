// Package geo — внешний геокодер (Nominatim) и таблица штатов.
// Любая ошибка сети или разбора ответа превращается в "не найдено":
// наверх геокодер ошибок не отдаёт.
package geo

import "context"

// Place — результат геокодирования.
type Place struct {
	State     string
	City      string
	Latitude  float64
	Longitude float64
}

// Resolver — геокодер: текст → координаты, координаты → названия.
// ok == false означает "не удалось разрешить" (включая таймауты и ошибки сети).
type Resolver interface {
	ResolveText(ctx context.Context, phrase string) (Place, bool)
	ResolveCoordinates(ctx context.Context, lat, lon float64) (Place, bool)
}
