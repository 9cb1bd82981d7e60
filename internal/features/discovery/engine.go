package discovery

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/features/drivers"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
	"serotonyl.ru/teamhub-bot/internal/geo"
	"serotonyl.ru/teamhub-bot/internal/metrics"
)

// Engine — поиск водителей: сначала по расстоянию, если геокодер
// распознал место, иначе по совпадению названий.
type Engine struct {
	resolver geo.Resolver
	timeout  time.Duration
	metrics  *metrics.Manager
	now      func() time.Time
}

// NewEngine создаёт движок поиска. timeout ограничивает вызов геокодера;
// по таймауту поиск уходит в текстовый режим.
func NewEngine(resolver geo.Resolver, timeout time.Duration, m *metrics.Manager) *Engine {
	return &Engine{
		resolver: resolver,
		timeout:  timeout,
		metrics:  m,
		now:      time.Now,
	}
}

// Discover ранжирует снимок активных водителей по запросу q.
// Справочник повторно не читается: работаем только с active.
//
// Алгоритм:
//  1. Нет водителей — сразу OutcomeEmptyDirectory, геокодер не вызываем
//  2. Фраза "город, штат" → геокодер (с таймаутом)
//  3. Распознано → расстояние до каждого, без координат = +Inf, топ-10
//  4. Не распознано → любой термин запроса подстрокой в "город штат", в порядке справочника
func (e *Engine) Discover(ctx context.Context, q Query, active []*drivers.Driver) Result {
	phrase := q.Phrase()

	if len(active) == 0 {
		e.metrics.ObserveDiscovery(string(ModeText), string(OutcomeEmptyDirectory))
		return Result{Mode: ModeText, Outcome: OutcomeEmptyDirectory, Phrase: phrase}
	}

	if phrase != "" {
		if place, ok := e.resolve(ctx, phrase); ok {
			res := e.rankByDistance(phrase, place, active)
			e.metrics.ObserveDiscovery(string(res.Mode), string(res.Outcome))
			return res
		}
		e.metrics.IncGeocodeUnresolved()
	}

	res := e.matchByName(q, phrase, active)
	e.metrics.ObserveDiscovery(string(res.Mode), string(res.Outcome))
	return res
}

// resolve вызывает геокодер с собственным таймаутом. Если геокодер
// не уложился — считаем место нераспознанным и не ждём его дальше.
func (e *Engine) resolve(ctx context.Context, phrase string) (geo.Place, bool) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type answer struct {
		place geo.Place
		ok    bool
	}
	done := make(chan answer, 1)
	go func() {
		p, ok := e.resolver.ResolveText(ctx, phrase)
		done <- answer{p, ok}
	}()

	select {
	case a := <-done:
		return a.place, a.ok
	case <-ctx.Done():
		log.WithField("query", phrase).Warn("Геокодер не ответил вовремя, переходим к текстовому поиску")
		return geo.Place{}, false
	}
}

func (e *Engine) rankByDistance(phrase string, place geo.Place, active []*drivers.Driver) Result {
	now := e.now()
	entries := make([]Entry, 0, len(active))
	for _, d := range active {
		dist := math.Inf(1)
		if d.Location.HasCoordinates() {
			dist = DistanceMiles(place.Latitude, place.Longitude, *d.Location.Latitude, *d.Location.Longitude)
		}
		entries = append(entries, newEntry(d, dist, now))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Distance < entries[j].Distance
	})
	if len(entries) > MaxResults {
		entries = entries[:MaxResults]
	}

	return Result{Mode: ModeProximity, Outcome: OutcomeRanked, Phrase: phrase, Entries: entries}
}

// matchByName ищет каждый термин запроса (штат в обоих написаниях и город)
// в строке "город штат" водителя. Одно слово из /find попадает в State,
// поэтому "/find chicago" должен находить водителя из Chicago, Illinois.
func (e *Engine) matchByName(q Query, phrase string, active []*drivers.Driver) Result {
	now := e.now()
	needles := geo.StateAliases(q.State)
	if city := strings.TrimSpace(q.City); city != "" {
		needles = append(needles, city)
	}

	var entries []Entry
	for _, d := range active {
		if d.Location == nil {
			continue
		}
		if matchesAny(d.Location.City+" "+d.Location.State, needles) {
			entries = append(entries, newEntry(d, math.Inf(1), now))
		}
	}

	outcome := OutcomeMatched
	if len(entries) == 0 && phrase != "" {
		outcome = OutcomeNotFound
	}
	return Result{Mode: ModeText, Outcome: outcome, Phrase: phrase, Entries: entries}
}

func newEntry(d *drivers.Driver, dist float64, now time.Time) Entry {
	return Entry{
		Driver:   d,
		Distance: dist,
		Stars:    rating.Stars(d.Rating.Value),
		Score:    d.Rating.Value,
		Seen:     common.FormatSeen(now, d.LastActiveAt),
	}
}

func matchesAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if containsFold(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// containsFold: needle уже в нижнем регистре.
func containsFold(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), needle)
}
