package discovery

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/teamhub-bot/internal/features/drivers"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
	"serotonyl.ru/teamhub-bot/internal/geo"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeResolver struct {
	place geo.Place
	ok    bool
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeResolver) ResolveText(ctx context.Context, _ string) (geo.Place, bool) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return geo.Place{}, false
		}
	}
	return f.place, f.ok
}

func (f *fakeResolver) ResolveCoordinates(context.Context, float64, float64) (geo.Place, bool) {
	return geo.Place{}, false
}

// chicago — точка запроса во всех сценариях с расстоянием.
var chicago = geo.Place{State: "Illinois", City: "Chicago", Latitude: 41.8781, Longitude: -87.6298}

func withCoords(id int64, lat, lon float64) *drivers.Driver {
	return &drivers.Driver{
		UserID:       id,
		FullName:     fmt.Sprintf("driver-%d", id),
		Status:       drivers.StatusActive,
		Rating:       rating.NeutralScore(),
		LastActiveAt: testNow.Add(-30 * time.Minute),
		Location:     &drivers.Location{State: "Illinois", City: "Somewhere", Latitude: &lat, Longitude: &lon},
	}
}

func named(id int64, state, city string) *drivers.Driver {
	return &drivers.Driver{
		UserID:       id,
		FullName:     fmt.Sprintf("driver-%d", id),
		Status:       drivers.StatusActive,
		Rating:       rating.Score{Value: 0.9},
		LastActiveAt: testNow.Add(-3 * time.Hour),
		Location:     &drivers.Location{State: state, City: city},
	}
}

func newTestEngine(r geo.Resolver, timeout time.Duration) *Engine {
	e := NewEngine(r, timeout, nil)
	e.now = func() time.Time { return testNow }
	return e
}

func TestQuery_Phrase(t *testing.T) {
	assert.Equal(t, "Joliet, IL", Query{State: "IL", City: "Joliet"}.Phrase())
	assert.Equal(t, "IL", Query{State: "IL"}.Phrase())
	assert.Equal(t, "Joliet", Query{City: " Joliet "}.Phrase())
	assert.Equal(t, "", Query{}.Phrase())
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, Query{State: "NY", City: "New York City"}, ParseArgs([]string{"ny", "New", "York", "City"}))
	assert.Equal(t, Query{State: "TX"}, ParseArgs([]string{"tx"}))
	assert.Equal(t, Query{}, ParseArgs(nil))
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	r := &fakeResolver{place: chicago, ok: true}
	res := newTestEngine(r, time.Second).Discover(context.Background(), Query{State: "IL"}, nil)

	assert.Equal(t, OutcomeEmptyDirectory, res.Outcome)
	assert.Empty(t, res.Entries)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestDiscover_ProximityTopTen(t *testing.T) {
	var active []*drivers.Driver
	// 9 водителей с координатами, всё дальше на север
	for i := 0; i < 9; i++ {
		active = append(active, withCoords(int64(100+i), 41.9+float64(8-i)*0.1, -87.63))
	}
	// 3 без координат, вперемешку
	active = append(active[:3], append([]*drivers.Driver{named(1, "Illinois", "Aurora")}, active[3:]...)...)
	active = append(active, named(2, "Ohio", "Akron"), &drivers.Driver{UserID: 3, Status: drivers.StatusActive})
	require.Len(t, active, 12)

	res := newTestEngine(&fakeResolver{place: chicago, ok: true}, time.Second).
		Discover(context.Background(), Query{State: "IL", City: "Chicago"}, active)

	assert.Equal(t, ModeProximity, res.Mode)
	assert.Equal(t, OutcomeRanked, res.Outcome)
	assert.Equal(t, "Chicago, IL", res.Phrase)
	require.Len(t, res.Entries, MaxResults)

	for i := 1; i < len(res.Entries); i++ {
		assert.LessOrEqual(t, res.Entries[i-1].Distance, res.Entries[i].Distance)
	}
	for i := 0; i < 9; i++ {
		assert.True(t, res.Entries[i].HasDistance())
	}
	// первый из водителей без координат в порядке справочника
	assert.Equal(t, int64(1), res.Entries[9].Driver.UserID)
	assert.True(t, math.IsInf(res.Entries[9].Distance, 1))
	assert.False(t, res.Entries[9].HasDistance())

	// ближайший — последний добавленный южный
	assert.Equal(t, int64(108), res.Entries[0].Driver.UserID)
	assert.Equal(t, 4.0, res.Entries[0].Stars)
	assert.Equal(t, "30m ago", res.Entries[0].Seen)
}

func TestDiscover_ProximityNoCoordinates(t *testing.T) {
	var active []*drivers.Driver
	for i := 0; i < 12; i++ {
		d := named(int64(i+1), "Ohio", "Akron")
		if i%2 == 0 {
			d.Location = nil
		}
		active = append(active, d)
	}

	res := newTestEngine(&fakeResolver{place: chicago, ok: true}, time.Second).
		Discover(context.Background(), Query{City: "Chicago"}, active)

	assert.Equal(t, OutcomeRanked, res.Outcome)
	require.Len(t, res.Entries, MaxResults)
	for i, e := range res.Entries {
		assert.True(t, math.IsInf(e.Distance, 1))
		// стабильная сортировка сохраняет порядок справочника
		assert.Equal(t, int64(i+1), e.Driver.UserID)
	}
}

func TestDiscover_TextFallback(t *testing.T) {
	active := []*drivers.Driver{
		named(1, "Ohio", "Columbus"),
		named(2, "Texas", "Austin"),
		named(3, "Georgia", "COLUMBUS"),
		{UserID: 4, Status: drivers.StatusActive},
		named(5, "Ohio", "North Columbus Heights"),
	}

	res := newTestEngine(&fakeResolver{ok: false}, time.Second).
		Discover(context.Background(), Query{City: "columbus"}, active)

	assert.Equal(t, ModeText, res.Mode)
	assert.Equal(t, OutcomeMatched, res.Outcome)
	ids := make([]int64, 0, len(res.Entries))
	for _, e := range res.Entries {
		ids = append(ids, e.Driver.UserID)
		assert.False(t, e.HasDistance())
		assert.Equal(t, "3h ago", e.Seen)
	}
	assert.Equal(t, []int64{1, 3, 5}, ids)
}

func TestDiscover_TextStateOrCity(t *testing.T) {
	active := []*drivers.Driver{
		named(1, "Illinois", "Chicago"),
		named(2, "Texas", "Joliet"),
		named(3, "Ohio", "Akron"),
		named(4, "North Carolina", "Durham"),
	}
	e := newTestEngine(&fakeResolver{ok: false}, time.Second)

	res := e.Discover(context.Background(), Query{State: "IL", City: "Joliet"}, active)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, int64(1), res.Entries[0].Driver.UserID)
	assert.Equal(t, int64(2), res.Entries[1].Driver.UserID)

	// код штата сопоставляется с полным названием
	res = e.Discover(context.Background(), Query{State: "NC"}, active)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(4), res.Entries[0].Driver.UserID)
}

func TestDiscover_TextSingleWordMatchesCityOrState(t *testing.T) {
	active := []*drivers.Driver{
		named(1, "Illinois", "Chicago"),
		named(2, "New York", "Buffalo"),
		named(3, "Texas", "Austin"),
	}
	e := newTestEngine(&fakeResolver{ok: false}, time.Second)

	// одно слово из /find попадает в State, но ищется и в городе
	res := e.Discover(context.Background(), ParseArgs([]string{"chicago"}), active)
	assert.Equal(t, ModeText, res.Mode)
	assert.Equal(t, OutcomeMatched, res.Outcome)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(1), res.Entries[0].Driver.UserID)

	// термин города ищется и в названии штата
	res = e.Discover(context.Background(), Query{City: "new"}, active)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(2), res.Entries[0].Driver.UserID)
}

func TestDiscover_NotFound(t *testing.T) {
	active := []*drivers.Driver{named(1, "Ohio", "Akron")}

	res := newTestEngine(&fakeResolver{ok: false}, time.Second).
		Discover(context.Background(), Query{City: "Atlantis"}, active)

	assert.Equal(t, ModeText, res.Mode)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Empty(t, res.Entries)
}

func TestDiscover_EmptyQuery(t *testing.T) {
	r := &fakeResolver{place: chicago, ok: true}
	res := newTestEngine(r, time.Second).Discover(context.Background(), Query{}, []*drivers.Driver{named(1, "Ohio", "Akron")})

	assert.Equal(t, ModeText, res.Mode)
	assert.Equal(t, OutcomeMatched, res.Outcome)
	assert.Empty(t, res.Entries)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestDiscover_GeocoderTimeout(t *testing.T) {
	active := []*drivers.Driver{named(1, "Illinois", "Chicago")}
	r := &fakeResolver{place: chicago, ok: true, delay: 2 * time.Second}

	start := time.Now()
	res := newTestEngine(r, 50*time.Millisecond).Discover(context.Background(), Query{City: "Chicago"}, active)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, ModeText, res.Mode)
	require.Len(t, res.Entries, 1)
}

func TestDistanceMiles(t *testing.T) {
	// Чикаго — Нью-Йорк ≈ 711 миль
	d := DistanceMiles(41.8781, -87.6298, 40.7128, -74.0060)
	assert.InDelta(t, 711, d, 5)

	assert.Equal(t, 0.0, DistanceMiles(41.8781, -87.6298, 41.8781, -87.6298))

	points := [][4]float64{
		{0, 0, 10, 10},
		{-33.86, 151.2, 51.5, -0.12},
		{89.9, 0, -89.9, 180},
	}
	for _, p := range points {
		assert.Equal(t, DistanceMiles(p[0], p[1], p[2], p[3]), DistanceMiles(p[2], p[3], p[0], p[1]))
	}
}
