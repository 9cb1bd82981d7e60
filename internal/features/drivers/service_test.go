package drivers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/geo"
)

type memStore struct {
	drivers   map[int64]*Driver
	locations map[int64]Location
	since     time.Time
}

func newMemStore() *memStore {
	return &memStore{drivers: make(map[int64]*Driver), locations: make(map[int64]Location)}
}

func (m *memStore) Get(_ context.Context, id int64) (*Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, common.ErrDriverNotFound
	}
	return d, nil
}

func (m *memStore) ListActive(context.Context) ([]*Driver, error) {
	var out []*Driver
	for _, d := range m.drivers {
		if d.IsActive() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) ListInactive(_ context.Context, since time.Time) ([]*Driver, error) {
	m.since = since
	return nil, nil
}

func (m *memStore) Register(_ context.Context, id int64, name, phone, lang string) error {
	m.drivers[id] = &Driver{UserID: id, FullName: name, Phone: phone, Language: lang, Status: StatusPending}
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id int64, st Status) error {
	d, ok := m.drivers[id]
	if !ok {
		return common.ErrDriverNotFound
	}
	d.Status = st
	return nil
}

func (m *memStore) SetLanguage(_ context.Context, id int64, lang string) error {
	m.drivers[id].Language = lang
	return nil
}

func (m *memStore) SaveLocation(_ context.Context, id int64, loc Location) error {
	if _, ok := m.drivers[id]; !ok {
		return common.ErrDriverNotFound
	}
	m.locations[id] = loc
	return nil
}

type stubResolver struct {
	place geo.Place
	ok    bool
}

func (s stubResolver) ResolveText(context.Context, string) (geo.Place, bool) { return s.place, s.ok }
func (s stubResolver) ResolveCoordinates(_ context.Context, lat, lon float64) (geo.Place, bool) {
	p := s.place
	p.Latitude, p.Longitude = lat, lon
	return p, s.ok
}

func TestService_Lifecycle(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, stubResolver{})
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, 1, "John Doe", "+1555", "en"))
	assert.Equal(t, StatusPending, store.drivers[1].Status)

	require.NoError(t, svc.Approve(ctx, 1))
	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, svc.Suspend(ctx, 1))
	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.True(t, errors.Is(svc.Approve(ctx, 99), common.ErrDriverNotFound))
}

func TestService_SaveLiveLocation(t *testing.T) {
	store := newMemStore()
	store.drivers[1] = &Driver{UserID: 1, Status: StatusActive}
	ctx := context.Background()

	svc := NewService(store, stubResolver{place: geo.Place{State: "Illinois", City: "Chicago"}, ok: true})
	loc, err := svc.SaveLiveLocation(ctx, 1, 41.88, -87.63)
	require.NoError(t, err)
	assert.Equal(t, "Illinois", loc.State)
	assert.Equal(t, "Chicago", loc.City)
	require.True(t, loc.HasCoordinates())
	assert.Equal(t, 41.88, *store.locations[1].Latitude)
}

func TestService_SaveLiveLocationUnresolved(t *testing.T) {
	store := newMemStore()
	store.drivers[1] = &Driver{UserID: 1, Status: StatusActive}

	svc := NewService(store, stubResolver{ok: false})
	loc, err := svc.SaveLiveLocation(context.Background(), 1, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "GPS", loc.State)
	assert.Equal(t, "Location", loc.City)
	assert.True(t, loc.HasCoordinates())
}

func TestService_SaveLiveLocationInvalid(t *testing.T) {
	svc := NewService(newMemStore(), stubResolver{})
	_, err := svc.SaveLiveLocation(context.Background(), 1, 91, 0)
	assert.True(t, errors.Is(err, common.ErrInvalidLocation))
}

func TestService_SaveManualLocation(t *testing.T) {
	store := newMemStore()
	store.drivers[1] = &Driver{UserID: 1, Status: StatusActive}
	svc := NewService(store, stubResolver{})

	loc, err := svc.SaveManualLocation(context.Background(), 1, "Texas", "Austin")
	require.NoError(t, err)
	assert.False(t, loc.HasCoordinates())
	saved, ok := store.locations[1]
	require.True(t, ok)
	assert.Equal(t, "Austin, Texas", saved.Label())
}

func TestService_ListInactive(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, stubResolver{})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, err := svc.ListInactive(context.Background(), now, 12*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-12*time.Hour), store.since)
}

func TestLocation_Label(t *testing.T) {
	var nilLoc *Location
	assert.Equal(t, "Unknown", nilLoc.Label())
	assert.Equal(t, "Ohio", (&Location{State: "Ohio"}).Label())
	assert.Equal(t, "Akron", (&Location{City: "Akron"}).Label())
	assert.Equal(t, "Unknown", (&Location{}).Label())
	assert.False(t, nilLoc.HasCoordinates())
}
