package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Nominatim {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNominatim(srv.URL+"/", "TeamHubBot/test", "us", 200*time.Millisecond)
}

func TestNominatim_ResolveText(t *testing.T) {
	n := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Joliet, IL", r.URL.Query().Get("q"))
		assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "TeamHubBot/test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"41.525","lon":"-88.081","address":{"state":"Illinois","town":"Joliet"}}]`))
	})

	place, ok := n.ResolveText(context.Background(), "Joliet, IL")
	require.True(t, ok)
	assert.Equal(t, Place{State: "Illinois", City: "Joliet", Latitude: 41.525, Longitude: -88.081}, place)
}

func TestNominatim_ResolveTextUnresolved(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "empty result", body: `[]`, code: http.StatusOK},
		{name: "no state", body: `[{"lat":"1","lon":"2","address":{"city":"Nowhere"}}]`, code: http.StatusOK},
		{name: "bad json", body: `{{{`, code: http.StatusOK},
		{name: "bad coords", body: `[{"lat":"x","lon":"2","address":{"state":"Ohio"}}]`, code: http.StatusOK},
		{name: "server error", body: `oops`, code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})
			_, ok := n.ResolveText(context.Background(), "somewhere")
			assert.False(t, ok)
		})
	}
}

func TestNominatim_Timeout(t *testing.T) {
	n := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	_, ok := n.ResolveText(context.Background(), "Chicago")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNominatim_EmptyPhrase(t *testing.T) {
	n := NewNominatim("http://127.0.0.1:1", "ua", "us", time.Second)
	_, ok := n.ResolveText(context.Background(), "   ")
	assert.False(t, ok)
}

func TestNominatim_ResolveCoordinates(t *testing.T) {
	n := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "41.88", r.URL.Query().Get("lat"))
		_, _ = w.Write([]byte(`{"lat":"41.8","lon":"-87.6","address":{"state":"Illinois","city":"Chicago","country_code":"us"}}`))
	})

	place, ok := n.ResolveCoordinates(context.Background(), 41.88, -87.63)
	require.True(t, ok)
	assert.Equal(t, "Chicago", place.City)
	assert.Equal(t, 41.88, place.Latitude)
	assert.Equal(t, -87.63, place.Longitude)
}

func TestNominatim_ResolveCoordinatesOutsideCountries(t *testing.T) {
	n := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lat":"43.6","lon":"-79.3","address":{"state":"Ontario","city":"Toronto","country_code":"ca"}}`))
	})

	_, ok := n.ResolveCoordinates(context.Background(), 43.65, -79.38)
	assert.False(t, ok, "Торонто не входит в countrycodes=us")
}

func TestNominatim_ResolveCoordinatesCountryList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"state":"Ontario","city":"Toronto","country_code":"CA"}}`))
	}))
	t.Cleanup(srv.Close)

	for _, codes := range []string{"us, ca", ""} {
		n := NewNominatim(srv.URL, "ua", codes, time.Second)
		place, ok := n.ResolveCoordinates(context.Background(), 43.65, -79.38)
		require.True(t, ok, "codes=%q", codes)
		assert.Equal(t, "Toronto", place.City)
	}
}

func TestNominatim_ResolveCoordinatesUnreachable(t *testing.T) {
	n := NewNominatim("http://127.0.0.1:1", "ua", "us", 200*time.Millisecond)
	_, ok := n.ResolveCoordinates(context.Background(), 1, 2)
	assert.False(t, ok)
}

func TestStateAliases(t *testing.T) {
	assert.Equal(t, []string{"IL", "Illinois"}, StateAliases("il"))
	assert.Equal(t, []string{"TX", "Texas"}, StateAliases("texas"))
	assert.Equal(t, []string{"Oregon"}, StateAliases("Oregon"))
	assert.Nil(t, StateAliases(" "))
}
