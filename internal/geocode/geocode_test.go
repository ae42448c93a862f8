package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceLocality(t *testing.T) {
	tests := []struct {
		name    string
		address map[string]string
		want    string
	}{
		{"city", map[string]string{"city": "Chicago", "town": "Ignored"}, "Chicago"},
		{"town fallback", map[string]string{"town": "Princeton"}, "Princeton"},
		{"hamlet fallback", map[string]string{"hamlet": "Bird-in-Hand"}, "Bird-in-Hand"},
		{"nyc borough", map[string]string{"city": "City of New York", "borough": "Brooklyn", "suburb": "Kings County"}, "Brooklyn"},
		{"nyc suburb", map[string]string{"city": "New York", "suburb": "Manhattan"}, "Manhattan"},
		{"nyc without district", map[string]string{"city": "City of New York"}, "City of New York"},
		{"nothing", map[string]string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Place{Address: tt.address}
			assert.Equal(t, tt.want, p.Locality())
		})
	}
}

func TestStateAbbreviation(t *testing.T) {
	assert.Equal(t, "NY", StateAbbreviation("New York"))
	assert.Equal(t, "DC", StateAbbreviation(" district of columbia "))
	assert.Equal(t, "", StateAbbreviation("Ontario"))

	p := &Place{Address: map[string]string{"state": "Ontario"}}
	assert.Equal(t, "Ontario", p.State())
}

func TestComposeAddress(t *testing.T) {
	place := &Place{
		DisplayName: "350, 5th Avenue, Manhattan, New York, 10118, United States",
		Address: map[string]string{
			"house_number": "350", "road": "5th Avenue", "borough": "Manhattan",
			"city": "City of New York", "state": "New York", "postcode": "10118",
		},
	}

	assert.Equal(t, "350 5th Ave, Manhattan, NY 10118", ComposeAddress("350 5th Ave, Apt 4B", place))
	assert.Equal(t, "350 5th Avenue, Manhattan, NY 10118", ComposeAddress("", place))
	assert.Equal(t, "1 Main St", ComposeAddress(" 1 Main St ", nil))
	assert.Equal(t, "somewhere", ComposeAddress("", &Place{DisplayName: "somewhere"}))
}

func newNominatimServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		if r.URL.Query().Get("lat") == "0.000000" {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		w.Write([]byte(`{"display_name":"Chicago","address":{"city":"Chicago","state":"Illinois","postcode":"60601"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNominatimReverse(t *testing.T) {
	var hits int32
	srv := newNominatimServer(t, &hits)
	n := NewNominatim(srv.URL+"/", "test-agent", 100, srv.Client())

	p, err := n.Reverse(context.Background(), 41.8853, -87.6229)
	require.NoError(t, err)
	assert.Equal(t, "Chicago", p.Locality())
	assert.Equal(t, "IL", p.State())
	assert.Equal(t, "60601", p.Postcode())

	_, err = n.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNominatimStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "test-agent", 100, srv.Client())
	_, err := n.Reverse(context.Background(), 1, 1)
	assert.EqualError(t, err, "rate limit exceeded")
}

func TestCacheServesRepeatLookups(t *testing.T) {
	var hits int32
	srv := newNominatimServer(t, &hits)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewCache(NewNominatim(srv.URL, "test-agent", 100, srv.Client()), client, time.Hour)

	for i := 0; i < 3; i++ {
		p, err := c.Reverse(context.Background(), 41.8853, -87.6229)
		require.NoError(t, err)
		assert.Equal(t, "Chicago", p.Locality())
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, mr.Exists(cacheKey(41.8853, -87.6229)))

	_, err := c.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	var hits int32
	srv := newNominatimServer(t, &hits)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	c := NewCache(NewNominatim(srv.URL, "test-agent", 100, srv.Client()), client, time.Hour)
	p, err := c.Reverse(context.Background(), 41.8853, -87.6229)
	require.NoError(t, err)
	assert.Equal(t, "Chicago", p.Locality())
}
