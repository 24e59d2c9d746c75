package geolocation

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vicbox/starterkit/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.GeolocationConfig{
		Enabled:   true,
		BaseURL:   server.URL,
		Timeout:   200 * time.Millisecond,
		CacheSize: 16,
		CacheTTL:  time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return client, &hits
}

func TestLookup_Success(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		assert.Equal(t, lookupFields, r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","country":"United States","countryCode":"US",
			"region":"CA","city":"Mountain View","lat":37.4,"lon":-122.1,"timezone":"America/Los_Angeles"}`))
	})

	location, err := client.Lookup(context.Background(), "8.8.8.8")

	require.NoError(t, err)
	assert.Equal(t, "United States", location.Country)
	assert.Equal(t, "US", location.CountryCode)
	assert.Equal(t, "CA", location.Region)
	assert.Equal(t, "Mountain View", location.City)
	assert.InDelta(t, 37.4, location.Latitude, 0.001)
	assert.InDelta(t, -122.1, location.Longitude, 0.001)
	assert.Equal(t, "America/Los_Angeles", location.Timezone)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLookup_CachesAnswers(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","country":"Germany","countryCode":"DE"}`))
	})

	for i := 0; i < 3; i++ {
		location, err := client.Lookup(context.Background(), "1.1.1.1")
		require.NoError(t, err)
		assert.Equal(t, "DE", location.CountryCode)
	}

	assert.Equal(t, int32(1), hits.Load())
}

func TestLookup_FailStatusIsCached(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	})

	_, err := client.Lookup(context.Background(), "203.0.113.7")
	assert.ErrorIs(t, err, ErrLookupFailed)

	_, err = client.Lookup(context.Background(), "203.0.113.7")
	assert.ErrorIs(t, err, ErrLookupFailed)

	assert.Equal(t, int32(1), hits.Load())
}

func TestLookup_Non200(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Lookup(context.Background(), "8.8.4.4")
	assert.ErrorIs(t, err, ErrLookupFailed)

	// transport-level failures are not cached
	_, _ = client.Lookup(context.Background(), "8.8.4.4")
	assert.Equal(t, int32(2), hits.Load())
}

func TestLookup_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Lookup(context.Background(), "8.8.4.4")
	assert.Error(t, err)
}

func TestLookup_Timeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	_, err := client.Lookup(context.Background(), "9.9.9.9")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestLookup_SkipsIneligibleAddresses(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call for %s", r.URL.Path)
	})

	for _, ip := range []string{"0.0.0.0", "127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "fe80::1", "garbage", ""} {
		_, err := client.Lookup(context.Background(), ip)
		assert.ErrorIs(t, err, ErrSkipped, ip)
	}

	assert.Equal(t, int32(0), hits.Load())
}

func TestLookup_Disabled(t *testing.T) {
	client := NewClient(config.GeolocationConfig{Enabled: false, Timeout: time.Second, CacheSize: 1, CacheTTL: time.Minute},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Lookup(context.Background(), "8.8.8.8")
	assert.ErrorIs(t, err, ErrSkipped)
}
