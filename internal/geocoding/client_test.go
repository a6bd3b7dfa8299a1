package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProvider starts a fake search endpoint and counts the requests it receives.
func newProvider(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestGeocodeEmptyAddressSkipsProvider(t *testing.T) {
	server, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	client := NewClient(ClientConfig{Endpoint: server.URL})

	results := client.Geocode(context.Background(), Address{Street: "  "}, 1)

	assert.Empty(t, results)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestGeocodeBuildsQueryFromProvidedFields(t *testing.T) {
	type captured struct {
		query     url.Values
		userAgent string
	}
	requests := make(chan captured, 1)
	server, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		requests <- captured{query: r.URL.Query(), userAgent: r.Header.Get("User-Agent")}
		_, _ = w.Write([]byte(`[]`))
	})
	client := NewClient(ClientConfig{Endpoint: server.URL, UserAgent: "school-transport-test"})

	client.Geocode(context.Background(), Address{Street: "12 Tran Phu", City: "Danang", Country: "Vietnam"}, 3)

	got := <-requests
	q := got.query
	assert.Equal(t, "12 Tran Phu", q.Get("street"))
	assert.Equal(t, "Danang", q.Get("city"))
	assert.Equal(t, "Vietnam", q.Get("country"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "3", q.Get("limit"))
	assert.Equal(t, "1", q.Get("addressdetails"))
	assert.False(t, q.Has("state"))
	assert.False(t, q.Has("postalcode"))
	assert.Equal(t, "school-transport-test", got.userAgent)
}

func TestGeocodeParsesResults(t *testing.T) {
	server, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"lat": "16.0678", "lon": "108.2208", "display_name": "Tran Phu, Hai Chau, Danang", "address": {"road": "Tran Phu", "city": "Danang"}},
			{"lat": 16.07, "lon": 108.22, "display_name": "Second"}
		]`))
	})
	client := NewClient(ClientConfig{Endpoint: server.URL})

	results := client.Geocode(context.Background(), Address{Street: "Tran Phu"}, 2)

	require.Len(t, results, 2)
	assert.Equal(t, 16.0678, results[0].Lat)
	assert.Equal(t, 108.2208, results[0].Lon)
	assert.Equal(t, "Tran Phu, Hai Chau, Danang", results[0].DisplayName)
	assert.Equal(t, "Danang", results[0].Address["city"])
	assert.Equal(t, "Second", results[1].DisplayName)
}

func TestGeocodeFailuresYieldNoResults(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not": "an array"`))
			},
		},
		{
			name: "bad coordinate",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"lat": "north", "lon": "108.2"}]`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`[]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := newProvider(t, tt.handler)
			client := NewClient(ClientConfig{Endpoint: server.URL, Timeout: 50 * time.Millisecond})

			results := client.Geocode(context.Background(), Address{Street: "Tran Phu"}, 1)

			assert.Empty(t, results)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestGeocodeUnreachableProvider(t *testing.T) {
	server, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	endpoint := server.URL
	server.Close()

	client := NewClient(ClientConfig{Endpoint: endpoint})
	assert.Empty(t, client.Geocode(context.Background(), Address{City: "Danang"}, 1))
}

func TestGeocodeCachesSuccessfulLookups(t *testing.T) {
	server, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "16.05", "lon": "108.2"}]`))
	})
	client := NewClient(ClientConfig{Endpoint: server.URL, CacheSize: 10, CacheTTL: time.Minute})

	first := client.Geocode(context.Background(), Address{Street: "Le Duan"}, 1)
	second := client.Geocode(context.Background(), Address{Street: "Le Duan"}, 1)
	client.Geocode(context.Background(), Address{Street: "Bach Dang"}, 1)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestGeocodeDoesNotCacheFailures(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"lat": "16.05", "lon": "108.2"}]`))
	})
	client := NewClient(ClientConfig{Endpoint: server.URL, CacheSize: 10})

	assert.Empty(t, client.Geocode(context.Background(), Address{Street: "Le Duan"}, 1))
	fail.Store(false)
	assert.Len(t, client.Geocode(context.Background(), Address{Street: "Le Duan"}, 1), 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestGeocodeCancelledWhileThrottled(t *testing.T) {
	server, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	client := NewClient(ClientConfig{Endpoint: server.URL, RequestsPerSecond: 0.001})

	// first call consumes the single token
	client.Geocode(context.Background(), Address{Street: "A"}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Empty(t, client.Geocode(ctx, Address{Street: "B"}, 1))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
