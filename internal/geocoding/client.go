// Package geocoding resolves addresses to coordinates through a Nominatim-compatible
// search endpoint and geocodes stored records in batches.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint  = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "school-transport/1.0 (https://github.com/school-transport)"
	DefaultTimeout   = 10 * time.Second
)

// Address is a structured address. Empty fields are left out of the query.
type Address struct {
	Street     string
	City       string
	State      string
	Country    string
	PostalCode string
}

// IsEmpty reports whether no field is set.
func (a Address) IsEmpty() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.Country) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}

// Result is one candidate returned by the provider.
type Result struct {
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	DisplayName string            `json:"display_name,omitempty"`
	Address     map[string]string `json:"address,omitempty"`
}

// Lookup is anything that can turn an address into ranked candidates.
type Lookup interface {
	Geocode(ctx context.Context, addr Address, limit int) []Result
}

// ClientConfig configures the provider client. Zero values fall back to defaults.
type ClientConfig struct {
	Endpoint          string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables throttling
	CacheSize         int     // <= 0 disables caching
	CacheTTL          time.Duration
}

// Client talks to the search endpoint. It never returns errors: every failure is logged
// and reported as "no results" so that callers are never blocked by the provider.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      gcache.Cache
}

// NewClient builds a client from cfg.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		endpoint:   cfg.Endpoint,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if cfg.CacheSize > 0 {
		builder := gcache.New(cfg.CacheSize).LRU()
		if cfg.CacheTTL > 0 {
			builder = builder.Expiration(cfg.CacheTTL)
		}
		c.cache = builder.Build()
	}
	return c
}

// Geocode looks up addr and returns at most limit candidates in provider order.
func (c *Client) Geocode(ctx context.Context, addr Address, limit int) []Result {
	if addr.IsEmpty() {
		logrus.Warn("Geocode: called with all address fields empty")
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	query := buildQuery(addr, limit)
	key := query.Encode()

	if c.cache != nil {
		if cached, err := c.cache.Get(key); err == nil {
			return cloneResults(cached.([]Result))
		}
	}

	results, err := c.fetch(ctx, query)
	if err != nil {
		logrus.WithError(err).WithField("query", key).Error("Geocode: provider request failed")
		return nil
	}

	if c.cache != nil {
		if err := c.cache.Set(key, results); err != nil {
			logrus.WithError(err).Debug("Geocode: could not cache results")
		}
	}
	return cloneResults(results)
}

func buildQuery(addr Address, limit int) url.Values {
	q := url.Values{}
	for _, field := range []struct{ name, value string }{
		{"street", addr.Street},
		{"city", addr.City},
		{"state", addr.State},
		{"country", addr.Country},
		{"postalcode", addr.PostalCode},
	} {
		if v := strings.TrimSpace(field.value); v != "" {
			q.Set(field.name, v)
		}
	}
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("addressdetails", "1")
	return q
}

// providerResult mirrors one element of the provider's JSON array.
type providerResult struct {
	Lat         coordinate        `json:"lat"`
	Lon         coordinate        `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

func (c *Client) fetch(ctx context.Context, query url.Values) ([]Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var raw []providerResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		results = append(results, Result{
			Lat:         float64(r.Lat),
			Lon:         float64(r.Lon),
			DisplayName: r.DisplayName,
			Address:     r.Address,
		})
	}
	return results, nil
}

func cloneResults(in []Result) []Result {
	if len(in) == 0 {
		return nil
	}
	out := make([]Result, len(in))
	copy(out, in)
	return out
}

// coordinate accepts both "16.05" and 16.05.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", data, err)
	}
	*c = coordinate(v)
	return nil
}
