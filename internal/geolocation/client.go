package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vicbox/starterkit/internal/config"
	"github.com/vicbox/starterkit/internal/metrics"
	"github.com/vicbox/starterkit/internal/models"
)

var (
	// ErrSkipped is returned for addresses that are never sent upstream
	// (private, loopback, unspecified or unparsable) and when lookups are disabled
	ErrSkipped = errors.New("geolocation lookup skipped")

	// ErrLookupFailed is returned when the provider answers without a location
	ErrLookupFailed = errors.New("geolocation lookup failed")
)

const lookupFields = "status,message,country,countryCode,region,city,lat,lon,timezone"

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
}

// cached holds either a location or the fact that the provider had none
type cached struct {
	location *models.LocationInfo
}

// Client resolves IP addresses to coarse locations through an ip-api.com
// compatible endpoint. Answers are kept in an expiring LRU cache.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	enabled    bool
	cache      *lru.LRU[string, cached]
	logger     *slog.Logger
}

func NewClient(cfg config.GeolocationConfig, logger *slog.Logger) *Client {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}

	return &Client{
		httpClient: &http.Client{},
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		enabled:    cfg.Enabled,
		cache:      lru.NewLRU[string, cached](size, nil, cfg.CacheTTL),
		logger:     logger,
	}
}

// Lookup returns the location of ip. The upstream call is bounded by the
// configured timeout regardless of the caller's deadline.
func (c *Client) Lookup(ctx context.Context, ip string) (*models.LocationInfo, error) {
	if !c.enabled || !lookupEligible(ip) {
		metrics.GeoLookupsTotal.WithLabelValues(metrics.GeoOutcomeSkipped).Inc()
		return nil, ErrSkipped
	}

	if entry, ok := c.cache.Get(ip); ok {
		metrics.GeoLookupsTotal.WithLabelValues(metrics.GeoOutcomeCacheHit).Inc()
		if entry.location == nil {
			return nil, ErrLookupFailed
		}
		return entry.location, nil
	}

	location, err := c.fetch(ctx, ip)
	if err != nil {
		metrics.GeoLookupsTotal.WithLabelValues(metrics.GeoOutcomeFailure).Inc()
		c.logger.Debug("geolocation lookup failed", "ip", ip, "error", err)
		return nil, err
	}

	metrics.GeoLookupsTotal.WithLabelValues(metrics.GeoOutcomeSuccess).Inc()
	return location, nil
}

func (c *Client) fetch(ctx context.Context, ip string) (*models.LocationInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s?fields=%s", c.baseURL, url.PathEscape(ip), lookupFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geolocation request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GeoLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if body.Status != "success" {
		c.cache.Add(ip, cached{})
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, body.Message)
	}

	location := &models.LocationInfo{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Region:      body.Region,
		City:        body.City,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
		Timezone:    body.Timezone,
	}
	c.cache.Add(ip, cached{location: location})

	return location, nil
}

func lookupEligible(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !(parsed.IsUnspecified() || parsed.IsLoopback() || parsed.IsPrivate() ||
		parsed.IsLinkLocalUnicast() || parsed.IsLinkLocalMulticast())
}
