// Package geoip resolves a visitor's approximate location, either from
// browser-supplied coordinates or from the visitor's IP address via an
// external geolocation service.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/emrgen/linktrace/internal/model"
	"github.com/sirupsen/logrus"
)

// DefaultEndpoint is the ip-api.com JSON endpoint.
const DefaultEndpoint = "http://ip-api.com/json"

// fallbackIP replaces private and loopback addresses before lookup, since
// those cannot be geolocated.
const fallbackIP = "8.8.8.8"

// Location is the resolved location summary attached to a visit.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city,omitempty"`
	Region    string   `json:"region,omitempty"`
	Country   string   `json:"country,omitempty"`
	Source    string   `json:"source"`
}

// FromBrowser wraps client GPS coordinates. They are trusted as-is.
func FromBrowser(lat, lng float64) *Location {
	return &Location{
		Latitude:  &lat,
		Longitude: &lng,
		Source:    model.SourceBrowser,
	}
}

// Unknown is the terminal fallback when every strategy failed.
func Unknown() *Location {
	return &Location{Source: model.SourceUnknown}
}

// Resolver looks up a location for an IP address. A nil result with a nil
// error means the lookup degraded to unknown; callers never see a hard
// failure from the provider.
type Resolver interface {
	FromIP(ctx context.Context, ip string) (*Location, error)
}

// Client resolves IP addresses against an ip-api.com compatible endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: 4 * time.Second},
	}
}

var _ Resolver = (*Client)(nil)

// apiResponse is the subset of the ip-api.com payload the service uses.
type apiResponse struct {
	Status  string   `json:"status"`
	City    string   `json:"city"`
	Region  string   `json:"regionName"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// FromIP resolves an IP address to a city-level location. Any provider
// failure, malformed payload or missing coordinate degrades to (nil, nil);
// the recording pipeline treats that as "unknown", never as an error.
func (c *Client) FromIP(ctx context.Context, ip string) (*Location, error) {
	ip = NormalizeIP(ip)
	if ip == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/%s", c.endpoint, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}

	res, err := c.http.Do(req)
	if err != nil {
		logrus.Warnf("geoip lookup failed for %s: %v", ip, err)
		return nil, nil
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		logrus.Warnf("geoip lookup for %s returned status %d", ip, res.StatusCode)
		return nil, nil
	}

	var payload apiResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		logrus.Warnf("geoip payload for %s is malformed: %v", ip, err)
		return nil, nil
	}

	if payload.Status != "success" || payload.Lat == nil || payload.Lon == nil {
		return nil, nil
	}

	return &Location{
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		City:      payload.City,
		Region:    payload.Region,
		Country:   payload.Country,
		Source:    model.SourceIP,
	}, nil
}

// NormalizeIP strips any port, collapses comma-separated forwarding chains
// to the first hop, and replaces addresses that cannot be geolocated
// (private, loopback, unspecified) with the public fallback. Returns ""
// when the input is not an IP address at all.
func NormalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}

	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return fallbackIP
	}

	return ip.String()
}
