package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the service has no address for the point.
var ErrNotFound = errors.New("location not found")

// Nominatim is a Reverser backed by the OpenStreetMap Nominatim API.
type Nominatim struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewNominatim builds a client allowing at most rps requests per second.
func NewNominatim(baseURL, userAgent string, rps float64, httpClient *http.Client) *Nominatim {
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json&addressdetails=1", n.baseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Nominatim requires a valid User-Agent
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.New("rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("reverse endpoint %d: %s", resp.StatusCode, string(b))
	}

	var raw struct {
		DisplayName string            `json:"display_name"`
		Address     map[string]string `json:"address"`
		Error       string            `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if raw.Error != "" || len(raw.Address) == 0 {
		return nil, ErrNotFound
	}
	return &Place{DisplayName: raw.DisplayName, Address: raw.Address}, nil
}
