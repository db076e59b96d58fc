package mapbox

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"foodfinder/internal/adapters/observability"
	"foodfinder/internal/domain"
)

// Client calls the Mapbox Directions API. One route request is issued per
// direction overlay; the rate limiter keeps a burst of map sessions inside
// the provider's free-tier quota.
type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

func New(base, token string, rps int) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  base,
		hc:    &http.Client{Timeout: 20 * time.Second},
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type directionsResponse struct {
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// DrivingRoute fetches the driving route origin -> dest with GeoJSON
// geometry. An empty routes array maps to domain.ErrNoRoute.
func (c *Client) DrivingRoute(ctx context.Context, origin, dest domain.Coords) (domain.Route, error) {
	url := fmt.Sprintf("%s/directions/v5/mapbox/driving/%f,%f;%f,%f?geometries=geojson&access_token=%s",
		c.base, origin.Lng, origin.Lat, dest.Lng, dest.Lat, c.token)

	var resp directionsResponse
	start := time.Now()
	err := c.get(ctx, url, &resp)
	status := 200
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("mapbox", "directions", status, time.Since(start))
	if err != nil {
		return domain.Route{}, err
	}
	if len(resp.Routes) == 0 {
		return domain.Route{}, domain.ErrNoRoute
	}

	best := resp.Routes[0]
	geom := make([]domain.Coords, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		geom = append(geom, domain.Coords{Lng: pair[0], Lat: pair[1]})
	}
	return domain.Route{Geometry: geom, DistanceMeters: best.Distance}, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON
// decode into out. Retries on 429 and transient 5xx, honoring Retry-After
// when provided.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "foodfinder/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return fmt.Errorf("mapbox rejected access token: %d", resp.StatusCode)

		case http.StatusUnprocessableEntity:
			// Mapbox answers 422 for coordinates it cannot route between.
			resp.Body.Close()
			return domain.ErrNoRoute

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter from crypto/rand so concurrent retries spread out.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
