package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ggorockee/storemaps/internal/logger"
	"golang.org/x/time/rate"
)

const (
	searchURL  = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	detailsURL = "https://maps.googleapis.com/maps/api/place/details/json"

	// retryBackoff 429 재시도 전 대기 시간
	retryBackoff = 800 * time.Millisecond
)

// ErrAPIKeyMissing is returned when the client is constructed without a
// Google Places API key. Not retryable.
var ErrAPIKeyMissing = errors.New("places: GOOGLE_PLACES_API_KEY not configured")

// ProviderError is a non-OK status returned by the places provider.
// ZERO_RESULTS is not a ProviderError; it is an empty success.
type ProviderError struct {
	Status  string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("places: provider status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("places: provider status %s", e.Status)
}

// Place is one raw result from the provider's text search.
type Place struct {
	PlaceID          string
	Name             string
	FormattedAddress string
	Lat              float64
	Lng              float64
	Types            []string
	Rating           *float64
}

// PlaceDetails carries the per-place fields only the details endpoint
// returns.
type PlaceDetails struct {
	Phone        *string
	Website      *string
	OpeningHours *string
}

// Client talks to the Google Places API. Outbound calls share one
// rate limiter and a fixed-timeout http.Client so a stalled provider cannot
// hang a search indefinitely.
type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a places client. ratePerSecond <= 0 disables pacing.
func New(apiKey string, timeout time.Duration, ratePerSecond float64) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type searchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types  []string `json:"types"`
		Rating *float64 `json:"rating,omitempty"`
	} `json:"results"`
}

// SearchPlaces runs a text search for query near the named location.
// A ZERO_RESULTS answer returns an empty slice and nil error.
func (c *Client) SearchPlaces(ctx context.Context, query, location string, radiusMeters int) ([]Place, error) {
	log := logger.GetLogger("places")

	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	text := strings.TrimSpace(query)
	if loc := strings.TrimSpace(location); loc != "" {
		text = text + " in " + loc
	}

	params := url.Values{}
	params.Set("query", text)
	if radiusMeters > 0 {
		params.Set("radius", strconv.Itoa(radiusMeters))
	}
	params.Set("key", c.apiKey)

	var out searchResponse
	if err := c.doJSON(ctx, searchURL, params, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, &ProviderError{Status: out.Status, Message: out.ErrorMessage}
	}

	result := make([]Place, 0, len(out.Results))
	for _, r := range out.Results {
		result = append(result, Place{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
			Types:            r.Types,
			Rating:           r.Rating,
		})
	}

	log.Infof("places search '%s' returned %d results", text, len(result))
	return result, nil
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		FormattedPhoneNumber *string `json:"formatted_phone_number"`
		Website              *string `json:"website"`
		OpeningHours         *struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
}

// GetPlaceDetails fetches phone/website/hours for one place. Callers treat
// a failure here as non-fatal; the search result is still usable without
// details.
func (c *Client) GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "formatted_phone_number,website,opening_hours")
	params.Set("key", c.apiKey)

	var out detailsResponse
	if err := c.doJSON(ctx, detailsURL, params, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return &PlaceDetails{}, nil
	default:
		return nil, &ProviderError{Status: out.Status, Message: out.ErrorMessage}
	}

	details := &PlaceDetails{
		Phone:   out.Result.FormattedPhoneNumber,
		Website: out.Result.Website,
	}
	if oh := out.Result.OpeningHours; oh != nil && len(oh.WeekdayText) > 0 {
		hours := strings.Join(oh.WeekdayText, "; ")
		details.OpeningHours = &hours
	}
	return details, nil
}

// doJSON performs one GET with rate limiting and decodes the JSON body.
// A 429 is retried once after a short backoff.
func (c *Client) doJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	log := logger.GetLogger("places")

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("places: failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("places: request failed: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		log.Warnf("places API 429, retrying once after %v", retryBackoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("places: retry failed: %w", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{Status: fmt.Sprintf("HTTP_%d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("places: failed to decode response: %w", err)
	}
	return nil
}
