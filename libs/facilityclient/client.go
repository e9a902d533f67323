// Package facilityclient talks to the facility service through the gateway.
package facilityclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teampro-ai/teampro/libs/facility"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultUserAgent = "teampro-cli/1"

type Client struct {
	HTTP      *http.Client
	BaseURL   string
	Token     string
	UserAgent string
}

func New(baseURL, token string) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:   baseURL,
		Token:     token,
		UserAgent: defaultUserAgent,
	}
}

// APIError is a non-2xx response. Message is the server's explanation, if any.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %s", e.Status)
	}
	return fmt.Sprintf("request failed: %s: %s", e.Status, e.Message)
}

// UserMessage is the text to show a person, verbatim from the server.
func (e *APIError) UserMessage() string { return e.Message }

func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) ListFacilities(ctx context.Context, includeInactive bool) ([]facility.Facility, error) {
	q := url.Values{}
	if includeInactive {
		q.Set("include_inactive", "true")
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/facilities", q, nil)
	if err != nil {
		return nil, err
	}
	var out []facility.Facility
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFacility(ctx context.Context, facilityID string) (facility.Facility, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/facilities/"+url.PathEscape(facilityID), nil, nil)
	if err != nil {
		return facility.Facility{}, err
	}
	var out facility.Facility
	if err := c.doJSON(req, &out); err != nil {
		return facility.Facility{}, err
	}
	return out, nil
}

func (c *Client) FetchBookings(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Booking, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/facilities/"+url.PathEscape(facilityID)+"/bookings", q, nil)
	if err != nil {
		return nil, err
	}
	var out []facility.Booking
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchConflicts(ctx context.Context, facilityID string) ([]facility.Conflict, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/facilities/"+url.PathEscape(facilityID)+"/conflicts", nil, nil)
	if err != nil {
		return nil, err
	}
	var out []facility.Conflict
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckConflicts(ctx context.Context, facilityID string, start, end time.Time) ([]facility.Conflict, error) {
	body := facility.CheckConflictsRequest{StartTime: start.UTC(), EndTime: end.UTC()}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/facilities/"+url.PathEscape(facilityID)+"/check-conflicts", nil, body)
	if err != nil {
		return nil, err
	}
	var out facility.CheckConflictsResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Conflicts, nil
}

func (c *Client) CreateBooking(ctx context.Context, in facility.CreateBookingRequest) (facility.CreateBookingResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/facilities/"+url.PathEscape(in.FacilityID)+"/bookings", nil, in)
	if err != nil {
		return facility.CreateBookingResult{}, err
	}
	req.Header.Set("Idempotency-Key", uuid.NewString())
	var out facility.CreateBookingResult
	if err := c.doJSON(req, &out); err != nil {
		return facility.CreateBookingResult{}, err
	}
	return out, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID string) (facility.Booking, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/bookings/"+url.PathEscape(bookingID)+"/cancel", nil, nil)
	if err != nil {
		return facility.Booking{}, err
	}
	var out facility.Booking
	if err := c.doJSON(req, &out); err != nil {
		return facility.Booking{}, err
	}
	return out, nil
}

func (c *Client) MyBookings(ctx context.Context, limit int) ([]facility.Booking, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/bookings/mine", q, nil)
	if err != nil {
		return nil, err
	}
	var out []facility.Booking
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RealTimeStatus(ctx context.Context, facilityID string) (facility.RealTimeStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/facilities/"+url.PathEscape(facilityID)+"/real-time-status", nil, nil)
	if err != nil {
		return facility.RealTimeStatus{}, err
	}
	var out facility.RealTimeStatus
	if err := c.doJSON(req, &out); err != nil {
		return facility.RealTimeStatus{}, err
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	base.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		base.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, dest any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: errorMessage(body)}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// errorMessage accepts {"message": ...}, {"error": ...} or a plain text body.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
	}
	return trimmed
}
