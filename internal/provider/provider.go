// Package provider is the HTTP client for the smart-home data API.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/luki/homedash/internal/sensor"
)

// Operation names, used in errors, logs and metrics.
const (
	OpCurrent     = "current_data"
	OpHistorical  = "historical_data"
	OpDevices     = "devices"
	OpSuggestions = "suggestions"
	OpToggle      = "toggle"
)

// ErrNoData is returned by Current when the API has no reading yet.
var ErrNoData = errors.New("no current data")

// Error is a non-success HTTP response.
type Error struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// DataProvider is what the dashboard controller pulls from.
type DataProvider interface {
	Current(ctx context.Context) (sensor.Reading, error)
	Historical(ctx context.Context, r sensor.TimeRange) ([]sensor.Reading, error)
	Devices(ctx context.Context) ([]sensor.Device, error)
	Suggestions(ctx context.Context) ([]sensor.Suggestion, error)
	Toggle(ctx context.Context, deviceID int) (sensor.DeviceStatus, error)
}

// Client talks to the API over HTTP.
type Client struct {
	http *resty.Client
}

// New returns a client rooted at baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

// Current fetches the latest reading.
func (c *Client) Current(ctx context.Context) (sensor.Reading, error) {
	var out sensor.Reading
	if err := c.get(ctx, OpCurrent, "/current_data", nil, &out); err != nil {
		return sensor.Reading{}, err
	}
	if out.IsEmpty() {
		return sensor.Reading{}, ErrNoData
	}
	return out, nil
}

// Historical fetches readings for the last r hours, oldest first.
func (c *Client) Historical(ctx context.Context, r sensor.TimeRange) ([]sensor.Reading, error) {
	var out []sensor.Reading
	params := map[string]string{"hours": strconv.Itoa(r.Hours())}
	if err := c.get(ctx, OpHistorical, "/historical_data", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Devices fetches the device list.
func (c *Client) Devices(ctx context.Context) ([]sensor.Device, error) {
	var out []sensor.Device
	if err := c.get(ctx, OpDevices, "/devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Suggestions fetches the server's current suggestion list.
func (c *Client) Suggestions(ctx context.Context) ([]sensor.Suggestion, error) {
	var out []sensor.Suggestion
	if err := c.get(ctx, OpSuggestions, "/suggestions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Toggle flips a device and returns the state the server settled on.
func (c *Client) Toggle(ctx context.Context, deviceID int) (sensor.DeviceStatus, error) {
	var out struct {
		Status sensor.DeviceStatus `json:"status"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", strconv.Itoa(deviceID)).
		Post("/device/{id}/toggle")
	if err != nil {
		return "", fmt.Errorf("%s: %w", OpToggle, err)
	}
	if resp.IsError() {
		return "", &Error{Op: OpToggle, StatusCode: resp.StatusCode(), Body: snippet(resp.Body())}
	}
	switch out.Status {
	case sensor.StatusOn, sensor.StatusOff:
		return out.Status, nil
	}
	return "", fmt.Errorf("%s: unexpected status value %q", OpToggle, out.Status)
}

func (c *Client) get(ctx context.Context, op, path string, params map[string]string, out any) error {
	req := c.http.R().SetContext(ctx).SetResult(out)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return &Error{Op: op, StatusCode: resp.StatusCode(), Body: snippet(resp.Body())}
	}
	return nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
