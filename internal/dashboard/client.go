package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

// BinStatus is the body of GET /bin/status. Message is set only on the
// fallback returned when no reading exists.
type BinStatus struct {
	telemetry.Reading
	Message string `json:"message,omitempty"`
}

// HasData reports whether the status came from a stored reading.
func (s BinStatus) HasData() bool {
	return s.Message == ""
}

// UpdateResult is the body of a successful POST /bin/update.
type UpdateResult struct {
	Success    bool             `json:"success"`
	Status     telemetry.Status `json:"status"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dashboard: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("dashboard: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client calls the SmartWaste HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL (for example http://localhost:8080).
// Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Status fetches the newest reading for deviceID, or across all bins when
// deviceID is empty.
func (c *Client) Status(ctx context.Context, deviceID string) (BinStatus, error) {
	var out BinStatus
	err := c.do(ctx, http.MethodGet, "/bin/status", deviceQuery(deviceID), nil, &out)
	return out, err
}

// History fetches up to 20 readings, newest first.
func (c *Client) History(ctx context.Context, deviceID string) ([]telemetry.Reading, error) {
	out := []telemetry.Reading{}
	err := c.do(ctx, http.MethodGet, "/bin/history", deviceQuery(deviceID), nil, &out)
	return out, err
}

// Registry fetches the merged registry view.
func (c *Client) Registry(ctx context.Context) ([]registry.Entry, error) {
	out := []registry.Entry{}
	err := c.do(ctx, http.MethodGet, "/registry/list", nil, nil, &out)
	return out, err
}

// Update posts a reading as a sensor would.
func (c *Client) Update(ctx context.Context, deviceID string, fill float64) (UpdateResult, error) {
	var out UpdateResult
	body := map[string]any{"deviceId": deviceID, "fillPercentage": fill}
	err := c.do(ctx, http.MethodPost, "/bin/update", nil, body, &out)
	return out, err
}

// Registration holds the fields sent when registering a bin.
type Registration struct {
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
	Details  string `json:"details,omitempty"`
}

// RegistrationPatch changes a registration. Nil fields are left as they are.
type RegistrationPatch struct {
	Name    *string `json:"name,omitempty"`
	Details *string `json:"details,omitempty"`
}

// DeleteResult is the body of DELETE /registry/delete.
type DeleteResult struct {
	Success         bool   `json:"success"`
	DeviceID        string `json:"deviceId"`
	Action          string `json:"action"`
	ReadingsDeleted int64  `json:"readingsDeleted"`
}

// AddRegistry registers a bin. A synthetic temp-<deviceId> passed as the
// device id is reduced to the device id, so a discovered entry can be
// registered as listed.
func (c *Client) AddRegistry(ctx context.Context, in Registration) (registry.Entry, error) {
	if deviceID, ok := registry.DeviceIDFromSynthetic(in.DeviceID); ok {
		in.DeviceID = deviceID
	}
	var out registry.Entry
	err := c.do(ctx, http.MethodPost, "/registry/add", nil, in, &out)
	return out, err
}

// UpdateRegistry edits the registration with id.
func (c *Client) UpdateRegistry(ctx context.Context, id string, patch RegistrationPatch) (registry.Entry, error) {
	body := struct {
		ID string `json:"id"`
		RegistrationPatch
	}{ID: id, RegistrationPatch: patch}
	var out registry.Entry
	err := c.do(ctx, http.MethodPut, "/registry/update", nil, body, &out)
	return out, err
}

// DeleteRegistry unregisters a real entry, or purges the history of a
// discovered temp- entry.
func (c *Client) DeleteRegistry(ctx context.Context, id string) (DeleteResult, error) {
	var out DeleteResult
	err := c.do(ctx, http.MethodDelete, "/registry/delete", url.Values{"id": {id}}, nil, &out)
	return out, err
}

func deviceQuery(deviceID string) url.Values {
	if deviceID == "" {
		return nil
	}
	return url.Values{"deviceId": {deviceID}}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		//nolint:errcheck // An unparseable error body still yields the status code
		json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
