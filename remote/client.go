package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fleetedge/config"
	"fleetedge/fleet"
)

// Client talks to the remote fleet authority over JSON/HTTPS.
type Client struct {
	baseURL string
	token   string
	http    http.Client
}

// NewClient creates a remote authority client.
func NewClient(cfg config.RemoteConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.BearerToken,
		http:    http.Client{Timeout: timeout},
	}
}

// StatusError reports a non-retryable rejection from the authority
// (4xx). The mutation is wrong, not the network.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Message)
}

// transientError marks failures worth queueing and retrying: transport
// errors, timeouts, and 5xx responses.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return "transient: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err as retryable.
func Transient(err error) error {
	return &transientError{err: err}
}

// IsTransient reports whether err should be absorbed into the sync
// queue rather than failing the caller.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, idempotencyKey string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport failures are indistinguishable from an
		// unreachable authority; both fall back to the queue.
		return Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil {
			return json.NewDecoder(resp.Body).Decode(out)
		}
		return nil
	case resp.StatusCode >= 500:
		return Transient(fmt.Errorf("%s %s returned %d", method, path, resp.StatusCode))
	default:
		var errBody struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return &StatusError{Code: resp.StatusCode, Message: errBody.Error}
	}
}

// CreateBooking submits a new booking. The idempotency key lets the
// authority treat replays of the same mutation as no-ops.
func (c *Client) CreateBooking(ctx context.Context, b *fleet.Booking, idempotencyKey string) (*BookingRecord, error) {
	var rec BookingRecord
	if err := c.do(ctx, "POST", "/bookings", BookingToRequest(b), &rec, idempotencyKey); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateBooking pushes the booking's current state.
func (c *Client) UpdateBooking(ctx context.Context, b *fleet.Booking, idempotencyKey string) (*BookingRecord, error) {
	var rec BookingRecord
	if err := c.do(ctx, "PUT", "/bookings/"+b.Ref, BookingToRequest(b), &rec, idempotencyKey); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CancelBooking cancels a booking with a reason.
func (c *Client) CancelBooking(ctx context.Context, ref, reason, idempotencyKey string) error {
	return c.do(ctx, "DELETE", "/bookings/"+ref, CancelRequest{Reason: reason}, nil, idempotencyKey)
}

// CreateDeployment submits a new deployment.
func (c *Client) CreateDeployment(ctx context.Context, d *fleet.Deployment, idempotencyKey string) (*DeploymentRecord, error) {
	var rec DeploymentRecord
	if err := c.do(ctx, "POST", "/deployments", DeploymentToRequest(d), &rec, idempotencyKey); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateDeployment pushes the deployment's current state.
func (c *Client) UpdateDeployment(ctx context.Context, d *fleet.Deployment, idempotencyKey string) (*DeploymentRecord, error) {
	var rec DeploymentRecord
	if err := c.do(ctx, "PUT", "/deployments/"+d.UUID, DeploymentToRequest(d), &rec, idempotencyKey); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateTracking pushes a realtime tracking snapshot.
func (c *Client) UpdateTracking(ctx context.Context, uuid string, snap *fleet.TrackingSnapshot, idempotencyKey string) error {
	req := TrackingRequest{
		Location:   snap.Location,
		BatteryPct: snap.BatteryPct,
		SpeedKmh:   snap.SpeedKmh,
		OdometerKm: snap.OdometerKm,
		RecordedAt: snap.RecordedAt,
	}
	return c.do(ctx, "PUT", "/deployments/"+uuid+"/tracking", req, nil, idempotencyKey)
}

// ListVehicles reads the fleet pool from the vehicle registry and
// normalizes it to the canonical camelCase schema.
func (c *Client) ListVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	var raw []registryVehicle
	if err := c.do(ctx, "GET", "/vehicles", nil, &raw, ""); err != nil {
		return nil, err
	}
	vehicles := make([]fleet.Vehicle, 0, len(raw))
	for _, rv := range raw {
		vehicles = append(vehicles, rv.canonical())
	}
	return vehicles, nil
}
