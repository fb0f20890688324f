package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleetedge/config"
	"fleetedge/fleet"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.RemoteConfig{
		BaseURL:     srv.URL,
		BearerToken: "test-token",
		Timeout:     2 * time.Second,
	})
}

func TestCreateBookingSendsAuthAndIdempotencyKey(t *testing.T) {
	var gotAuth, gotKey string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ref":"SB0000000000001","status":"pending"}`))
	})

	b := &fleet.Booking{Ref: "SB0000000000042", Status: fleet.BookingPending}
	rec, err := c.CreateBooking(context.Background(), b, "key-1")
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if rec.Ref != "SB0000000000001" {
		t.Errorf("ref = %q, want server-assigned ref", rec.Ref)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotKey != "key-1" {
		t.Errorf("Idempotency-Key = %q, want key-1", gotKey)
	}
}

func TestServerErrorsAreTransient(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateBooking(context.Background(), &fleet.Booking{Ref: "SB1"}, "k")
	if !IsTransient(err) {
		t.Errorf("err = %v, want transient", err)
	}
}

func TestClientErrorsArePermanent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"illegal status transition: confirmed -> completed"}`))
	})

	_, err := c.UpdateBooking(context.Background(), &fleet.Booking{Ref: "SB1"}, "k")
	if IsTransient(err) {
		t.Fatalf("4xx must not be transient: %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.Code != http.StatusConflict {
		t.Errorf("code = %d, want 409", statusErr.Code)
	}
	if statusErr.Message == "" {
		t.Error("message should carry the server's detail")
	}
}

func TestUnreachableAuthorityIsTransient(t *testing.T) {
	c := NewClient(config.RemoteConfig{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Timeout: 200 * time.Millisecond,
	})

	_, err := c.CreateBooking(context.Background(), &fleet.Booking{Ref: "SB1"}, "k")
	if !IsTransient(err) {
		t.Errorf("err = %v, want transient", err)
	}
}

func TestListVehiclesNormalizesRegistrySchema(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"VehicleId": "veh-1",
			"RegistrationNumber": "KA01AB1234",
			"BatteryPercentage": 82.5,
			"CurrentStatus": "available",
			"Latitude": 12.97,
			"Longitude": 77.59,
			"RangeKm": 210,
			"SeatingCapacity": 4,
			"LastMaintenanceDate": "2026-02-20T00:00:00Z",
			"ActiveDeployments": 1
		}]`))
	})

	vehicles, err := c.ListVehicles(context.Background())
	if err != nil {
		t.Fatalf("ListVehicles: %v", err)
	}
	if len(vehicles) != 1 {
		t.Fatalf("len = %d, want 1", len(vehicles))
	}
	v := vehicles[0]
	if v.ID != "veh-1" || v.BatteryPct != 82.5 || v.Status != fleet.VehicleAvailable {
		t.Errorf("vehicle not normalized: %+v", v)
	}
	if v.Location.Lat != 12.97 || v.Location.Lng != 77.59 {
		t.Errorf("location = %+v", v.Location)
	}
	if v.LastMaintenanceAt.IsZero() {
		t.Error("LastMaintenanceDate not parsed")
	}
}
