package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/api"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/config"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/database"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/logging"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
	_ "github.com/wastemanagement141-bit/garbage-overflow/migrations"
)

// testAPI serves the real API over an in-memory database.
func testAPI(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	tel := telemetry.NewService(telemetry.NewSQLiteRepository(db.DB))
	reg := registry.NewService(registry.NewSQLiteRepository(db.DB), tel)

	srv, err := api.New(api.Deps{
		Logger:    logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "test"),
		Telemetry: tel,
		Registry:  reg,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("api.New() error: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_StatusFallback(t *testing.T) {
	c := NewClient(testAPI(t).URL, 5*time.Second)

	st, err := c.Status(t.Context(), "")
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if st.HasData() {
		t.Error("HasData() = true on empty database")
	}
	if st.Message != "No data found" {
		t.Errorf("Message = %q", st.Message)
	}
	if st.DeviceID != telemetry.UnknownDeviceID || st.Status != telemetry.StatusEmpty {
		t.Errorf("fallback = %+v", st.Reading)
	}
}

func TestClient_UpdateThenRead(t *testing.T) {
	c := NewClient(testAPI(t).URL+"/", 5*time.Second)
	ctx := t.Context()

	res, err := c.Update(ctx, "Bin-7", 85)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !res.Success || res.Status != telemetry.StatusFull {
		t.Errorf("Update() = %+v", res)
	}
	if res.RecordedAt.IsZero() {
		t.Error("RecordedAt is zero")
	}

	if _, err := c.Update(ctx, "Bin-8", 10); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	st, err := c.Status(ctx, "Bin-7")
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !st.HasData() || st.DeviceID != "Bin-7" || st.FillPercentage != 85 {
		t.Errorf("Status(Bin-7) = %+v", st)
	}

	hist, err := c.History(ctx, "")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(hist) != 2 || hist[0].DeviceID != "Bin-8" {
		t.Errorf("History() = %+v, want Bin-8 first", hist)
	}

	devices, err := c.Registry(ctx)
	if err != nil {
		t.Fatalf("Registry() error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Registry() = %+v, want 2 synthetic entries", devices)
	}
	for _, e := range devices {
		if !e.IsUnregistered || e.ID != registry.SyntheticID(e.DeviceID) {
			t.Errorf("entry %+v should be synthetic", e)
		}
	}
}

func TestClient_HistoryEmptyIsNonNil(t *testing.T) {
	c := NewClient(testAPI(t).URL, 5*time.Second)

	hist, err := c.History(t.Context(), "nobody")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if hist == nil || len(hist) != 0 {
		t.Errorf("History() = %#v, want empty slice", hist)
	}
}

func TestClient_APIError(t *testing.T) {
	c := NewClient(testAPI(t).URL, 5*time.Second)

	_, err := c.Update(t.Context(), "", 50)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Update() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Code != api.ErrCodeValidation {
		t.Errorf("Code = %q, want %q", apiErr.Code, api.ErrCodeValidation)
	}
	if apiErr.Message == "" {
		t.Error("Message is empty")
	}
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, time.Second).Status(t.Context(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if got, want := apiErr.Error(), "dashboard: HTTP 502"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if _, err := NewClient(url, time.Second).Registry(t.Context()); err == nil {
		t.Error("Registry() error = nil for closed server")
	}
}

func TestClient_RegistryManagement(t *testing.T) {
	c := NewClient(testAPI(t).URL, 5*time.Second)
	ctx := t.Context()

	if _, err := c.Update(ctx, "Bin-7", 40); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	// Registering the discovered placeholder as listed strips the prefix.
	entry, err := c.AddRegistry(ctx, Registration{DeviceID: "temp-Bin-7", Name: "Library", Details: "North door"})
	if err != nil {
		t.Fatalf("AddRegistry() error: %v", err)
	}
	if entry.DeviceID != "Bin-7" || entry.Name != "Library" || entry.IsUnregistered || entry.ID == "" {
		t.Errorf("AddRegistry() = %+v", entry)
	}

	devices, err := c.Registry(ctx)
	if err != nil {
		t.Fatalf("Registry() error: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != entry.ID {
		t.Errorf("Registry() = %+v, want only the registration", devices)
	}

	name := "Library (east)"
	updated, err := c.UpdateRegistry(ctx, entry.ID, RegistrationPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateRegistry() error: %v", err)
	}
	if updated.Name != name || updated.Details != "North door" {
		t.Errorf("UpdateRegistry() = %+v, want renamed with details kept", updated)
	}

	res, err := c.DeleteRegistry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("DeleteRegistry() error: %v", err)
	}
	if !res.Success || res.Action != registry.ActionUnregistered || res.DeviceID != "Bin-7" {
		t.Errorf("DeleteRegistry() = %+v", res)
	}

	res, err = c.DeleteRegistry(ctx, "temp-Bin-7")
	if err != nil {
		t.Fatalf("DeleteRegistry(temp) error: %v", err)
	}
	if res.Action != registry.ActionDeletedHistory || res.ReadingsDeleted != 1 {
		t.Errorf("DeleteRegistry(temp) = %+v", res)
	}
}

func TestClient_RegistryErrors(t *testing.T) {
	c := NewClient(testAPI(t).URL, 5*time.Second)
	ctx := t.Context()

	if _, err := c.AddRegistry(ctx, Registration{DeviceID: "Bin-1", Name: "One"}); err != nil {
		t.Fatalf("AddRegistry() error: %v", err)
	}

	tests := []struct {
		name     string
		call     func() error
		wantCode int
	}{
		{"duplicate device", func() error {
			_, err := c.AddRegistry(ctx, Registration{DeviceID: "Bin-1", Name: "Again"})
			return err
		}, http.StatusConflict},
		{"missing name", func() error {
			_, err := c.AddRegistry(ctx, Registration{DeviceID: "Bin-2"})
			return err
		}, http.StatusBadRequest},
		{"update synthetic id", func() error {
			name := "x"
			_, err := c.UpdateRegistry(ctx, "temp-Bin-1", RegistrationPatch{Name: &name})
			return err
		}, http.StatusBadRequest},
		{"delete unknown id", func() error {
			_, err := c.DeleteRegistry(ctx, "does-not-exist")
			return err
		}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *APIError
			if err := tt.call(); !errors.As(err, &apiErr) || apiErr.StatusCode != tt.wantCode {
				t.Errorf("error = %v, want HTTP %d", err, tt.wantCode)
			}
		})
	}
}
