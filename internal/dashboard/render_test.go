package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

func TestRender(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Status: status("Bin-7", 85),
		History: []telemetry.Reading{
			{DeviceID: "Bin-7", FillPercentage: 85, Status: telemetry.StatusFull, CreatedAt: at},
			{DeviceID: "Bin-7", FillPercentage: 45, Status: telemetry.StatusHalf, CreatedAt: at.Add(-time.Minute)},
		},
		Devices: []registry.Entry{
			{ID: "a1", DeviceID: "Bin-7", Name: "Library", Details: "North door"},
			{ID: "temp-Bin-9", DeviceID: "Bin-9", Name: "Bin-9", Details: "Discovered Device", IsUnregistered: true},
		},
		FetchedAt: at,
	}
	snap.Status.CreatedAt = at

	var buf bytes.Buffer
	if err := Render(&buf, snap); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"CRITICAL ALERT",
		"exceeded 80%",
		"85.0% [########..]",
		"FULL",
		"HALF",
		"Library",
		"temp-Bin-9",
		"REGISTERED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_NoAlertNoData(t *testing.T) {
	snap := Snapshot{
		Status: BinStatus{Reading: telemetry.FallbackReading(""), Message: "No data found"},
	}

	var buf bytes.Buffer
	if err := Render(&buf, snap); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "CRITICAL ALERT") {
		t.Errorf("unexpected alert:\n%s", out)
	}
	for _, want := range []string{"UNKNOWN", "No data found", "(no readings)", "(no devices)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGauge(t *testing.T) {
	tests := []struct {
		fill float64
		want string
	}{
		{0, "[..........]"},
		{-5, "[..........]"},
		{49.9, "[####......]"},
		{100, "[##########]"},
		{150, "[##########]"},
	}
	for _, tt := range tests {
		if got := gauge(tt.fill); got != tt.want {
			t.Errorf("gauge(%v) = %q, want %q", tt.fill, got, tt.want)
		}
	}
}
