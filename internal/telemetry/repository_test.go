package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/database"
	_ "github.com/wastemanagement141-bit/garbage-overflow/migrations"
)

// setupTestDB opens an in-memory database with the production schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db.DB
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func appendReading(t *testing.T, repo *SQLiteRepository, deviceID string, fill float64, at time.Time) Reading {
	t.Helper()
	r := Reading{DeviceID: deviceID, FillPercentage: fill, Status: Classify(fill), CreatedAt: at}
	if err := repo.Append(context.Background(), &r); err != nil {
		t.Fatalf("Append(%s) error = %v", deviceID, err)
	}
	return r
}

func TestSQLiteRepository_AppendAndLatest(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	first := appendReading(t, repo, "Bin-1", 10, baseTime)
	second := appendReading(t, repo, "Bin-2", 85.5, baseTime.Add(time.Second))

	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("ids not assigned in order: %d, %d", first.ID, second.ID)
	}

	got, err := repo.Latest(ctx, "")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.DeviceID != "Bin-2" || got.FillPercentage != 85.5 || got.Status != StatusFull {
		t.Errorf("Latest() = %+v", got)
	}
	if !got.CreatedAt.Equal(baseTime.Add(time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, baseTime.Add(time.Second))
	}

	got, err = repo.Latest(ctx, "Bin-1")
	if err != nil {
		t.Fatalf("Latest(Bin-1) error = %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("Latest(Bin-1).ID = %d, want %d", got.ID, first.ID)
	}
}

func TestSQLiteRepository_AppendRejectsUnknownStatus(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	r := Reading{DeviceID: "Bin-1", FillPercentage: 55, Status: "half-full", CreatedAt: baseTime}
	err := repo.Append(ctx, &r)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("Append() error = %v, want ErrInvalidStatus", err)
	}
	if r.ID != 0 {
		t.Errorf("ID = %d, want 0", r.ID)
	}
	if _, err := repo.Latest(ctx, ""); !errors.Is(err, ErrNoReadings) {
		t.Errorf("Latest() error = %v, want ErrNoReadings", err)
	}
}

func TestSQLiteRepository_LatestNone(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Latest(context.Background(), "ghost")
	if !errors.Is(err, ErrNoReadings) {
		t.Errorf("Latest() error = %v, want ErrNoReadings", err)
	}
}

func TestSQLiteRepository_RecentOrdering(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	// Same timestamp for the last two: insertion order breaks the tie.
	a := appendReading(t, repo, "Bin-1", 10, baseTime)
	b := appendReading(t, repo, "Bin-1", 20, baseTime.Add(time.Minute))
	c := appendReading(t, repo, "Bin-1", 30, baseTime.Add(time.Minute))
	appendReading(t, repo, "Bin-2", 40, baseTime.Add(-time.Hour))

	got, err := repo.Recent(ctx, "Bin-1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	want := []int64{c.ID, b.ID, a.ID}
	if len(got) != len(want) {
		t.Fatalf("Recent() returned %d readings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("Recent()[%d].ID = %d, want %d", i, got[i].ID, want[i])
		}
	}

	all, err := repo.Recent(ctx, "", 2)
	if err != nil {
		t.Fatalf("Recent(all) error = %v", err)
	}
	if len(all) != 2 || all[0].ID != c.ID {
		t.Errorf("Recent(all, 2) = %+v", all)
	}
}

func TestSQLiteRepository_SubSecondOrdering(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	later := appendReading(t, repo, "Bin-1", 50, baseTime.Add(900*time.Millisecond))
	appendReading(t, repo, "Bin-1", 60, baseTime.Add(100*time.Millisecond))

	got, err := repo.Latest(context.Background(), "Bin-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.ID != later.ID {
		t.Errorf("Latest() picked id %d, want %d (newest timestamp)", got.ID, later.ID)
	}
}

func TestSQLiteRepository_DeviceIDs(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	ids, err := repo.DeviceIDs(ctx)
	if err != nil {
		t.Fatalf("DeviceIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("DeviceIDs() on empty table = %v", ids)
	}

	for _, id := range []string{"C", "A", "B", "A"} {
		appendReading(t, repo, id, 1, baseTime)
	}

	ids, err = repo.DeviceIDs(ctx)
	if err != nil {
		t.Fatalf("DeviceIDs() error = %v", err)
	}
	want := []string{"A", "B", "C"}
	if len(ids) != len(want) {
		t.Fatalf("DeviceIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("DeviceIDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestSQLiteRepository_DeleteByDevice(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	appendReading(t, repo, "Bin-B", 1, baseTime)
	appendReading(t, repo, "bin-b", 2, baseTime)
	appendReading(t, repo, "Bin-A", 3, baseTime)

	n, err := repo.DeleteByDevice(ctx, "BIN-B")
	if err != nil {
		t.Fatalf("DeleteByDevice() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteByDevice() = %d, want 2", n)
	}

	n, err = repo.DeleteByDevice(ctx, "BIN-B")
	if err != nil {
		t.Fatalf("second DeleteByDevice() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second DeleteByDevice() = %d, want 0", n)
	}

	ids, _ := repo.DeviceIDs(ctx)
	if len(ids) != 1 || ids[0] != "Bin-A" {
		t.Errorf("DeviceIDs() after purge = %v, want [Bin-A]", ids)
	}
}
