package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/database"
	_ "github.com/wastemanagement141-bit/garbage-overflow/migrations"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return newRepoWithClock(db.DB)
}

// newRepoWithClock returns a repository whose clock advances one second per entry.
func newRepoWithClock(db *sql.DB) *SQLiteRepository {
	repo := NewSQLiteRepository(db)
	tick := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return repo
}

func TestCreate_FillsDefaults(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	log := &AuditLog{Action: "registered", DeviceID: "Bin-1", EntityID: "abc",
		Details: map[string]any{"name": "Main St"}}
	if err := repo.Create(ctx, log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.ID == "" || log.CreatedAt.IsZero() {
		t.Errorf("Create() did not fill ID/CreatedAt: %+v", log)
	}
	if log.EntityType != EntityBin || log.Source != SourceAPI {
		t.Errorf("defaults = %q/%q, want %q/%q", log.EntityType, log.Source, EntityBin, SourceAPI)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Logs) != 1 {
		t.Fatalf("List() = %+v", res)
	}
	got := res.Logs[0]
	if got.DeviceID != "Bin-1" || got.EntityID != "abc" || got.Details["name"] != "Main St" {
		t.Errorf("List()[0] = %+v", got)
	}
}

func TestList_FilterAndPaging(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	seed := []struct{ action, device string }{
		{"registered", "A"},
		{"registered", "B"},
		{"unregistered", "A"},
		{"deleted_history", "C"},
		{"updated", "B"},
	}
	for _, s := range seed {
		if err := repo.Create(ctx, &AuditLog{Action: s.action, DeviceID: s.device}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name       string
		filter     Filter
		wantTotal  int
		wantFirst  string
		wantLen    int
		wantLimit  int
		wantOffset int
	}{
		{"all newest first", Filter{}, 5, "updated", 5, DefaultLimit, 0},
		{"by action", Filter{Action: "registered"}, 2, "registered", 2, DefaultLimit, 0},
		{"by device", Filter{DeviceID: "A"}, 2, "unregistered", 2, DefaultLimit, 0},
		{"paged", Filter{Limit: 2, Offset: 2}, 5, "unregistered", 2, 2, 2},
		{"limit clamped", Filter{Limit: 1000, Offset: -3}, 5, "updated", 5, MaxLimit, 0},
		{"no match", Filter{Action: "purged"}, 0, "", 0, DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal || len(res.Logs) != tt.wantLen {
				t.Fatalf("List() total=%d len=%d, want %d/%d", res.Total, len(res.Logs), tt.wantTotal, tt.wantLen)
			}
			if res.Limit != tt.wantLimit || res.Offset != tt.wantOffset {
				t.Errorf("List() limit/offset = %d/%d, want %d/%d", res.Limit, res.Offset, tt.wantLimit, tt.wantOffset)
			}
			if tt.wantLen > 0 && res.Logs[0].Action != tt.wantFirst {
				t.Errorf("List()[0].Action = %q, want %q", res.Logs[0].Action, tt.wantFirst)
			}
			if res.Logs == nil {
				t.Error("Logs should never be nil")
			}
		})
	}
}
