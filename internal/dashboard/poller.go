package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

// PollInterval is the fixed refresh period.
const PollInterval = 5 * time.Second

// AlertThreshold is the fill percentage above which the overflow alert shows.
const AlertThreshold = telemetry.FullThreshold

// Fetcher is the read side of the API the poller needs.
type Fetcher interface {
	Status(ctx context.Context, deviceID string) (BinStatus, error)
	History(ctx context.Context, deviceID string) ([]telemetry.Reading, error)
	Registry(ctx context.Context) ([]registry.Entry, error)
}

// Logger is the logging interface used by the poller.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Snapshot is one complete, consistent fetch. It is never modified after
// the poller publishes it.
type Snapshot struct {
	Status    BinStatus
	History   []telemetry.Reading
	Devices   []registry.Entry
	FetchedAt time.Time
}

// Alert reports whether the overflow alert should be shown.
func (s Snapshot) Alert() bool {
	return s.Status.Status == telemetry.StatusFull || s.Status.FillPercentage > AlertThreshold
}

// Poller periodically fetches snapshots.
type Poller struct {
	fetcher  Fetcher
	deviceID string
	interval time.Duration
	logger   Logger
	now      func() time.Time

	mu   sync.RWMutex
	last Snapshot
	ok   bool
}

// NewPoller creates a poller for deviceID; an empty id follows whichever
// bin reported last.
func NewPoller(fetcher Fetcher, deviceID string) *Poller {
	return &Poller{
		fetcher:  fetcher,
		deviceID: deviceID,
		interval: PollInterval,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for failed cycles.
func (p *Poller) SetLogger(logger Logger) {
	p.logger = logger
}

// Refresh fetches status, history and registry concurrently. On any
// failure the previous snapshot is kept and returned with the error.
func (p *Poller) Refresh(ctx context.Context) (Snapshot, error) {
	var next Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		next.Status, err = p.fetcher.Status(gctx, p.deviceID)
		return err
	})
	g.Go(func() error {
		var err error
		next.History, err = p.fetcher.History(gctx, p.deviceID)
		return err
	})
	g.Go(func() error {
		var err error
		next.Devices, err = p.fetcher.Registry(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		last, _ := p.Last()
		return last, err
	}

	if next.History == nil {
		next.History = []telemetry.Reading{}
	}
	next.FetchedAt = p.now()

	p.mu.Lock()
	p.last = next
	p.ok = true
	p.mu.Unlock()

	return next, nil
}

// Last returns the most recent successful snapshot. ok is false before
// the first success.
func (p *Poller) Last() (snap Snapshot, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.ok
}

// Run refreshes immediately and then every PollInterval until ctx is
// cancelled. render receives each new snapshot; failed cycles are logged
// and skipped so the previous render stays.
func (p *Poller) Run(ctx context.Context, render func(Snapshot)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		snap, err := p.Refresh(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			p.logger.Warn("dashboard refresh failed", "error", err)
		case err == nil:
			p.logger.Debug("dashboard refreshed", "readings", len(snap.History), "devices", len(snap.Devices))
			render(snap)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
