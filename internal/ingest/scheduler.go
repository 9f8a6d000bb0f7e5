// Package ingest drives the periodic fetch-aggregate-merge cycle against the
// EnergyBuddy portal.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lcrivelli/energybuddy/internal/aggregate"
	"github.com/lcrivelli/energybuddy/internal/metrics"
	"github.com/lcrivelli/energybuddy/internal/models"
	"github.com/lcrivelli/energybuddy/internal/portal"
	"github.com/lcrivelli/energybuddy/internal/stats"
	"github.com/lcrivelli/energybuddy/internal/store"
)

// UpdateError wraps any non-auth cycle failure. The host treats it as
// "retry next cycle"; the previous watermark is untouched.
type UpdateError struct {
	Err error
}

func (e *UpdateError) Error() string { return fmt.Sprintf("update cycle: %v", e.Err) }
func (e *UpdateError) Unwrap() error { return e.Err }

// Config is the scheduler's runtime configuration.
type Config struct {
	UpdateInterval  time.Duration // how often RunCycle fires
	FetchWindowDays int           // lookback window of a regular cycle
	BackfillDays    int           // historical window walked on first run
	ChunkDays       int           // chunk size of the backfill walk
}

func DefaultConfig() Config {
	return Config{
		UpdateInterval:  time.Hour,
		FetchWindowDays: 5,
		BackfillDays:    90,
		ChunkDays:       4,
	}
}

// Scheduler owns one update pipeline: portal client, aggregator, statistics
// store. All collaborators are injected; there is no ambient registry. Cycles
// run strictly sequentially, so no locking is needed.
type Scheduler struct {
	store  *store.Store
	client *portal.Client
	agg    *aggregate.Aggregator
	cfg    Config
	now    func() time.Time

	mu            sync.RWMutex // guards latest against HTTP handler reads
	latest        *models.ConsumptionSummary
	lastCommitted int
}

func NewScheduler(st *store.Store, client *portal.Client, agg *aggregate.Aggregator, cfg Config) *Scheduler {
	return &Scheduler{
		store:  st,
		client: client,
		agg:    agg,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Latest returns the most recent closed-hour reading seen by a cycle, or nil
// before the first successful cycle. Safe to call from other goroutines while
// the scheduler runs.
func (s *Scheduler) Latest() *models.ConsumptionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Scheduler) setLatest(summary *models.ConsumptionSummary) {
	s.mu.Lock()
	s.latest = summary
	s.mu.Unlock()
}

// Run performs an immediate first cycle (backfilling history when the store
// is empty), then repeats at the configured interval until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.cycle(ctx)

	ticker := time.NewTicker(s.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	runID, err := s.store.StartUpdateRun(s.now())
	if err != nil {
		log.Printf("scheduler: start update run: %v", err)
	}

	summary, cycleErr := s.RunCycle(ctx)

	outcome := "success"
	committed := s.lastCommitted
	errMsg := ""
	if cycleErr != nil {
		errMsg = cycleErr.Error()
		var authErr *portal.AuthError
		if errors.As(cycleErr, &authErr) {
			outcome = "auth_failure"
			log.Printf("scheduler: authentication failed, reconfiguration required: %v", cycleErr)
		} else {
			outcome = "failure"
			log.Printf("scheduler: cycle failed: %v", cycleErr)
		}
	} else if summary != nil {
		log.Printf("scheduler: latest closed hour %s: day %.3f, night %.3f kWh",
			summary.HourStart.Format("2006-01-02 15:04"), summary.Day, summary.Night)
	}
	metrics.CyclesTotal.WithLabelValues(outcome).Inc()

	if runID != 0 {
		if err := s.store.CompleteUpdateRun(runID, outcome, committed, errMsg); err != nil {
			log.Printf("scheduler: complete update run: %v", err)
		}
	}
}

// RunCycle executes one full update: login, fetch the recent window,
// aggregate, and merge every tracked series. On first run (no series has any
// data) it backfills the historical window instead. It returns the latest
// complete reading, or nil when the portal returned nothing usable.
//
// *portal.AuthError passes through unwrapped so the host can distinguish bad
// credentials from transient failures; everything else is wrapped in
// *UpdateError.
func (s *Scheduler) RunCycle(ctx context.Context) (*models.ConsumptionSummary, error) {
	s.lastCommitted = 0

	// Sessions are short-lived; re-authenticate every cycle.
	if err := s.client.Login(ctx); err != nil {
		var authErr *portal.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &UpdateError{Err: err}
	}

	empty, err := s.seriesEmpty()
	if err != nil {
		return nil, &UpdateError{Err: err}
	}
	if empty {
		log.Printf("scheduler: no existing series, backfilling %d days", s.cfg.BackfillDays)
		if err := s.Backfill(ctx); err != nil {
			var authErr *portal.AuthError
			if errors.As(err, &authErr) {
				return nil, err
			}
			return nil, &UpdateError{Err: err}
		}
	}

	now := s.now()
	from := now.AddDate(0, 0, -s.cfg.FetchWindowDays)

	readings, err := s.client.FetchReadings(ctx, from, now)
	if err != nil {
		return nil, &UpdateError{Err: err}
	}
	if len(readings) == 0 {
		log.Println("scheduler: no consumption data received from portal")
		return nil, nil
	}

	buckets := aggregate.Complete(s.agg.Aggregate(readings))
	if err := s.mergeAll(buckets); err != nil {
		return nil, &UpdateError{Err: err}
	}

	if latest := aggregate.Latest(buckets); latest != nil {
		summary := &models.ConsumptionSummary{
			Day:       latest.DayTotal,
			Night:     latest.NightTotal,
			Total:     latest.Total(),
			HourStart: latest.HourStart,
			HourEnd:   latest.HourEnd(),
			FetchedAt: now,
		}
		s.setLatest(summary)
		return summary, nil
	}
	return s.Latest(), nil
}

// seriesEmpty reports whether none of the tracked series has a committed
// point, the first-run signal that triggers a backfill.
func (s *Scheduler) seriesEmpty() (bool, error) {
	for _, kind := range models.Kinds {
		last, err := s.store.LastPoint(kind.SeriesID())
		if err != nil {
			return false, fmt.Errorf("last point %s: %w", kind.SeriesID(), err)
		}
		if last != nil {
			return false, nil
		}
	}
	return true, nil
}

// mergeAll merges every tracked series and accumulates the committed count
// into lastCommitted, which RunCycle resets at the start of each cycle.
func (s *Scheduler) mergeAll(buckets map[time.Time]*models.HourlyBucket) error {
	for _, kind := range models.Kinds {
		n, err := stats.Merge(s.store, kind, buckets)
		if err != nil {
			return fmt.Errorf("merge %s: %w", kind, err)
		}
		if n > 0 {
			s.lastCommitted += n
			metrics.PointsCommitted.WithLabelValues(kind.String()).Add(float64(n))
			log.Printf("scheduler: committed %d points to %s", n, kind.SeriesID())
		}
	}
	return nil
}

// Backfill walks the historical window in bounded chunks, combining hourly
// buckets across all chunks before a single merge pass per series. A failed
// chunk is logged and skipped; partial history is preferable to none.
func (s *Scheduler) Backfill(ctx context.Context) error {
	now := s.now()
	start := now.AddDate(0, 0, -s.cfg.BackfillDays)
	chunk := time.Duration(s.cfg.ChunkDays) * 24 * time.Hour

	combined := make(map[time.Time]*models.HourlyBucket)

	for from := start; from.Before(now); from = from.Add(chunk) {
		to := from.Add(chunk)
		if to.After(now) {
			to = now
		}

		readings, err := s.client.FetchReadings(ctx, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.BackfillChunks.WithLabelValues("failed").Inc()
			log.Printf("scheduler: backfill chunk %s -> %s failed, skipping: %v",
				from.Format("2006-01-02"), to.Format("2006-01-02"), err)
			continue
		}
		metrics.BackfillChunks.WithLabelValues("ok").Inc()

		for hour, b := range aggregate.Complete(s.agg.Aggregate(readings)) {
			// Overlapping chunk edges can return the same closed hour twice;
			// keep the first copy.
			if _, ok := combined[hour]; ok {
				continue
			}
			combined[hour] = b
		}
	}

	log.Printf("scheduler: backfill aggregated %d complete hours", len(combined))
	return s.mergeAll(combined)
}
