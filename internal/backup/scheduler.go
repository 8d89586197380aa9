// Package backup takes scheduled essay exports into the blob store and prunes
// old ones.
package backup

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"essaycore/internal/blob"
	"essaycore/internal/core"
	"essaycore/pkg/domain"
)

// KeyPrefix is where backups are written, relative to the service prefix.
const KeyPrefix = "backups/"

// Key names the backup taken on the day of now. Keys sort by date.
func Key(now time.Time) string {
	return KeyPrefix + "essays-" + now.Format(domain.DateLayout) + ".json"
}

// DefaultSchedule runs daily at 02:00 (seconds precision).
const DefaultSchedule = "0 0 2 * * *"

// Source is the service surface a scheduler needs.
type Source interface {
	ExportEssaysToBlob(ctx context.Context, key string) (blob.Info, error)
	BlobStore() blob.Store
	BlobPrefix() string
}

// Config controls when backups run and how many are kept.
type Config struct {
	// Schedule is a six-field cron spec. Empty selects DefaultSchedule.
	Schedule string
	// Retain is the number of newest backups kept. Zero or less keeps all.
	Retain int
	Logger core.Logger
	Clock  core.Clock
}

// Scheduler runs backups on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	source Source
	retain int
	logger core.Logger
	clock  core.Clock
	mu     sync.Mutex
}

// New registers the backup job. The scheduler is idle until Start.
func New(source Source, cfg Config) (*Scheduler, error) {
	if source.BlobStore() == nil {
		return nil, core.ErrNoBlobStore
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		source: source,
		retain: cfg.Retain,
		logger: cfg.Logger,
		clock:  cfg.Clock,
	}
	if s.logger == nil {
		s.logger = discardLogger{}
	}
	if s.clock == nil {
		s.clock = core.ClockFunc(func() time.Time { return time.Now().UTC() })
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, errors.Wrapf(err, "backup schedule %q", schedule)
	}
	return s, nil
}

// Start begins running scheduled backups.
func (s *Scheduler) Start() {
	s.logger.Info("backup scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("backup scheduler stopped")
}

// Next reports when the job runs next. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.logger.Error("backup failed", "error", err)
	}
}

// RunOnce writes today's backup, replacing an earlier one from the same
// day, then prunes beyond the retention count.
func (s *Scheduler) RunOnce(ctx context.Context) (blob.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(s.clock.Now())
	info, err := s.source.ExportEssaysToBlob(ctx, key)
	if err != nil {
		return blob.Info{}, err
	}
	removed, err := s.prune(ctx)
	if err != nil {
		return info, err
	}
	s.logger.Info("backup written", "key", info.Key, "size", info.Size, "pruned", removed)
	return info, nil
}

// prune deletes all but the newest retain backups. Backup keys embed the
// date, so key order is age order.
func (s *Scheduler) prune(ctx context.Context) (int, error) {
	if s.retain <= 0 {
		return 0, nil
	}
	store := s.source.BlobStore()
	prefix := s.source.BlobPrefix() + KeyPrefix
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return 0, errors.Wrap(err, "list backups")
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if strings.HasSuffix(info.Key, ".json") {
			keys = append(keys, info.Key)
		}
	}
	sort.Strings(keys)
	removed := 0
	for len(keys)-removed > s.retain {
		if _, err := store.Delete(ctx, keys[removed]); err != nil {
			return removed, errors.Wrapf(err, "delete %s", keys[removed])
		}
		removed++
	}
	return removed, nil
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
