package media

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Cleaner periodically removes downloaded attachments that have outlived their
// retention period. The cache is append-only otherwise, so this is the only
// thing keeping it bounded.
type Cleaner struct {
	dir       string
	retention time.Duration
	schedule  string
	cron      *cron.Cron
}

func NewCleaner(dir, schedule string, retention time.Duration) *Cleaner {
	if schedule == "" {
		schedule = "0 0 4 * * *"
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &Cleaner{
		dir:       dir,
		retention: retention,
		schedule:  schedule,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start schedules the sweep. Invalid schedules are logged and the cleaner
// simply stays inert.
func (c *Cleaner) Start() {
	if _, err := c.cron.AddFunc(c.schedule, func() { c.Sweep(time.Now()) }); err != nil {
		slog.Warn("media cleaner schedule invalid", "schedule", c.schedule, "error", err)
		return
	}
	c.cron.Start()
	slog.Info("media cleaner started", "dir", c.dir, "schedule", c.schedule, "retention", c.retention)
}

// Stop halts the schedule. Safe to call without Start.
func (c *Cleaner) Stop() {
	c.cron.Stop()
}

// Sweep deletes cache files older than the retention period. Returns the
// number of files removed. Failures are logged and skipped.
func (c *Cleaner) Sweep(now time.Time) int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		slog.Warn("media cache sweep failed", "dir", c.dir, "error", err)
		return 0
	}
	cutoff := now.Add(-c.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("media cache remove failed", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("media cache swept", "removed", removed)
	}
	return removed
}
