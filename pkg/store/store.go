// Package store persists recording run history in a local SQLite database.
//
// Every `memscope record` invocation is saved with its trend summary so past
// runs can be listed and compared without re-reading the CSVs. The database
// lives in the XDG data directory (~/.local/share/memscope/runs.db).
package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/trend"
)

// appName is used for the XDG data directory.
const appName = "memscope"

// Run is one recorded benchmark invocation.
type Run struct {
	ID          string    `gorm:"primaryKey"`
	Label       string    `gorm:"index"`
	Command     string    // command line of the observed process, empty for --self
	CSVPath     string    // where the recording was written
	StartedAt   time.Time `gorm:"index"`
	FinishedAt  time.Time
	SampleCount int

	// Trend summary, denormalized for listing without re-analysis.
	EndRSSMB        float64
	EndHeapMB       float64
	SlopeKBPerMin   float64
	RSquared        float64
	LeakDetected    bool
	LeakDescription string
}

// Duration returns the wall-clock length of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ApplyReport copies the trend summary fields from a report.
func (r *Run) ApplyReport(rep trend.Report) {
	r.SampleCount = rep.SampleCount
	r.EndRSSMB = rep.EndRSSMB
	r.EndHeapMB = rep.EndHeapMB
	r.SlopeKBPerMin = rep.SlopeKBPerMin
	r.RSquared = rep.RSquared
	r.LeakDetected = rep.LeakDetected
	r.LeakDescription = rep.LeakDescription
}

// Store provides run history access.
type Store interface {
	Save(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, idPrefix string) (*Run, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

type sqliteStore struct {
	db *gorm.DB
}

// Open opens (and migrates) the run database at path.
// An empty path uses the default location under the XDG data directory.
func Open(path string) (Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "resolve data dir")
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create data dir")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open %s", path)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "migrate %s", path)
	}
	return &sqliteStore{db: db}, nil
}

// NewRunID generates a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Save inserts or updates a run.
func (s *sqliteStore) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save run %s", run.ID)
	}
	return nil
}

// List returns runs newest first, up to limit (0 = no limit).
func (s *sqliteStore) List(ctx context.Context, limit int) ([]Run, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list runs")
	}
	return runs, nil
}

// Get returns the run whose ID starts with idPrefix.
// Ambiguous prefixes are an error so callers never act on the wrong run.
func (s *sqliteStore) Get(ctx context.Context, idPrefix string) (*Run, error) {
	if idPrefix == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty run id")
	}
	if strings.ContainsAny(idPrefix, "%_\\") {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid run id %q", idPrefix)
	}
	var runs []Run
	err := s.db.WithContext(ctx).
		Where("id LIKE ?", idPrefix+"%").
		Limit(2).
		Find(&runs).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get run %s", idPrefix)
	}
	switch len(runs) {
	case 0:
		return nil, errors.New(errors.ErrCodeRunNotFound, "no run matching %q", idPrefix)
	case 1:
		return &runs[0], nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "ambiguous run id %q", idPrefix)
	}
}

// Prune deletes all but the newest keep runs and returns the deleted count.
func (s *sqliteStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "keep must be >= 0")
	}

	var res *gorm.DB
	if keep == 0 {
		res = s.db.WithContext(ctx).Where("1 = 1").Delete(&Run{})
	} else {
		var keepIDs []string
		err := s.db.WithContext(ctx).Model(&Run{}).
			Order("started_at DESC").
			Limit(keep).
			Pluck("id", &keepIDs).Error
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeStore, err, "prune runs")
		}
		res = s.db.WithContext(ctx).Delete(&Run{}, "id NOT IN ?", keepIDs)
	}
	if res.Error != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, res.Error, "prune runs")
	}
	return res.RowsAffected, nil
}

// Close closes the underlying database.
func (s *sqliteStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// DefaultPath returns the database path using the XDG standard
// (~/.local/share/memscope/runs.db).
func DefaultPath() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "runs.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "runs.db"), nil
}
