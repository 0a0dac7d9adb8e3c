// Package indexstore persists loaded run records so they can be served
// without re-reading report files.
package indexstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ethpandaops/txreports/pkg/config"
)

// Store provides persistence for indexed run records.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// ReplaceSnapshot atomically replaces every run stored for snap.Dir.
	ReplaceSnapshot(ctx context.Context, snap *Snapshot, runs []*Run) error
	// GetSnapshot returns nil, nil when dir has never been indexed.
	GetSnapshot(ctx context.Context, dir string) (*Snapshot, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	ListRuns(ctx context.Context, dir string, filter RunFilter) ([]Run, error)
	ListAllRuns(ctx context.Context) ([]Run, error)
}

// RunFilter narrows ListRuns. Empty fields match everything.
type RunFilter struct {
	WorkloadName  string
	ClientVersion string
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.APIDatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new index Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.APIDatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "indexstore"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}

	s.db = db

	if s.cfg.Driver == "sqlite" {
		// One connection so ":memory:" databases are shared and writes
		// never hit SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying db: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Snapshot{},
		&Run{},
	); err != nil {
		return fmt.Errorf("running index migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Index database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

const batchSize = 100

func (s *store) ReplaceSnapshot(ctx context.Context, snap *Snapshot, runs []*Run) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dir = ?", snap.Dir).Delete(&Run{}).Error; err != nil {
			return fmt.Errorf("deleting runs: %w", err)
		}

		if len(runs) > 0 {
			for _, r := range runs {
				r.ID = 0
				r.Dir = snap.Dir
			}

			if err := tx.CreateInBatches(runs, batchSize).Error; err != nil {
				return fmt.Errorf("inserting runs: %w", err)
			}
		}

		var existing Snapshot

		err := tx.Where("dir = ?", snap.Dir).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			snap.ID = 0
			if err := tx.Create(snap).Error; err != nil {
				return fmt.Errorf("creating snapshot: %w", err)
			}
		case err != nil:
			return fmt.Errorf("reading snapshot: %w", err)
		default:
			snap.ID = existing.ID
			if err := tx.Save(snap).Error; err != nil {
				return fmt.Errorf("updating snapshot: %w", err)
			}
		}

		return nil
	})
}

func (s *store) GetSnapshot(ctx context.Context, dir string) (*Snapshot, error) {
	var snap Snapshot

	err := s.db.WithContext(ctx).Where("dir = ?", dir).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}

	return &snap, nil
}

func (s *store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	var snaps []Snapshot
	if err := s.db.WithContext(ctx).
		Order("dir ASC").
		Find(&snaps).Error; err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	return snaps, nil
}

// ListRuns returns the runs of dir, newest first.
func (s *store) ListRuns(ctx context.Context, dir string, filter RunFilter) ([]Run, error) {
	q := s.db.WithContext(ctx).Where("dir = ?", dir)

	if filter.WorkloadName != "" {
		q = q.Where("workload_name = ?", filter.WorkloadName)
	}

	if filter.ClientVersion != "" {
		q = q.Where("client_version = ?", filter.ClientVersion)
	}

	var runs []Run
	if err := q.Order("started_at DESC").Order("source ASC").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	return runs, nil
}

// ListAllRuns returns all runs across all directories.
func (s *store) ListAllRuns(ctx context.Context) ([]Run, error) {
	var runs []Run
	if err := s.db.WithContext(ctx).
		Order("started_at DESC").Order("source ASC").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing all runs: %w", err)
	}

	return runs, nil
}
