// Package history keeps a local index of completed compilations in SQLite:
// one row per build, queryable from the CLI. The index is informational;
// cache decisions are made from the fingerprint file in the build
// directory, never from here.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build is one recorded compilation.
type Build struct {
	ID          uint   `gorm:"primarykey"`
	OutputDir   string `gorm:"index"`
	Fingerprint string `gorm:"index"`
	Seed        int64
	Missions    int
	Variants    int
	Spawns      int
	CacheHit    bool
	Duration    time.Duration
	CreatedAt   time.Time
}

// Store wraps the SQLite index.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the index at the given path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening history db %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Build{}); err != nil {
		return nil, fmt.Errorf("error migrating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores one completed build.
func (s *Store) Record(ctx context.Context, b *Build) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("error recording build: %w", err)
	}
	return nil
}

// Recent returns the most recent builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Build, error) {
	var builds []Build
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&builds).Error
	if err != nil {
		return nil, fmt.Errorf("error querying builds: %w", err)
	}
	return builds, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
