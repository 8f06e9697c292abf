// Package storage persists research run records in SQLite through gorm.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ output.RunRepository = (*RunStore)(nil)

type runRecord struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Query      string    `gorm:"type:text;not null"`
	Status     string    `gorm:"size:16;index;not null"`
	ReportPath string    `gorm:"size:1024"`
	Error      string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (runRecord) TableName() string { return "research_runs" }

func toRecord(run *entity.ResearchRun) runRecord {
	return runRecord{
		ID:         run.ID,
		Query:      run.Query,
		Status:     string(run.Status),
		ReportPath: run.ReportPath,
		Error:      run.Error,
		CreatedAt:  run.CreatedAt,
		UpdatedAt:  run.UpdatedAt,
	}
}

func (r runRecord) toEntity() entity.ResearchRun {
	return entity.ResearchRun{
		ID:         r.ID,
		Query:      r.Query,
		Status:     entity.TaskStatus(r.Status),
		ReportPath: r.ReportPath,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type RunStore struct {
	db     *gorm.DB
	logger output.LoggerPort
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema. Use ":memory:" for a throwaway store.
func Open(path string, logger output.LoggerPort) (*RunStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" databases shared.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&runRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate run store: %w", err)
	}

	return &RunStore{db: db, logger: logger}, nil
}

func (s *RunStore) Create(ctx context.Context, run *entity.ResearchRun) error {
	rec := toRecord(run)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		s.logger.Error("Failed to create run", "run_id", run.ID, "error", err)
		return err
	}
	run.CreatedAt = rec.CreatedAt
	run.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *RunStore) Update(ctx context.Context, run *entity.ResearchRun) error {
	rec := toRecord(run)
	res := s.db.WithContext(ctx).
		Model(&runRecord{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":      rec.Status,
			"report_path": rec.ReportPath,
			"error":       rec.Error,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		s.logger.Error("Failed to update run", "run_id", run.ID, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return output.ErrRunNotFound
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id string) (*entity.ResearchRun, error) {
	var rec runRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, output.ErrRunNotFound
		}
		return nil, err
	}
	run := rec.toEntity()
	return &run, nil
}

// List returns the newest runs first. A non-positive limit returns all.
func (s *RunStore) List(ctx context.Context, limit int) ([]entity.ResearchRun, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []runRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}

	runs := make([]entity.ResearchRun, 0, len(recs))
	for _, r := range recs {
		runs = append(runs, r.toEntity())
	}
	return runs, nil
}

func (s *RunStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
