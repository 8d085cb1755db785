// Package sql stores checkpoints in a relational database through gorm.
package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// record is the row layout of the checkpoints table.
type record struct {
	SessionID   string                   `gorm:"primaryKey;size:128"`
	PendingNode string                   `gorm:"size:64"`
	Steps       int
	State       domain.ConversationState `gorm:"serializer:json"`
	UpdatedAt   time.Time                `gorm:"index"`
	Sealed      []byte
}

func (record) TableName() string {
	return "checkpoints"
}

// Store implements ports.CheckpointStore on gorm.
type Store struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database at dsn, e.g. "squadchat.db" or ":memory:".
func OpenSQLite(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", dsn, err)
	}
	return New(db)
}

// New wraps an open gorm connection and migrates the checkpoints table.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate checkpoints table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the checkpoint row.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	row := record{
		SessionID:   cp.SessionID,
		PendingNode: string(cp.PendingNode),
		Steps:       cp.Steps,
		State:       cp.State.Clone(),
		UpdatedAt:   cp.UpdatedAt,
		Sealed:      cp.Sealed,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load returns the checkpoint or domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	var row record
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return &domain.Checkpoint{
		SessionID:   row.SessionID,
		State:       row.State,
		PendingNode: domain.NodeID(row.PendingNode),
		Steps:       row.Steps,
		UpdatedAt:   row.UpdatedAt.UTC(),
		Sealed:      row.Sealed,
	}, nil
}

// Delete removes the row. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&record{}).Error; err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns session ids, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&record{}).Order("updated_at DESC").Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return ids, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
