// internal/store/status.go
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// listCap bounds how many status checks a single read returns
const listCap = 1000

// StatusCheck records a client ping, used to verify the service end to end
type StatusCheck struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ClientName string    `gorm:"size:255;not null" json:"client_name"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
}

// Store wraps the sqlite database holding status checks
type Store struct {
	db *gorm.DB
}

// Open creates the data directory if needed, opens the sqlite database inside
// it, and migrates the schema.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, "speedsheet.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&StatusCheck{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateStatusCheck stores a new status check for the given client and
// returns the stored record with its generated ID and timestamp.
func (s *Store) CreateStatusCheck(clientName string) (*StatusCheck, error) {
	check := &StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.db.Create(check).Error; err != nil {
		return nil, fmt.Errorf("failed to store status check: %w", err)
	}
	return check, nil
}

// ListStatusChecks returns stored status checks in insertion order, capped at
// 1000 records.
func (s *Store) ListStatusChecks() ([]StatusCheck, error) {
	var checks []StatusCheck
	if err := s.db.Order("timestamp").Limit(listCap).Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("failed to list status checks: %w", err)
	}
	return checks, nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
