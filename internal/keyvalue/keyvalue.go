// Package keyvalue provides the device-storage collaborator the caches
// persist their serializable state to.
package keyvalue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Persistence stores opaque JSON values by key. Load returns (nil, nil)
// when the key has never been saved.
type Persistence interface {
	Save(key string, value []byte) error
	Load(key string) ([]byte, error)
}

type entry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

// SQLite is a Persistence backed by a local SQLite file.
type SQLite struct {
	db *gorm.DB
}

// Open opens (and migrates) the key-value database.
func Open(dsn string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: gormLogger{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}

	if err := db.AutoMigrate(entry{}); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(key string, value []byte) error {
	e := entry{Key: key, Value: value}
	err := s.db.Save(&e).Error
	if err != nil {
		return fmt.Errorf("saving %q failed: %w", key, err)
	}
	return nil
}

func (s *SQLite) Load(key string) ([]byte, error) {
	var e entry
	err := s.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %q failed: %w", key, err)
	}
	return e.Value, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Memory is an in-memory Persistence for tests.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Save(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	m.values[key] = copied
	return nil
}

func (m *Memory) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return value, nil
}
