package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/gmsas95/medreminder/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store owns the SQLite connection and the preferences KV
type Store struct {
	db     *gorm.DB
	badger *badger.DB
}

// New opens both databases under the configured storage paths
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "medication_manager.db")
	}

	db, err := OpenSQLite(sqlitePath)
	if err != nil {
		return nil, err
	}

	badgerPath := cfg.Storage.BadgerPath
	if badgerPath == "" {
		badgerPath = filepath.Join(cfg.Storage.DataDir, "prefs")
	}
	if err := os.MkdirAll(badgerPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create prefs directory: %w", err)
	}

	kv, err := OpenBadger(badger.DefaultOptions(badgerPath))
	if err != nil {
		closeSQL(db)
		return nil, err
	}

	return &Store{db: db, badger: kv}, nil
}

// NewInMemory is used by tests and the one-shot CLI dry runs
func NewInMemory() (*Store, error) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	kv, err := OpenBadger(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		closeSQL(db)
		return nil, err
	}
	return &Store{db: db, badger: kv}, nil
}

// OpenSQLite opens a single-connection SQLite database with foreign keys on.
// One connection means every statement runs in submission order, and an
// in-memory database survives for the lifetime of the pool.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	sqliteDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// OpenBadger opens the preferences KV with quiet, small-footprint options
func OpenBadger(opts badger.Options) (*badger.DB, error) {
	opts = opts.
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)

	kv, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return kv, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	var errs []error
	if s.badger != nil {
		errs = append(errs, s.badger.Close())
	}
	if s.db != nil {
		errs = append(errs, closeSQL(s.db))
	}
	return errors.Join(errs...)
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

func closeSQL(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== KV Methods (BadgerDB) ====================

// ErrKeyNotFound is returned by GetKV when the key is absent
var ErrKeyNotFound = badger.ErrKeyNotFound

// SetKV stores a key-value pair
func (s *Store) SetKV(key string, value []byte) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
}

// GetKV retrieves a value by key
func (s *Store) GetKV(key string) ([]byte, error) {
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("kv:" + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	return val, err
}

// GetString returns the stored string or fallback when the key is unset
func (s *Store) GetString(key, fallback string) (string, error) {
	val, err := s.GetKV(key)
	if errors.Is(err, ErrKeyNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return string(val), nil
}

// SetString stores a trimmed string value
func (s *Store) SetString(key, value string) error {
	return s.SetKV(key, []byte(strings.TrimSpace(value)))
}
