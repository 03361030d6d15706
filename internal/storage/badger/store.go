// Package badger keeps dashboard settings in an embedded BadgerDB via badgerhold.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
)

// setting is one saved value. badgerhold indexes it by Name.
type setting struct {
	Name      string `badgerhold:"key"`
	Value     string
	UpdatedAt time.Time
}

// Store is a settings store on a single badgerhold database.
type Store struct {
	db     *badgerhold.Store
	dir    string
	logger *common.Logger
}

var (
	_ interfaces.StorageManager  = (*Store)(nil)
	_ interfaces.KeyValueStorage = (*Store)(nil)
)

// Open creates cfg.Path if needed and opens the database in it.
func Open(logger *common.Logger, cfg config.BadgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("storage.badger.path is empty")
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", cfg.Path, err)
	}

	opts := badgerhold.DefaultOptions
	opts.Dir = cfg.Path
	opts.ValueDir = cfg.Path
	opts.Logger = nil

	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}
	logger.Debug().Str("path", cfg.Path).Msg("settings store opened")
	return &Store{db: db, dir: cfg.Path, logger: logger}, nil
}

// KeyValueStorage returns s; one database holds every setting.
func (s *Store) KeyValueStorage() interfaces.KeyValueStorage { return s }

// Get returns the value saved under key, or interfaces.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	var rec setting
	err := s.db.Get(key, &rec)
	switch {
	case errors.Is(err, badgerhold.ErrNotFound):
		return "", fmt.Errorf("%w: %s", interfaces.ErrKeyNotFound, key)
	case err != nil:
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return rec.Value, nil
}

// Set saves value under key, replacing what was there.
func (s *Store) Set(_ context.Context, key, value string) error {
	rec := setting{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	if err := s.db.Upsert(key, &rec); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("setting saved")
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.db.Delete(key, setting{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("setting removed")
	return nil
}

// GetAll returns every saved setting.
func (s *Store) GetAll(_ context.Context) (map[string]string, error) {
	var recs []setting
	if err := s.db.Find(&recs, nil); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make(map[string]string, len(recs))
	for _, r := range recs {
		out[r.Name] = r.Value
	}
	return out, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug().Str("path", s.dir).Msg("settings store closing")
	return s.db.Close()
}
