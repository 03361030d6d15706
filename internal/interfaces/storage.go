package interfaces

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStorage.Get for a key that was never set.
var ErrKeyNotFound = errors.New("key not found")

// StorageManager owns the persistent stores and their lifetime.
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	Close() error
}

// KeyValueStorage holds settings saved from the dashboard, such as API keys.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
