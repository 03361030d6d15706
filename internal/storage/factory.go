// Package storage opens the persistent stores named in configuration.
package storage

import (
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/storage/badger"
)

// NewStorageManager opens the Badger settings store at cfg.Storage.Badger.Path.
func NewStorageManager(logger *common.Logger, cfg *config.Config) (interfaces.StorageManager, error) {
	return badger.Open(logger, cfg.Storage.Badger)
}
