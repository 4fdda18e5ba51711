// Package history persists conversations so they can be listed and reopened.
package history

import (
	"errors"
	"fmt"

	"gemchat/pkg/chat"
	"gemchat/pkg/config"
)

// ErrNotFound is returned when no conversation is stored under an id.
var ErrNotFound = errors.New("chat not found")

// Store is a chat.Store that owns resources.
type Store interface {
	chat.Store
	Close() error
}

// Open returns the store selected by cfg.History. It returns a nil Store
// when history is disabled.
func Open(cfg config.Config) (Store, error) {
	switch cfg.History.Driver {
	case config.HistoryNone:
		return nil, nil
	case config.HistoryMemory:
		return NewMemoryStore(), nil
	case config.HistorySQLite, "":
		store, err := NewSQLiteStore(cfg.HistoryPath())
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", cfg.History.Driver)
	}
}
