package factory

import (
	"fmt"
	"sync"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/storage/record"
)

// Factory builds a record store for the provided records config.
type Factory func(*config.Records) (record.RecordStore, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds or replaces a record store factory for the given strategy name.
func Register(strategy string, factory Factory) {
	mu.Lock()
	registry[strategy] = factory
	mu.Unlock()
}

// Get retrieves a factory for the given strategy.
func Get(strategy string) (Factory, bool) {
	mu.RLock()
	f, ok := registry[strategy]
	mu.RUnlock()
	return f, ok
}

// Create builds a record store using the registered factory for the configured strategy.
func Create(cfg *config.Records) (record.RecordStore, error) {
	f, ok := Get(cfg.Strategy)
	if !ok {
		return nil, fmt.Errorf("unknown record strategy %q", cfg.Strategy)
	}
	return f(cfg)
}

func init() {
	Register("memory", func(cfg *config.Records) (record.RecordStore, error) {
		return record.NewMemoryRecordStore(), nil
	})
	Register("mongo", func(cfg *config.Records) (record.RecordStore, error) {
		return record.NewMongoRecordStore(cfg.Mongo)
	})
	Register("sql", func(cfg *config.Records) (record.RecordStore, error) {
		return record.NewSQLRecordStore(cfg.SQL)
	})
	Register("d1", func(cfg *config.Records) (record.RecordStore, error) {
		return record.NewD1RecordStore(cfg.D1)
	})
}
