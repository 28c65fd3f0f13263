package ledger

import (
	"sync"

	"github.com/Asabi89/ken/database"
)

var (
	defaultOnce     sync.Once
	defaultEngine   *Engine
	defaultRegistry *Registry
)

func initDefaults() {
	defaultEngine = NewEngine(database.DB, DefaultConfig())
	defaultRegistry = NewRegistry(database.DB)
}

// Default returns the process-wide engine bound to the shared DB handle.
func Default() *Engine {
	defaultOnce.Do(initDefaults)
	return defaultEngine
}

// DefaultRegistry returns the process-wide task registry.
func DefaultRegistry() *Registry {
	defaultOnce.Do(initDefaults)
	return defaultRegistry
}
