package store

import (
	"fmt"
	"sync"
)

// The process-wide store handle. The application opens one store per
// deployment, lazily, and reuses it for the process lifetime; concurrent
// first callers must not race to open it twice.
var shared struct {
	mu   sync.Mutex
	path string
	st   *Store
}

// Configure sets the database path the shared handle will open. Must be
// called before the first Shared call; calling it after the store has been
// opened has no effect until Shutdown.
func Configure(path string) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	shared.path = path
}

// Shared returns the process-wide store, opening (and migrating) it on
// first use. Subsequent calls return the same handle.
func Shared() (*Store, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.st != nil {
		return shared.st, nil
	}
	if shared.path == "" {
		return nil, fmt.Errorf("shared store: no database path configured")
	}

	st, err := Open(shared.path)
	if err != nil {
		return nil, err
	}
	shared.st = st
	return st, nil
}

// Shutdown closes the shared store, if open, and resets the handle so a
// later Shared call reopens it.
func Shutdown() error {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.st == nil {
		return nil
	}
	err := shared.st.Close()
	shared.st = nil
	return err
}
