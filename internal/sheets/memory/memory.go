package memory

import (
	"context"
	"errors"
	"sync"

	"svend/internal/core"
)

// Exporter keeps exported bundles in memory. It backs local development
// and tests where no spreadsheet is available.
type Exporter struct {
	mu      sync.Mutex
	bundles []*core.Bundle
}

func New() *Exporter {
	return &Exporter{}
}

// Export stores the bundle.
func (e *Exporter) Export(_ context.Context, bundle *core.Bundle) error {
	if bundle == nil {
		return errors.New("nil bundle")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bundles = append(e.bundles, bundle)
	return nil
}

// Latest returns the most recently exported bundle, nil when nothing
// has been exported yet.
func (e *Exporter) Latest() *core.Bundle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.bundles) == 0 {
		return nil
	}
	return e.bundles[len(e.bundles)-1]
}

// Count returns how many exports have happened.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bundles)
}
