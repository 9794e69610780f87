package sheets

import (
	"context"

	"svend/internal/core"
)

// Ports for outbound adapters.
type (
	// PlanExporter pushes a computed recommendation bundle to an external
	// surface, one sheet per scenario. Implementations must tolerate being
	// called repeatedly with successive bundles.
	PlanExporter interface {
		Export(ctx context.Context, bundle *core.Bundle) error
	}
)
