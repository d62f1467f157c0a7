package suggest

import (
	"context"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
)

// Suggester produces a candidate human-readable description for a tool whose
// underlying schema changed. It is an injected capability so the proposal
// engine can be tested without a text generator; a failure for one tool never
// aborts proposal generation.
type Suggester interface {
	Suggest(ctx context.Context, t *tool.Tool, diffSlice []integration.FieldChange) (string, error)
}
