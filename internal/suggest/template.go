package suggest

import (
	"context"
	"strings"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
)

// TemplateSuggester is the deterministic fallback used when no generative
// backend is configured. It appends a change note to the existing
// description so operators still get a reviewable candidate.
type TemplateSuggester struct{}

// NewTemplateSuggester creates the fallback suggester
func NewTemplateSuggester() *TemplateSuggester {
	return &TemplateSuggester{}
}

// Suggest renders a deterministic candidate description
func (s *TemplateSuggester) Suggest(_ context.Context, t *tool.Tool, diffSlice []integration.FieldChange) (string, error) {
	notes := make([]string, 0, len(diffSlice))
	for _, c := range diffSlice {
		notes = append(notes, c.String())
	}

	base := strings.TrimSpace(t.Description)
	if base == "" {
		base = t.Name
	}
	return base + " (schema updated: " + strings.Join(notes, "; ") + ")", nil
}
