package agent

import (
	"context"

	"github.com/solarflow/solarflow/internal/models"
)

// ModelClient is the external model collaborator contract. Both the bare
// inference client and the worker pool satisfy it.
type ModelClient interface {
	Text(ctx context.Context, prompt string) (string, error)
}

// ContextSearcher is the external vector-store collaborator contract.
type ContextSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]models.Passage, error)
}

// WeatherProvider is the external weather collaborator contract.
type WeatherProvider interface {
	Forecast(ctx context.Context, lat, lon float64) (*models.WeatherSummary, error)
}

// InsightBuilder turns a weather summary into side-channel notes.
type InsightBuilder interface {
	Notes(summary *models.WeatherSummary, capacityKW float64) (string, error)
}

// Request is one user query entering the pipeline.
type Request struct {
	ID         string
	UserID     string
	Query      string
	Location   *models.Location // nil skips weather enrichment
	CapacityKW float64          // 0 uses the registry default
	Authorized bool             // caller-granted tool authorization
}

// Outcome is the result of processing one request.
type Outcome struct {
	Response      string
	Notes         string
	Passages      []models.Passage
	ToolCalls     []models.ToolCall
	ContextSource string
	State         State
	Trace         []State
}

// ToolsUsed returns the names of tools that were dispatched for this
// outcome, in call order.
func (o *Outcome) ToolsUsed() []string {
	if len(o.ToolCalls) == 0 {
		return nil
	}
	names := make([]string, len(o.ToolCalls))
	for i, call := range o.ToolCalls {
		names[i] = call.Name
	}
	return names
}
