package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/memory"
	"github.com/solarflow/solarflow/internal/models"
)

// State is one step of the request pipeline.
type State string

const (
	StateReceived          State = "RECEIVED"
	StateContextFetched    State = "CONTEXT_FETCHED"
	StateInsightsGathered  State = "INSIGHTS_GATHERED"
	StateResponseGenerated State = "RESPONSE_GENERATED"
	StatePersisted         State = "PERSISTED"
)

// Orchestrator sequences one request through the pipeline: fetch context,
// gather optional weather insights, generate a grounded response, persist
// the interaction. Transitions are strictly sequential; only the insights
// step is optional. Enrichment failures degrade, they never abort; the
// terminal PERSISTED state is always reached unless generation itself is
// impossible.
type Orchestrator struct {
	retriever *Retriever
	generator *ResponseGenerator
	weather   WeatherProvider
	insights  InsightBuilder
	store     memory.Store
	history   int
	log       zerolog.Logger
}

// OrchestratorConfig holds orchestrator tuning.
type OrchestratorConfig struct {
	MaxDocuments int
	HistoryTurns int
}

// NewOrchestrator wires the pipeline. weather and insights may be nil,
// which disables the enrichment step entirely.
func NewOrchestrator(
	retriever *Retriever,
	generator *ResponseGenerator,
	weather WeatherProvider,
	insights InsightBuilder,
	store memory.Store,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		weather:   weather,
		insights:  insights,
		store:     store,
		history:   3,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

// Process runs one request to completion. The returned error is non-nil
// only when no response could be produced at all.
func (o *Orchestrator) Process(ctx context.Context, req *Request) (*Outcome, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	outcome := &Outcome{
		State:         StateReceived,
		Trace:         []State{StateReceived},
		ContextSource: models.ContextRetrieval,
	}

	passages, err := o.retriever.FetchContext(ctx, req.Query, 0)
	if err != nil {
		// Transient collaborator failure: degrade to an ungrounded answer.
		o.log.Warn().Str("request", req.ID).Err(err).Msg("context retrieval failed, continuing without documents")
		passages = []models.Passage{}
	}
	outcome.Passages = passages
	o.transition(outcome, StateContextFetched)

	if req.Location != nil && o.weather != nil && o.insights != nil {
		if notes := o.gatherInsights(ctx, req); notes != "" {
			outcome.Notes = notes
			outcome.ContextSource = models.ContextWeatherEnhanced
			o.transition(outcome, StateInsightsGathered)
		}
	}

	history := o.recentHistory(ctx, req.UserID)

	response, err := o.generator.GenerateResponse(ctx, req.Query, passages, outcome.Notes, history)
	if err != nil {
		// Total inability to answer is the one fatal condition.
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	outcome.Response = response
	o.transition(outcome, StateResponseGenerated)

	o.persist(ctx, req, outcome, time.Since(start))
	o.transition(outcome, StatePersisted)

	return outcome, nil
}

// PersistToolOutcome records an engine-produced interaction through the
// same terminal transition the informational path uses.
func (o *Orchestrator) PersistToolOutcome(ctx context.Context, req *Request, outcome *Outcome, duration time.Duration) {
	o.persist(ctx, req, outcome, duration)
	o.transition(outcome, StatePersisted)
}

func (o *Orchestrator) transition(outcome *Outcome, next State) {
	outcome.State = next
	outcome.Trace = append(outcome.Trace, next)
}

func (o *Orchestrator) gatherInsights(ctx context.Context, req *Request) string {
	summary, err := o.weather.Forecast(ctx, req.Location.Latitude, req.Location.Longitude)
	if err != nil {
		o.log.Warn().Str("request", req.ID).Err(err).Msg("weather enrichment failed, omitting notes")
		return ""
	}
	notes, err := o.insights.Notes(summary, req.CapacityKW)
	if err != nil {
		o.log.Warn().Str("request", req.ID).Err(err).Msg("insight computation failed, omitting notes")
		return ""
	}
	return notes
}

func (o *Orchestrator) recentHistory(ctx context.Context, userID string) []models.Interaction {
	if o.store == nil || userID == "" {
		return nil
	}
	history, err := o.store.RecentInteractions(ctx, userID, o.history)
	if err != nil {
		o.log.Warn().Str("user", userID).Err(err).Msg("could not load history")
		return nil
	}
	return history
}

func (o *Orchestrator) persist(ctx context.Context, req *Request, outcome *Outcome, duration time.Duration) {
	if o.store == nil || req.UserID == "" {
		return
	}
	interaction := models.Interaction{
		ID:          req.ID,
		Query:       req.Query,
		Response:    outcome.Response,
		ToolsUsed:   outcome.ToolsUsed(),
		ContextUsed: outcome.ContextSource,
		Timestamp:   time.Now(),
		Duration:    duration.Seconds(),
	}
	if err := o.store.AddInteraction(ctx, req.UserID, interaction); err != nil {
		o.log.Error().Str("request", req.ID).Err(err).Msg("failed to persist interaction")
	}
}
