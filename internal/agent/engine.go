package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/models"
	"github.com/solarflow/solarflow/internal/tools"
)

// Engine is the tool-decision layer above the orchestrator. For queries
// that may require action it asks the model whether to invoke tools, parses
// the decision for tool calls, dispatches them, and folds the outcomes back
// into the final answer. Queries with no recognizable tool invocation fall
// through to the orchestrator's context+generation path.
type Engine struct {
	model        ModelClient
	registry     *tools.Registry
	orchestrator *Orchestrator
	cache        *decisionCache
	log          zerolog.Logger
}

// EngineConfig holds engine tuning.
type EngineConfig struct {
	DecisionCacheTTL time.Duration
}

// NewEngine creates the tool-decision engine.
func NewEngine(model ModelClient, registry *tools.Registry, orchestrator *Orchestrator, config *EngineConfig, log zerolog.Logger) *Engine {
	ttl := 5 * time.Minute
	if config != nil && config.DecisionCacheTTL > 0 {
		ttl = config.DecisionCacheTTL
	}
	return &Engine{
		model:        model,
		registry:     registry,
		orchestrator: orchestrator,
		cache:        newDecisionCache(ttl),
		log:          log.With().Str("component", "engine").Logger(),
	}
}

// Handle processes one request: informational queries route through the
// orchestrator; action-oriented queries go through the tool decision.
func (e *Engine) Handle(ctx context.Context, req *Request) (*Outcome, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if !IsActionOriented(req.Query) {
		return e.orchestrator.Process(ctx, req)
	}

	calls, err := e.decide(ctx, req.Query)
	if err != nil {
		// A failed decision is not fatal: answer informationally.
		e.log.Warn().Str("request", req.ID).Err(err).Msg("tool decision failed, routing as informational")
		return e.orchestrator.Process(ctx, req)
	}
	if len(calls) == 0 {
		return e.orchestrator.Process(ctx, req)
	}

	return e.executeAndRespond(ctx, req, calls)
}

// decide asks the model whether tools should be used and extracts any
// invocation patterns from its free-text answer.
func (e *Engine) decide(ctx context.Context, query string) ([]models.ToolCall, error) {
	if calls, ok := e.cache.get(query); ok {
		return cloneCalls(calls), nil
	}

	decision, err := e.model.Text(ctx, e.buildDecisionPrompt(query))
	if err != nil {
		return nil, fmt.Errorf("decision generation failed: %w", err)
	}

	calls := ExtractToolCalls(decision)
	e.cache.set(query, calls)
	return cloneCalls(calls), nil
}

func (e *Engine) buildDecisionPrompt(query string) string {
	var b strings.Builder
	b.WriteString("You decide whether a solar energy assistant should call a tool to answer a question.\n\nAvailable tools:\n")
	for _, d := range e.registry.List() {
		fmt.Fprintf(&b, "- %s: %s\n  required: %s", d.Name, d.Description, strings.Join(d.Required, ", "))
		if len(d.Optional) > 0 {
			fmt.Fprintf(&b, "\n  optional: %s", strings.Join(d.Optional, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString(`
To call a tool, reply with one line per call in exactly this form:
USE_TOOL[tool_name](param=value, param=value)

Numbers are written bare (lat=37.7749), booleans as true/false, text in quotes.
If no tool is needed, reply with NO_TOOL and nothing else.

`)
	fmt.Fprintf(&b, "Question: %s\n\nDecision:", query)
	return b.String()
}

// executeAndRespond dispatches every extracted call independently, then
// builds the final answer from the aggregated outcomes. One failed call
// never blocks the others; failures are part of the aggregate.
func (e *Engine) executeAndRespond(ctx context.Context, req *Request, calls []models.ToolCall) (*Outcome, error) {
	start := time.Now()

	executed := make([]models.ToolCall, 0, len(calls))
	results := make([]*tools.Result, 0, len(calls))
	for _, call := range calls {
		callStart := time.Now()
		result, err := e.registry.Execute(ctx, call.Name, call.Parameters, req.Authorized)
		call.Duration = time.Since(callStart).Seconds()
		if err != nil {
			// Contract violations (unknown tool, missing params, missing
			// authorization) become failed outcomes in the aggregate.
			call.Error = err.Error()
			result = &tools.Result{Name: call.Name, Error: err.Error()}
		} else if result.Success {
			call.Result = formatOutput(result.Output)
		} else {
			call.Error = result.Error
		}
		executed = append(executed, call)
		results = append(results, result)
	}

	response, err := e.model.Text(ctx, e.buildResponsePrompt(req.Query, results))
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	outcome := &Outcome{
		Response:      strings.TrimSpace(response),
		ToolCalls:     executed,
		ContextSource: models.ContextToolBased,
		State:         StateResponseGenerated,
		Trace:         []State{StateReceived, StateResponseGenerated},
	}
	e.orchestrator.PersistToolOutcome(ctx, req, outcome, time.Since(start))
	return outcome, nil
}

func (e *Engine) buildResponsePrompt(query string, results []*tools.Result) string {
	var b strings.Builder
	b.WriteString("You are a solar energy advisor. Tools were run to answer the user's question. Summarize the outcomes in a clear, direct answer. If a tool failed, say what could not be determined instead of inventing numbers.\n\nTool outcomes:\n")
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(&b, "- %s succeeded: %s\n", r.Name, formatOutput(r.Output))
		} else {
			fmt.Fprintf(&b, "- %s failed: %s\n", r.Name, r.Error)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n\nAnswer:", query)
	return b.String()
}

// Close releases engine resources.
func (e *Engine) Close() {
	e.cache.close()
}

func formatOutput(output interface{}) string {
	if output == nil {
		return ""
	}
	if s, ok := output.(string); ok {
		return s
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprint(output)
	}
	return string(data)
}

// cloneCalls copies cached calls including their parameter maps, so a
// handler mutating its params map cannot poison later cache hits.
func cloneCalls(calls []models.ToolCall) []models.ToolCall {
	if calls == nil {
		return nil
	}
	out := make([]models.ToolCall, len(calls))
	for i, call := range calls {
		if call.Parameters != nil {
			params := make(map[string]interface{}, len(call.Parameters))
			for k, v := range call.Parameters {
				params[k] = v
			}
			call.Parameters = params
		}
		out[i] = call
	}
	return out
}
