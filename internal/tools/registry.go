package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownTool is returned when a call names a tool that was never
// registered.
var ErrUnknownTool = errors.New("unknown tool")

// ErrDuplicateTool is returned when a name is registered twice. Duplicate
// registration is an error, never a silent overwrite.
var ErrDuplicateTool = errors.New("tool already registered")

// ErrAuthorizationRequired is returned when a tool demands authorization
// the caller did not grant. The underlying handler is never invoked.
var ErrAuthorizationRequired = errors.New("tool requires authorization")

// MissingParametersError lists every required parameter absent from a call.
type MissingParametersError struct {
	Tool  string
	Names []string
}

func (e *MissingParametersError) Error() string {
	return fmt.Sprintf("tool %s: missing required parameters: %s", e.Tool, strings.Join(e.Names, ", "))
}

// Handler is the callable behind a tool. Errors and panics it produces are
// business failures captured into the Result, not system faults.
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Descriptor is the parameter contract of one registered tool.
type Descriptor struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Required              []string `json:"required"`
	Optional              []string `json:"optional,omitempty"`
	RequiresAuthorization bool     `json:"requires_authorization"`
}

// Tool couples a descriptor with its handler.
type Tool struct {
	Descriptor
	Handler Handler
}

// Result is the structured outcome of one dispatch.
type Result struct {
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Output   interface{}   `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Registry is the name-keyed catalog of callable capabilities. Registration
// happens at startup through the synchronized mutation API; reads after
// that are lock-guarded but effectively on an immutable set.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	log   zerolog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
		log:   log.With().Str("component", "tools").Logger(),
	}
}

// Register adds a tool to the catalog.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Handler == nil {
		return fmt.Errorf("cannot register nil tool")
	}
	if t.Name == "" {
		return fmt.Errorf("cannot register tool without a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	r.tools[t.Name] = t
	r.log.Debug().Str("tool", t.Name).Msg("registered tool")
	return nil
}

// Execute validates and dispatches one tool call. Contract violations
// (unknown tool, missing parameters, missing authorization) are returned as
// errors; failures inside the handler come back as a failed Result with a
// nil error.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]interface{}, authorized bool) (*Result, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	var missing []string
	for _, req := range t.Required {
		if _, present := params[req]; !present {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingParametersError{Tool: name, Names: missing}
	}

	if t.RequiresAuthorization && !authorized {
		return nil, fmt.Errorf("%w: %s", ErrAuthorizationRequired, name)
	}

	start := time.Now()
	output, err := r.invoke(ctx, t, params)
	result := &Result{
		Name:     name,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
		r.log.Warn().Str("tool", name).Err(err).Msg("tool execution failed")
		return result, nil
	}
	result.Success = true
	result.Output = output
	return result, nil
}

// invoke runs the handler, converting panics into errors so one misbehaving
// tool cannot take down the pipeline.
func (r *Registry) invoke(ctx context.Context, t *Tool, params map[string]interface{}) (output interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool panicked: %v", rec)
		}
	}()
	return t.Handler(ctx, params)
}

// List returns every tool's contract sorted by name, used to build the
// decision prompt.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		descriptors = append(descriptors, t.Descriptor)
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors
}
