package formula

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned when a key is absent from the registry or
// names an entry of the wrong kind (constant vs formula).
var ErrUnknownMetric = errors.New("unknown metric")

// MissingParameterError reports every free variable of a formula that could
// not be resolved from the supplied parameters or the registry.
type MissingParameterError struct {
	Metric string
	Names  []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("metric %s: missing parameters: %s", e.Metric, strings.Join(e.Names, ", "))
}

// EvaluationError is returned when no evaluation tier could produce a value,
// or when a pinned tier rejected the expression.
type EvaluationError struct {
	Metric string
	Tier   Tier
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("metric %s: evaluation failed (tier %s): %v", e.Metric, e.Tier, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
