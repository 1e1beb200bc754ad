package core

// OutcomeStatus classifies how a pipeline stage finished.
type OutcomeStatus int

const (
	// StatusOk means the stage completed with a usable value.
	StatusOk OutcomeStatus = iota
	// StatusDegraded means the stage failed but the pipeline continues with
	// a fallback value (empty retrieval set, error-string answer).
	StatusDegraded
	// StatusFatal means the stage failed and the run must stop.
	StatusFatal
)

// Outcome is the typed result of a pipeline stage. It makes the distinction
// between "continue with fallback data" and "abort the run" an explicit
// value instead of implicit error-catching at call sites.
type Outcome[T any] struct {
	Value  T
	Status OutcomeStatus
	Reason string // human-readable cause for Degraded outcomes
	Err    error  // underlying error for Degraded and Fatal outcomes
}

// Ok returns a successful outcome carrying value.
func Ok[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value, Status: StatusOk}
}

// Degraded returns an outcome whose value is a fallback. The pipeline
// proceeds, and reason/err are reflected in logs and monitoring only.
func Degraded[T any](value T, reason string, err error) Outcome[T] {
	return Outcome[T]{Value: value, Status: StatusDegraded, Reason: reason, Err: err}
}

// Fatal returns an outcome that aborts the run.
func Fatal[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StatusFatal, Err: err}
}

// Failed reports whether the outcome is fatal.
func (o Outcome[T]) Failed() bool {
	return o.Status == StatusFatal
}
