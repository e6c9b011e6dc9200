package reconcile

import "fmt"

// Action classifies the outcome of a single upsert.
type Action string

const (
	// ActionCreated means the entity did not exist remotely and was created.
	ActionCreated Action = "created"
	// ActionUpdated means the entity was resolved remotely and updated in place.
	ActionUpdated Action = "updated"
)

// Failure records one entity that could not be upserted.
type Failure struct {
	Name string
	File string
	Err  error
}

// Result represents the complete result of a batch upsert. Per-entity
// failures are tallied here, never re-raised: a finished batch always
// carries full counts.
type Result struct {
	Created int
	Updated int
	Failed  int

	Failures []Failure
}

// Record tallies a successful upsert action.
func (r *Result) Record(action Action) {
	switch action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	}
}

// AddFailure tallies a failed entity. Used by the engine for per-entity
// upsert errors and by callers for entities that never reached the engine,
// such as unparseable snapshot files.
func (r *Result) AddFailure(name, file string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{Name: name, File: file, Err: err})
}

// HasFailures returns true if any entity in the batch failed.
func (r *Result) HasFailures() bool {
	return r.Failed > 0
}

// Total returns the number of entities the batch processed.
func (r *Result) Total() int {
	return r.Created + r.Updated + r.Failed
}

// Summary returns a human-readable summary of the batch result.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d created, %d updated, %d failed", r.Created, r.Updated, r.Failed)
}
