package engine

// State names one step of an analysis run. Runs move strictly forward;
// Failed is reachable from any step.
type State string

const (
	StateIdle             State = "idle"
	StateResolvingRegion  State = "resolving_region"
	StateFetchingBefore   State = "fetching_before"
	StateFetchingAfter    State = "fetching_after"
	StateComputingIndices State = "computing_indices"
	StateComparing        State = "comparing"
	StateClassifying      State = "classifying"
	StateEvaluating       State = "evaluating"
	StatePersisting       State = "persisting"
	StateDone             State = "done"
	StateFailed           State = "failed"
)
