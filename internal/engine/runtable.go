package engine

import "sync"

// runTable is the per-project admission table: at most one analysis run per
// project id may be in flight. The only shared mutable state in the engine;
// created at process start, cleared on shutdown.
type runTable struct {
	mu      sync.Mutex
	running map[string]State
}

func newRunTable() *runTable {
	return &runTable{running: make(map[string]State)}
}

// acquire admits a run if none is active for the project. Compare-and-set
// under the lock: an event trigger and a concurrent manual trigger for the
// same project cannot both win.
func (t *runTable) acquire(projectID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, active := t.running[projectID]; active {
		return false
	}
	t.running[projectID] = StateIdle
	return true
}

// setState records the run's current step for observability
func (t *runTable) setState(projectID string, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, active := t.running[projectID]; active {
		t.running[projectID] = state
	}
}

// stateOf returns the active run's state, if any
func (t *runTable) stateOf(projectID string) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, active := t.running[projectID]
	return state, active
}

// release frees the project's slot
func (t *runTable) release(projectID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.running, projectID)
}

// clear drops every slot (shutdown)
func (t *runTable) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = make(map[string]State)
}
