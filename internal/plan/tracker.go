package plan

import (
	"sync"
	"time"

	"github.com/loomworks/loom/pkg/models"
)

// BlockedResult is the result text recorded on subtasks whose dependency
// failed. Callers surface it verbatim in the result payload.
const BlockedResult = "Blocked: dependency failed"

// Tracker maintains subtask status for one plan and computes which subtasks
// are eligible to run. It is the authoritative scheduler; the plan's declared
// execution order is advisory only.
//
// Status transitions are atomic with respect to eligibility computation.
type Tracker struct {
	mu   sync.Mutex
	plan *models.Plan
	byID map[string]*models.Subtask
}

// NewTracker creates a tracker over an already-validated plan.
func NewTracker(p *models.Plan) *Tracker {
	byID := make(map[string]*models.Subtask, len(p.Subtasks))
	for _, st := range p.Subtasks {
		byID[st.ID] = st
	}
	return &Tracker{plan: p, byID: byID}
}

// Eligible returns all pending subtasks whose every dependency is completed,
// in plan declaration order.
func (t *Tracker) Eligible() []*models.Subtask {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ready []*models.Subtask
	for _, st := range t.plan.Subtasks {
		if st.Status != models.SubtaskStatusPending {
			continue
		}
		satisfied := true
		for _, dep := range st.Dependencies {
			if t.byID[dep].Status != models.SubtaskStatusCompleted {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, st)
		}
	}
	return ready
}

// Start marks a subtask as in progress.
func (t *Tracker) Start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.byID[id]; ok {
		st.Status = models.SubtaskStatusInProgress
	}
}

// Complete marks a subtask as completed and stores its raw result text.
func (t *Tracker) Complete(id, result string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finish(id, models.SubtaskStatusCompleted, result)
}

// Fail marks a subtask as failed with the error text captured verbatim, then
// transitions every pending subtask that depends on it, directly or
// transitively, to blocked. Blocked subtasks are never dispatched.
func (t *Tracker) Fail(id, errText string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finish(id, models.SubtaskStatusFailed, errText)
	t.blockDependents(id)
}

func (t *Tracker) finish(id string, status models.SubtaskStatus, result string) {
	st, ok := t.byID[id]
	if !ok {
		return
	}
	now := time.Now()
	st.Status = status
	st.Result = result
	st.CompletedAt = &now
}

// blockDependents walks the dependent closure of a dead subtask. Must be
// called with the lock held.
func (t *Tracker) blockDependents(deadID string) {
	dead := map[string]bool{deadID: true}
	// Subtasks are declared in dependency order often but not always, so
	// iterate until no new subtask gets blocked.
	for changed := true; changed; {
		changed = false
		for _, st := range t.plan.Subtasks {
			if st.Status != models.SubtaskStatusPending {
				continue
			}
			for _, dep := range st.Dependencies {
				if dead[dep] {
					t.finish(st.ID, models.SubtaskStatusBlocked, BlockedResult)
					dead[st.ID] = true
					changed = true
					break
				}
			}
		}
	}
}

// HasRunnable returns true if any subtask is still pending or in progress.
func (t *Tracker) HasRunnable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, st := range t.plan.Subtasks {
		if !st.Status.Terminal() {
			return true
		}
	}
	return false
}

// Results returns the result text of every subtask that has one, keyed by
// subtask ID.
func (t *Tracker) Results() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.plan.Subtasks))
	for _, st := range t.plan.Subtasks {
		if st.Result != "" {
			out[st.ID] = st.Result
		}
	}
	return out
}

// CompletedInOrder returns completed subtasks in the order they finished.
// This is the ordering artifact writes are resolved by on path collisions.
func (t *Tracker) CompletedInOrder() []*models.Subtask {
	t.mu.Lock()
	defer t.mu.Unlock()
	var done []*models.Subtask
	for _, st := range t.plan.Subtasks {
		if st.Status == models.SubtaskStatusCompleted {
			done = append(done, st)
		}
	}
	// Declaration order equals completion order while execution is
	// sequential, but sort by completion time to keep the invariant if a
	// parallel dispatcher is ever introduced.
	for i := 1; i < len(done); i++ {
		for j := i; j > 0 && before(done[j], done[j-1]); j-- {
			done[j], done[j-1] = done[j-1], done[j]
		}
	}
	return done
}

func before(a, b *models.Subtask) bool {
	if a.CompletedAt == nil || b.CompletedAt == nil {
		return false
	}
	return a.CompletedAt.Before(*b.CompletedAt)
}

// Counts returns the number of subtasks per status.
func (t *Tracker) Counts() map[models.SubtaskStatus]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[models.SubtaskStatus]int)
	for _, st := range t.plan.Subtasks {
		counts[st.Status]++
	}
	return counts
}
