package models

import "time"

// Plan is the full set of subtasks and declared dependencies for one task
// execution. The declared ExecutionOrder is advisory; the dependency tracker
// is authoritative about what may run.
type Plan struct {
	// ID is the unique identifier for this plan.
	ID string `json:"id"`
	// OriginalTask is the free-form task the plan was derived from.
	OriginalTask string `json:"original_task"`
	// Subtasks is the ordered sequence of subtasks. Declaration order is
	// the deterministic tie-break for eligibility.
	Subtasks []*Subtask `json:"subtasks"`
	// ExecutionOrder is the planner's suggested ordering of subtask IDs.
	ExecutionOrder []string `json:"execution_order,omitempty"`
	// SuccessCriteria lists the planner's criteria for overall success.
	SuccessCriteria []string `json:"success_criteria,omitempty"`
	// CreatedAt is when the plan was constructed.
	CreatedAt time.Time `json:"created_at"`
}

// Subtask returns the subtask with the given ID, or nil if not present.
func (p *Plan) Subtask(id string) *Subtask {
	for _, st := range p.Subtasks {
		if st.ID == id {
			return st
		}
	}
	return nil
}
