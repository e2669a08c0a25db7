// Package plan provides plan construction and dependency-ordered scheduling
// of subtasks.
package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loomworks/loom/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found among subtasks.
var ErrCycleDetected = errors.New("circular dependency detected")

// StructureError describes a structural defect that makes a plan unusable.
// Plans with structure errors are rejected at construction time; no subtask
// from a rejected plan ever executes.
type StructureError struct {
	SubtaskID string
	Reason    string
	err       error
}

func (e *StructureError) Error() string {
	if e.SubtaskID == "" {
		return fmt.Sprintf("invalid plan: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plan: subtask %s: %s", e.SubtaskID, e.Reason)
}

func (e *StructureError) Unwrap() error { return e.err }

// New builds a validated Plan from subtasks. It assigns a fresh plan ID and
// rejects duplicate IDs, self-dependencies, dangling dependency references,
// and dependency cycles.
func New(originalTask string, subtasks []*models.Subtask, executionOrder []string) (*models.Plan, error) {
	p := &models.Plan{
		ID:             uuid.New().String(),
		OriginalTask:   originalTask,
		Subtasks:       subtasks,
		ExecutionOrder: executionOrder,
		CreatedAt:      time.Now(),
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	for _, st := range p.Subtasks {
		if st.Status == "" {
			st.Status = models.SubtaskStatusPending
		}
		if st.Kind == "" {
			st.Kind = models.KindGeneral
		}
	}
	return p, nil
}

// Validate checks the structural invariants of a plan without mutating it.
func Validate(p *models.Plan) error {
	if len(p.Subtasks) == 0 {
		return &StructureError{Reason: "plan has no subtasks"}
	}

	seen := make(map[string]bool, len(p.Subtasks))
	for _, st := range p.Subtasks {
		if st.ID == "" {
			return &StructureError{Reason: "subtask with empty id"}
		}
		if seen[st.ID] {
			return &StructureError{SubtaskID: st.ID, Reason: "duplicate subtask id"}
		}
		seen[st.ID] = true
	}

	for _, st := range p.Subtasks {
		for _, dep := range st.Dependencies {
			if dep == st.ID {
				return &StructureError{SubtaskID: st.ID, Reason: "subtask depends on itself"}
			}
			if !seen[dep] {
				return &StructureError{SubtaskID: st.ID, Reason: fmt.Sprintf("depends on unknown subtask %s", dep)}
			}
		}
	}

	if err := validateNoCycles(p.Subtasks); err != nil {
		return &StructureError{Reason: err.Error(), err: ErrCycleDetected}
	}
	return nil
}

// validateNoCycles detects circular dependencies using depth-first search
// with coloring. The returned error names the cycle path.
func validateNoCycles(subtasks []*models.Subtask) error {
	byID := make(map[string]*models.Subtask, len(subtasks))
	for _, st := range subtasks {
		byID[st.ID] = st
	}

	// 0 = unvisited, 1 = visiting, 2 = visited.
	state := make(map[string]int, len(subtasks))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case 2:
			return nil
		case 1:
			cycleStart := 0
			for i, p := range path {
				if p == id {
					cycleStart = i
					break
				}
			}
			cycle := append(path[cycleStart:], id)
			return fmt.Errorf("circular dependency detected: %s", joinArrow(cycle))
		}

		state[id] = 1
		if st := byID[id]; st != nil {
			for _, dep := range st.Dependencies {
				if err := visit(dep, append(path, id)); err != nil {
					return err
				}
			}
		}
		state[id] = 2
		return nil
	}

	for _, st := range subtasks {
		if state[st.ID] == 0 {
			if err := visit(st.ID, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinArrow(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " -> "
		}
		out += id
	}
	return out
}
