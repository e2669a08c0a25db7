package models

import "time"

// SubtaskStatus represents the current state of a subtask.
type SubtaskStatus string

const (
	// SubtaskStatusPending indicates the subtask has not started.
	SubtaskStatusPending SubtaskStatus = "pending"
	// SubtaskStatusBlocked indicates a dependency failed and the subtask
	// will never be dispatched.
	SubtaskStatusBlocked SubtaskStatus = "blocked"
	// SubtaskStatusInProgress indicates the subtask is being worked on.
	SubtaskStatusInProgress SubtaskStatus = "in_progress"
	// SubtaskStatusCompleted indicates the subtask completed successfully.
	SubtaskStatusCompleted SubtaskStatus = "completed"
	// SubtaskStatusFailed indicates the subtask failed.
	SubtaskStatusFailed SubtaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskStatusPending, SubtaskStatusBlocked, SubtaskStatusInProgress,
		SubtaskStatusCompleted, SubtaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state.
func (s SubtaskStatus) Terminal() bool {
	return s == SubtaskStatusCompleted || s == SubtaskStatusFailed || s == SubtaskStatusBlocked
}

// SubtaskKind classifies the work a subtask performs. The set is open:
// backends may emit kinds beyond the constants below and they are carried
// through verbatim.
type SubtaskKind string

const (
	// KindGeneral is the default kind for unclassified work.
	KindGeneral SubtaskKind = "general"
	// KindFetch marks subtasks that retrieve external information.
	KindFetch SubtaskKind = "fetch"
	// KindCoding marks code-generation subtasks.
	KindCoding SubtaskKind = "coding"
	// KindAnalysis marks analysis or review subtasks.
	KindAnalysis SubtaskKind = "analysis"
	// KindTesting marks test-writing subtasks.
	KindTesting SubtaskKind = "testing"
)

// Subtask represents one unit of work dispatched to the text-generation
// backend.
type Subtask struct {
	// ID is the unique identifier within a plan.
	ID string `json:"id"`
	// Description is the free-form work description sent to the backend.
	Description string `json:"description"`
	// Kind classifies the subtask.
	Kind SubtaskKind `json:"kind"`
	// Dependencies lists subtask IDs that must complete before this one.
	Dependencies []string `json:"dependencies,omitempty"`
	// RequiredOutput is a hint describing what the backend should produce.
	RequiredOutput string `json:"required_output,omitempty"`
	// Status is the current state of the subtask.
	Status SubtaskStatus `json:"status"`
	// Result holds the raw backend response, a blocked reason, or a
	// captured transport error, depending on Status.
	Result string `json:"result,omitempty"`
	// CompletedAt is when the subtask reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
