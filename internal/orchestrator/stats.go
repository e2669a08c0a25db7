package orchestrator

import (
	"sync"

	"github.com/loomworks/loom/internal/llm"
	"github.com/loomworks/loom/internal/workspace"
	"github.com/loomworks/loom/pkg/models"
)

// Stats holds per-process aggregate counters. Unlike everything else the
// engine touches, these survive across executions.
type Stats struct {
	mu               sync.Mutex
	executions       int
	subtasksByStatus map[models.SubtaskStatus]int
	artifactsWritten int
	rejectedPaths    int
	securityBlocks   int
	fileOps          int
	fileOpFailures   int
	inputTokens      int64
	outputTokens     int64
	healingRuns      int
	healingFailures  int
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{subtasksByStatus: make(map[models.SubtaskStatus]int)}
}

func (s *Stats) recordExecution(counts map[models.SubtaskStatus]int, artifacts, rejected, blocked int, ops workspace.Stats, usage *llm.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions++
	for status, n := range counts {
		s.subtasksByStatus[status] += n
	}
	s.artifactsWritten += artifacts
	s.rejectedPaths += rejected
	s.securityBlocks += blocked
	s.fileOps += ops.Total
	s.fileOpFailures += ops.Failed
	if usage != nil {
		s.inputTokens += usage.InputTokens
		s.outputTokens += usage.OutputTokens
	}
}

func (s *Stats) recordHealing(healed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healingRuns++
	if !healed {
		s.healingFailures++
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Executions       int                          `json:"executions"`
	SubtasksByStatus map[models.SubtaskStatus]int `json:"subtasks_by_status"`
	ArtifactsWritten int                          `json:"artifacts_written"`
	RejectedPaths    int                          `json:"rejected_paths"`
	SecurityBlocks   int                          `json:"security_blocks"`
	FileOps          int                          `json:"file_ops"`
	FileOpFailures   int                          `json:"file_op_failures"`
	InputTokens      int64                        `json:"input_tokens"`
	OutputTokens     int64                        `json:"output_tokens"`
	HealingRuns      int                          `json:"healing_runs"`
	HealingFailures  int                          `json:"healing_failures"`
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byStatus := make(map[models.SubtaskStatus]int, len(s.subtasksByStatus))
	for k, v := range s.subtasksByStatus {
		byStatus[k] = v
	}
	return Snapshot{
		Executions:       s.executions,
		SubtasksByStatus: byStatus,
		ArtifactsWritten: s.artifactsWritten,
		RejectedPaths:    s.rejectedPaths,
		SecurityBlocks:   s.securityBlocks,
		FileOps:          s.fileOps,
		FileOpFailures:   s.fileOpFailures,
		InputTokens:      s.inputTokens,
		OutputTokens:     s.outputTokens,
		HealingRuns:      s.healingRuns,
		HealingFailures:  s.healingFailures,
	}
}
