package models

// Report is the consolidated assessment of one task execution, produced by
// the finalizer against a fixed criteria list.
type Report struct {
	// Summary is a short prose summary of what was produced.
	Summary string `json:"summary"`
	// QualityScore is in [0, 1].
	QualityScore float64 `json:"quality_score"`
	// IsValid indicates whether the results satisfied the criteria.
	IsValid bool `json:"is_valid"`
	// Issues lists problems found during consolidation.
	Issues []string `json:"issues,omitempty"`
	// Recommendations lists suggested follow-ups.
	Recommendations []string `json:"recommendations,omitempty"`
}
