package models

// Artifact is a file derived from backend output. Path is relative to the
// execution sandbox root and must survive path-safety normalization before
// any write is attempted.
type Artifact struct {
	// Path is the sandbox-relative file path.
	Path string `json:"path"`
	// Content is the file body.
	Content string `json:"content"`
	// OriginSubtask is the ID of the subtask whose result produced this
	// artifact.
	OriginSubtask string `json:"origin_subtask"`
}

// ArtifactInfo describes a written artifact in the result payload.
type ArtifactInfo struct {
	// Path is the sandbox-relative file path.
	Path string `json:"path"`
	// Size is the number of bytes written.
	Size int `json:"size"`
}

// HealingAttempt records one probe-and-patch round against a single failing
// manifest. Attempts are immutable once recorded; the ordered sequence forms
// the healing audit trail.
type HealingAttempt struct {
	// Attempt is the 1-based round number.
	Attempt int `json:"attempt"`
	// ManifestPath is the sandbox-relative path of the failing manifest.
	ManifestPath string `json:"manifest_path"`
	// ErrorText is the combined stdout+stderr captured from the probe.
	ErrorText string `json:"error_text"`
	// Patched is true if a replacement file was applied for this attempt.
	Patched bool `json:"patched"`
}
