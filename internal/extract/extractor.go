// Package extract parses free-text backend responses into file artifacts
// using a layered grammar with a strict strategy priority:
//
//  1. the labeled-file protocol ("### FILE: path" + fenced block), which is
//     authoritative and exclusive when present;
//  2. markup decomposition of html-tagged blocks into separate document,
//     stylesheet, and script artifacts;
//  3. a bare fenced-block fallback that routes css/js blocks to fixed
//     filenames and synthesizes an implementation artifact per subtask from
//     everything else.
//
// Path safety applies uniformly to every strategy's output: a rejected path
// is recorded, never silently dropped.
package extract

import (
	"strings"

	"github.com/loomworks/loom/internal/workspace"
	"github.com/loomworks/loom/pkg/models"
)

// Fixed fallback filenames.
const (
	MarkupName     = "index.html"
	StylesheetName = "style.css"
	ScriptName     = "script.js"
)

// Rejection records an artifact whose path failed the safety check.
type Rejection struct {
	Path          string `json:"path"`
	Reason        string `json:"reason"`
	OriginSubtask string `json:"origin_subtask"`
}

// Result is the outcome of extraction over one or more result texts.
type Result struct {
	Artifacts []models.Artifact
	Rejected  []Rejection
}

// Empty returns true if extraction produced neither artifacts nor rejections.
func (r Result) Empty() bool {
	return len(r.Artifacts) == 0 && len(r.Rejected) == 0
}

// SubtaskResult pairs a subtask ID with its raw result text.
type SubtaskResult struct {
	SubtaskID string
	Text      string
}

// Extractor extracts artifacts from backend result texts. The zero value is
// usable.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractAll runs extraction over results in the given order. Callers pass
// results in dependency-completion order so that path collisions resolve as
// overwrite-last-wins when artifacts are written.
func (e *Extractor) ExtractAll(results []SubtaskResult) Result {
	var out Result
	for _, r := range results {
		one := e.Extract(r.SubtaskID, r.Text)
		out.Artifacts = append(out.Artifacts, one.Artifacts...)
		out.Rejected = append(out.Rejected, one.Rejected...)
	}
	return out
}

// Extract applies the strategy ladder to a single result text.
func (e *Extractor) Extract(subtaskID, text string) Result {
	blocks := scanBlocks(text)

	candidates := labeledArtifacts(subtaskID, blocks)
	if len(candidates) == 0 {
		candidates = markupArtifacts(subtaskID, blocks)
	}
	if len(candidates) == 0 {
		candidates = bareArtifacts(subtaskID, text, blocks)
	}

	return checkPaths(candidates)
}

// labeledArtifacts implements the authoritative labeled-file protocol. When
// at least one marker matched, the returned set is exclusive: no fallback
// runs against the same result.
func labeledArtifacts(subtaskID string, blocks []block) []models.Artifact {
	var artifacts []models.Artifact
	for _, b := range blocks {
		if b.label == "" {
			continue
		}
		artifacts = append(artifacts, models.Artifact{
			Path:          b.label,
			Content:       strings.TrimSpace(b.body),
			OriginSubtask: subtaskID,
		})
	}
	return artifacts
}

// checkPaths applies the path-safety invariant to every candidate.
func checkPaths(candidates []models.Artifact) Result {
	var out Result
	for _, a := range candidates {
		if err := workspace.ValidateRelPath(a.Path); err != nil {
			out.Rejected = append(out.Rejected, Rejection{
				Path:          a.Path,
				Reason:        err.Error(),
				OriginSubtask: a.OriginSubtask,
			})
			continue
		}
		out.Artifacts = append(out.Artifacts, a)
	}
	return out
}
