package extract

import (
	"strings"

	"github.com/loomworks/loom/pkg/models"
)

// extensions maps fence tags to file extensions for synthesized artifacts.
var extensions = map[string]string{
	"python":     "py",
	"py":         "py",
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"ts":         "ts",
	"java":       "java",
	"cpp":        "cpp",
	"c":          "c",
	"go":         "go",
	"rust":       "rs",
	"rs":         "rs",
}

// bareArtifacts is the last-resort strategy: css and js blocks go to the
// fixed stylesheet and script filenames; every other tagged block contributes
// to a synthesized implementation artifact grouped by subtask, with test-like
// and example-like results routed to differently-named files based on keyword
// presence in the surrounding text.
func bareArtifacts(subtaskID, text string, blocks []block) []models.Artifact {
	var artifacts []models.Artifact
	var implParts []string
	implExt := ""

	for _, b := range blocks {
		body := strings.TrimSpace(b.body)
		if body == "" {
			continue
		}
		switch b.tag {
		case "":
			// Untagged blocks carry no routing information.
		case "css":
			artifacts = append(artifacts, models.Artifact{
				Path:          StylesheetName,
				Content:       body,
				OriginSubtask: subtaskID,
			})
		case "js", "javascript":
			artifacts = append(artifacts, models.Artifact{
				Path:          ScriptName,
				Content:       body,
				OriginSubtask: subtaskID,
			})
		default:
			implParts = append(implParts, body)
			if implExt == "" {
				if ext, ok := extensions[b.tag]; ok {
					implExt = ext
				} else {
					implExt = "txt"
				}
			}
		}
	}

	if len(implParts) > 0 {
		artifacts = append(artifacts, models.Artifact{
			Path:          implementationName(subtaskID, text, implExt),
			Content:       strings.Join(implParts, "\n\n"),
			OriginSubtask: subtaskID,
		})
	}

	return artifacts
}

// implementationName picks the synthesized filename for a subtask's code
// blocks. Results that read like tests or examples go to differently-named
// files instead of the main implementation file.
func implementationName(subtaskID, text, ext string) string {
	cleanID := strings.TrimPrefix(subtaskID, "subtask_")
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "test"):
		return "test_" + cleanID + "." + ext
	case strings.Contains(lower, "example"):
		return "example_" + cleanID + "." + ext
	default:
		return "implementation_" + cleanID + "." + ext
	}
}
