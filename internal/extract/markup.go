package extract

import (
	"regexp"
	"strings"

	"github.com/loomworks/loom/pkg/models"
)

var (
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>(.*?)</style>`)
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)
)

// markupArtifacts decomposes html-tagged fenced blocks: embedded style and
// script blocks are pulled into separate artifacts, stripped from the
// document, and replaced by external references injected before the closing
// head and body tags. Returns nil when no markup block is present.
func markupArtifacts(subtaskID string, blocks []block) []models.Artifact {
	var artifacts []models.Artifact

	for _, b := range blocks {
		if b.tag != "html" {
			continue
		}
		doc := b.body

		var cssParts, jsParts []string
		for _, m := range styleRe.FindAllStringSubmatch(doc, -1) {
			if body := strings.TrimSpace(m[1]); body != "" {
				cssParts = append(cssParts, body)
			}
		}
		for _, m := range scriptRe.FindAllStringSubmatch(doc, -1) {
			if body := strings.TrimSpace(m[1]); body != "" {
				jsParts = append(jsParts, body)
			}
		}

		doc = styleRe.ReplaceAllString(doc, "")
		doc = scriptRe.ReplaceAllString(doc, "")
		doc = injectReferences(doc)

		artifacts = append(artifacts, models.Artifact{
			Path:          MarkupName,
			Content:       strings.TrimSpace(doc),
			OriginSubtask: subtaskID,
		})
		if css := strings.Join(cssParts, "\n\n"); css != "" {
			artifacts = append(artifacts, models.Artifact{
				Path:          StylesheetName,
				Content:       css,
				OriginSubtask: subtaskID,
			})
		}
		if js := strings.Join(jsParts, "\n\n"); js != "" {
			artifacts = append(artifacts, models.Artifact{
				Path:          ScriptName,
				Content:       js,
				OriginSubtask: subtaskID,
			})
		}
	}

	return artifacts
}

// injectReferences adds a stylesheet link before </head> and a script
// reference before </body> when those tags exist.
func injectReferences(doc string) string {
	if strings.Contains(doc, "</head>") {
		doc = strings.Replace(doc, "</head>",
			`    <link rel="stylesheet" href="style.css">`+"\n</head>", 1)
	}
	if strings.Contains(doc, "</body>") {
		doc = strings.Replace(doc, "</body>",
			`    <script src="script.js"></script>`+"\n</body>", 1)
	}
	return doc
}
