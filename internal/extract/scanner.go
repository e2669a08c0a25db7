package extract

import "strings"

// fileMarker is the labeled-file protocol marker prefix. A marker line names
// a sandbox-relative path; the next fenced block (only blank lines may
// intervene) is that file's content.
const fileMarker = "### FILE:"

// block is one fenced code block found in a result text.
type block struct {
	// tag is the lowercased fence info string ("go", "html", ...), empty
	// for untagged fences.
	tag string
	// body is the raw block content, without the fence lines.
	body string
	// label is the path named by a preceding marker line, if any.
	label string
}

// scanBlocks walks the text line by line and collects fenced blocks together
// with any labeled-file markers that precede them.
//
// Grammar notes, pinned by tests:
//   - a fence opens on a line starting with ``` outside any fence; the rest
//     of the line is the tag;
//   - only a bare ``` line closes a fence, so an inner ```lang opener inside
//     a block is content and the first bare ``` closes the outer fence;
//   - a fence left open at end of input yields a block running to EOF;
//   - a marker binds to the next fence only across blank lines.
func scanBlocks(text string) []block {
	var blocks []block

	var (
		inFence      bool
		currentTag   string
		currentLabel string
		pendingLabel string
		body         []string
	)

	flush := func() {
		blocks = append(blocks, block{
			tag:   currentTag,
			body:  strings.Join(body, "\n"),
			label: currentLabel,
		})
		body = nil
		currentTag = ""
		currentLabel = ""
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if inFence {
			if trimmed == "```" {
				inFence = false
				flush()
				continue
			}
			body = append(body, line)
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			inFence = true
			currentTag = strings.ToLower(strings.TrimSpace(trimmed[3:]))
			currentLabel = pendingLabel
			pendingLabel = ""
			continue
		}

		if strings.HasPrefix(trimmed, fileMarker) {
			pendingLabel = strings.TrimSpace(trimmed[len(fileMarker):])
			continue
		}

		// Any other non-blank line breaks the marker/fence adjacency.
		if trimmed != "" {
			pendingLabel = ""
		}
	}

	// Missing closing fence: the block runs to end of input.
	if inFence {
		flush()
	}

	return blocks
}
