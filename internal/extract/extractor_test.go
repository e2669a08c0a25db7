package extract

import (
	"strings"
	"testing"

	"github.com/loomworks/loom/pkg/models"
)

func TestExtract_LabeledFileRoundTrip(t *testing.T) {
	e := New()
	text := "### FILE: a/b.txt\n```txt\nhello\n```"

	res := e.Extract("subtask_1", text)
	if len(res.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(res.Artifacts))
	}
	a := res.Artifacts[0]
	if a.Path != "a/b.txt" {
		t.Errorf("path = %q, want a/b.txt", a.Path)
	}
	if a.Content != "hello" {
		t.Errorf("content = %q, want hello", a.Content)
	}
	if a.OriginSubtask != "subtask_1" {
		t.Errorf("origin = %q, want subtask_1", a.OriginSubtask)
	}
}

func TestExtract_LabeledMultipleFiles(t *testing.T) {
	e := New()
	text := strings.Join([]string{
		"Here are the files:",
		"### FILE: src/main.py",
		"```python",
		"print('hi')",
		"```",
		"",
		"### FILE: README.md",
		"",
		"```md",
		"# Readme",
		"```",
	}, "\n")

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(res.Artifacts))
	}
	if res.Artifacts[0].Path != "src/main.py" || res.Artifacts[1].Path != "README.md" {
		t.Errorf("paths = %q, %q", res.Artifacts[0].Path, res.Artifacts[1].Path)
	}
}

func TestExtract_LabeledIsExclusive(t *testing.T) {
	e := New()
	// A labeled file plus a stray css block: the fallback must not run.
	text := strings.Join([]string{
		"### FILE: app.py",
		"```python",
		"x = 1",
		"```",
		"```css",
		"body { color: red }",
		"```",
	}, "\n")

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1 (labeled files are exclusive)", len(res.Artifacts))
	}
	if res.Artifacts[0].Path != "app.py" {
		t.Errorf("path = %q, want app.py", res.Artifacts[0].Path)
	}
}

func TestExtract_MarkerBrokenByInterveningText(t *testing.T) {
	e := New()
	// A non-blank line between marker and fence breaks the binding, so no
	// labeled file is found and the bare fallback runs instead.
	text := strings.Join([]string{
		"### FILE: app.py",
		"Some explanation in between.",
		"```python",
		"x = 1",
		"```",
	}, "\n")

	res := e.Extract("subtask_2", text)
	if len(res.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(res.Artifacts))
	}
	if res.Artifacts[0].Path == "app.py" {
		t.Error("marker should not bind across intervening text")
	}
}

func TestExtract_PathTraversalRejected(t *testing.T) {
	e := New()
	text := "### FILE: ../../etc/passwd\n```txt\nroot:x:0:0\n```"

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 0 {
		t.Fatalf("got %d artifacts, want 0", len(res.Artifacts))
	}
	if len(res.Rejected) != 1 {
		t.Fatalf("got %d rejections, want 1", len(res.Rejected))
	}
	if res.Rejected[0].Path != "../../etc/passwd" {
		t.Errorf("rejected path = %q", res.Rejected[0].Path)
	}
}

func TestExtract_MissingClosingFence(t *testing.T) {
	e := New()
	text := "### FILE: notes.txt\n```txt\nline one\nline two"

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1 (unterminated fence runs to EOF)", len(res.Artifacts))
	}
	if res.Artifacts[0].Content != "line one\nline two" {
		t.Errorf("content = %q", res.Artifacts[0].Content)
	}
}

func TestExtract_NestedFenceClosesAtFirstBareFence(t *testing.T) {
	e := New()
	text := strings.Join([]string{
		"### FILE: doc.md",
		"```md",
		"An example:",
		"```go", // content: only a bare ``` closes
		"fmt.Println(1)",
		"```", // closes the outer fence
		"trailing prose",
	}, "\n")

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(res.Artifacts))
	}
	want := "An example:\n```go\nfmt.Println(1)"
	if res.Artifacts[0].Content != want {
		t.Errorf("content = %q, want %q", res.Artifacts[0].Content, want)
	}
}

func TestExtract_NoTrailingNewline(t *testing.T) {
	e := New()
	text := "### FILE: f.txt\n```txt\ncontent\n```" // no trailing newline after fence

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 1 || res.Artifacts[0].Content != "content" {
		t.Fatalf("artifacts = %+v", res.Artifacts)
	}
}

func TestExtract_MarkupDecomposition(t *testing.T) {
	e := New()
	text := strings.Join([]string{
		"```html",
		"<html>",
		"<head>",
		"<title>Demo</title>",
		"<style>body { margin: 0 }</style>",
		"</head>",
		"<body>",
		"<h1>Hi</h1>",
		"<script>console.log('hi')</script>",
		"</body>",
		"</html>",
		"```",
	}, "\n")

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(res.Artifacts))
	}

	byPath := map[string]string{}
	for _, a := range res.Artifacts {
		byPath[a.Path] = a.Content
	}

	html, ok := byPath[MarkupName]
	if !ok {
		t.Fatal("missing index.html artifact")
	}
	if strings.Contains(html, "<style>") || strings.Contains(html, "<script>") {
		t.Error("inline style/script blocks were not stripped from document")
	}
	if !strings.Contains(html, `<link rel="stylesheet" href="style.css">`) {
		t.Error("stylesheet link was not injected before </head>")
	}
	if !strings.Contains(html, `<script src="script.js"></script>`) {
		t.Error("script reference was not injected before </body>")
	}

	if byPath[StylesheetName] != "body { margin: 0 }" {
		t.Errorf("style.css = %q", byPath[StylesheetName])
	}
	if byPath[ScriptName] != "console.log('hi')" {
		t.Errorf("script.js = %q", byPath[ScriptName])
	}
}

func TestExtract_MarkupWithoutEmbeddedAssets(t *testing.T) {
	e := New()
	text := "```html\n<html><body><p>plain</p></body></html>\n```"

	res := e.Extract("s1", text)
	if len(res.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1 (no css/js to split out)", len(res.Artifacts))
	}
	if res.Artifacts[0].Path != MarkupName {
		t.Errorf("path = %q, want %q", res.Artifacts[0].Path, MarkupName)
	}
}

func TestExtract_BareBlocks(t *testing.T) {
	e := New()

	t.Run("css and js to fixed names", func(t *testing.T) {
		text := "```css\nbody{}\n```\n```javascript\nlet a = 1\n```"
		res := e.Extract("s1", text)
		if len(res.Artifacts) != 2 {
			t.Fatalf("got %d artifacts, want 2", len(res.Artifacts))
		}
		if res.Artifacts[0].Path != StylesheetName || res.Artifacts[1].Path != ScriptName {
			t.Errorf("paths = %q, %q", res.Artifacts[0].Path, res.Artifacts[1].Path)
		}
	})

	t.Run("implementation grouped by subtask", func(t *testing.T) {
		text := "Implementation below.\n```python\ndef f(): pass\n```\n```python\ndef g(): pass\n```"
		res := e.Extract("subtask_3", text)
		if len(res.Artifacts) != 1 {
			t.Fatalf("got %d artifacts, want 1", len(res.Artifacts))
		}
		a := res.Artifacts[0]
		if a.Path != "implementation_3.py" {
			t.Errorf("path = %q, want implementation_3.py", a.Path)
		}
		if !strings.Contains(a.Content, "def f()") || !strings.Contains(a.Content, "def g()") {
			t.Errorf("content = %q, want both blocks", a.Content)
		}
	})

	t.Run("test-like result routed separately", func(t *testing.T) {
		text := "Unit tests for the module.\n```python\nassert f() is None\n```"
		res := e.Extract("subtask_4", text)
		if len(res.Artifacts) != 1 || res.Artifacts[0].Path != "test_4.py" {
			t.Fatalf("artifacts = %+v, want test_4.py", res.Artifacts)
		}
	})

	t.Run("example-like result routed separately", func(t *testing.T) {
		text := "Example usage of the api.\n```go\nmain()\n```"
		res := e.Extract("subtask_5", text)
		if len(res.Artifacts) != 1 || res.Artifacts[0].Path != "example_5.go" {
			t.Fatalf("artifacts = %+v, want example_5.go", res.Artifacts)
		}
	})

	t.Run("unknown tag falls back to txt", func(t *testing.T) {
		text := "```brainfuck\n+++\n```"
		res := e.Extract("subtask_6", text)
		if len(res.Artifacts) != 1 || res.Artifacts[0].Path != "implementation_6.txt" {
			t.Fatalf("artifacts = %+v, want implementation_6.txt", res.Artifacts)
		}
	})

	t.Run("untagged blocks produce nothing", func(t *testing.T) {
		text := "```\nsome output\n```"
		res := e.Extract("s1", text)
		if !res.Empty() {
			t.Errorf("result = %+v, want empty", res)
		}
	})
}

func TestExtract_ExtractionMiss(t *testing.T) {
	e := New()
	res := e.Extract("s1", "Just prose, no code at all.")
	if !res.Empty() {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestExtractAll_PreservesOrderAcrossResults(t *testing.T) {
	e := New()
	results := []SubtaskResult{
		{SubtaskID: "a", Text: "### FILE: out.txt\n```txt\nfrom a\n```"},
		{SubtaskID: "b", Text: "### FILE: out.txt\n```txt\nfrom b\n```"},
	}

	res := e.ExtractAll(results)
	if len(res.Artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(res.Artifacts))
	}
	// Overwrite-last-wins is resolved at write time; extraction must keep
	// dependency-completion order so "last" is well-defined.
	if res.Artifacts[0].Content != "from a" || res.Artifacts[1].Content != "from b" {
		t.Errorf("artifact order broken: %+v", res.Artifacts)
	}
}

func TestExtract_PathSafetyAppliesToFallbacks(t *testing.T) {
	// Fallback names are fixed and safe, but the check must run uniformly.
	// Force a candidate through checkPaths directly.
	res := checkPaths([]models.Artifact{
		{Path: "ok.txt", Content: "x", OriginSubtask: "s"},
		{Path: "../escape.txt", Content: "x", OriginSubtask: "s"},
	})
	if len(res.Artifacts) != 1 || len(res.Rejected) != 1 {
		t.Fatalf("artifacts=%d rejected=%d, want 1/1", len(res.Artifacts), len(res.Rejected))
	}
}
