// Package security validates subtask inputs before they reach the backend.
package security

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level controls how strict validation is.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Valid returns true if the level is a known value.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	default:
		return false
	}
}

// forbiddenPatterns are rejected at every level.
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)rm\s+-rf\s+/`),
	regexp.MustCompile(`(?i)dd\s+if=`),
	regexp.MustCompile(`:\(\)\{ :\|:& \};:`), // fork bomb
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`__import__`),
}

// suspiciousChars are rejected at high and critical levels only.
var suspiciousChars = []string{"&", "|", ";", ">", "<", "`", "$"}

// Event records one validation decision for the per-execution audit log.
type Event struct {
	Kind    string // "input_blocked" or "path_blocked"
	Content string // truncated offending input
	Reason  string
	When    time.Time
}

// Validator validates inputs and keeps an append-only event log.
type Validator struct {
	mu     sync.Mutex
	events []Event
}

// New creates a Validator with an empty event log.
func New() *Validator {
	return &Validator{}
}

// ValidateInput checks a subtask description or command text. It returns
// whether the text is acceptable and a reason when it is not.
func (v *Validator) ValidateInput(text string, level Level) (bool, string) {
	for _, pattern := range forbiddenPatterns {
		if pattern.MatchString(text) {
			reason := "forbidden pattern detected: " + pattern.String()
			v.log("input_blocked", text, reason)
			return false, reason
		}
	}

	if level == LevelHigh || level == LevelCritical {
		for _, ch := range suspiciousChars {
			if strings.Contains(text, ch) {
				reason := "suspicious shell characters detected"
				v.log("input_blocked", text, reason)
				return false, reason
			}
		}
	}

	return true, "input validated"
}

// ValidatePath checks a file path for traversal and system-directory access.
func (v *Validator) ValidatePath(path string) (bool, string) {
	if strings.Contains(path, "..") {
		reason := "path traversal detected"
		v.log("path_blocked", path, reason)
		return false, reason
	}
	for _, prefix := range []string{"/etc", "/sys", "/proc"} {
		if strings.HasPrefix(path, prefix) {
			reason := "access to system directories not allowed"
			v.log("path_blocked", path, reason)
			return false, reason
		}
	}
	return true, "path validated"
}

// Sanitize strips null bytes and control characters, keeping newlines and
// tabs.
func (v *Validator) Sanitize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == '\n' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (v *Validator) log(kind, content, reason string) {
	if len(content) > 100 {
		content = content[:100]
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, Event{Kind: kind, Content: content, Reason: reason, When: time.Now()})
}

// Events returns a copy of the validation event log.
func (v *Validator) Events() []Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Event, len(v.events))
	copy(out, v.events)
	return out
}
