package security

import (
	"strings"
	"testing"
)

func TestValidateInput_ForbiddenPatterns(t *testing.T) {
	v := New()
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{"plain task", "write a sorting function in python", true},
		{"rm -rf root", "please run rm -rf / to clean up", false},
		{"dd", "dd if=/dev/zero of=/dev/sda", false},
		{"eval", "use eval(user_input) for flexibility", false},
		{"dunder import", "call __import__('os')", false},
		{"mentions rm safely", "remove the old README file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := v.ValidateInput(tt.text, LevelMedium)
			if ok != tt.ok {
				t.Errorf("ValidateInput(%q) = %v (%s), want %v", tt.text, ok, reason, tt.ok)
			}
		})
	}
}

func TestValidateInput_LevelEscalation(t *testing.T) {
	v := New()
	text := "build a pipeline: cat input | sort"

	if ok, _ := v.ValidateInput(text, LevelMedium); !ok {
		t.Error("pipe character should pass at medium level")
	}
	if ok, _ := v.ValidateInput(text, LevelHigh); ok {
		t.Error("pipe character should be rejected at high level")
	}
}

func TestValidatePath(t *testing.T) {
	v := New()
	tests := []struct {
		path string
		ok   bool
	}{
		{"src/main.go", true},
		{"../secrets.txt", false},
		{"/etc/passwd", false},
		{"/sys/kernel", false},
		{"data/report.csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ok, _ := v.ValidatePath(tt.path)
			if ok != tt.ok {
				t.Errorf("ValidatePath(%q) = %v, want %v", tt.path, ok, tt.ok)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	v := New()
	in := "hello\x00world\x01\n\tok"
	got := v.Sanitize(in)
	want := "helloworld\n\tok"
	if got != want {
		t.Errorf("Sanitize() = %q, want %q", got, want)
	}
}

func TestEvents_Recorded(t *testing.T) {
	v := New()
	v.ValidateInput("rm -rf / now", LevelMedium)
	v.ValidatePath("../../etc/passwd")
	v.ValidateInput("harmless", LevelMedium)

	events := v.Events()
	if len(events) != 2 {
		t.Fatalf("Events() len = %d, want 2", len(events))
	}
	if events[0].Kind != "input_blocked" || events[1].Kind != "path_blocked" {
		t.Errorf("event kinds = [%s %s]", events[0].Kind, events[1].Kind)
	}
}

func TestEvents_TruncatesContent(t *testing.T) {
	v := New()
	long := "rm -rf / " + strings.Repeat("x", 200)
	v.ValidateInput(long, LevelMedium)

	events := v.Events()
	if len(events) != 1 {
		t.Fatalf("Events() len = %d, want 1", len(events))
	}
	if len(events[0].Content) > 100 {
		t.Errorf("event content length = %d, want <= 100", len(events[0].Content))
	}
}
