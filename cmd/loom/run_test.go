package main

import "testing"

func TestParseContextFlags(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: nil},
		{name: "single pair", pairs: []string{"repo=loom"}, want: map[string]string{"repo": "loom"}},
		{name: "value with equals", pairs: []string{"query=a=b"}, want: map[string]string{"query": "a=b"}},
		{name: "missing equals", pairs: []string{"repoloom"}, wantErr: true},
		{name: "empty key", pairs: []string{"=value"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseContextFlags(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseContextFlags: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "(unset)" {
		t.Errorf("maskKey(empty) = %q", got)
	}
	if got := maskKey("short"); got != "****" {
		t.Errorf("maskKey(short) = %q", got)
	}
	if got := maskKey("sk-ant-abcdef123456"); got != "sk-a...3456" {
		t.Errorf("maskKey(long) = %q", got)
	}
}
