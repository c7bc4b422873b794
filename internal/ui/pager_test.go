package ui

import (
	"bytes"
	"os/exec"
	"testing"
)

func TestToPagerWritesToGivenWriter(t *testing.T) {
	t.Setenv("MJ_PAGER", "false")
	t.Setenv("MJ_NO_PAGER", "")
	for _, opts := range []PagerOptions{{}, {NoPager: true}} {
		var buf bytes.Buffer
		if err := ToPager(&buf, "line one\nline two\n", opts); err != nil {
			t.Fatalf("ToPager(%+v): %v", opts, err)
		}
		if got := buf.String(); got != "line one\nline two\n" {
			t.Errorf("ToPager(%+v) wrote %q", opts, got)
		}
	}
}

func TestRunPagerOutputGoesToWriter(t *testing.T) {
	cat, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	var buf bytes.Buffer
	if err := runPager(&buf, []string{cat}, "paged\n"); err != nil {
		t.Fatalf("runPager: %v", err)
	}
	if got := buf.String(); got != "paged\n" {
		t.Errorf("pager output = %q, want it on the writer", got)
	}
}

func TestPagerCommand(t *testing.T) {
	tests := []struct {
		name, mj, pager, want string
	}{
		{"default", "", "", "less"},
		{"PAGER", "", "more", "more"},
		{"MJ_PAGER wins", "most -s", "more", "most -s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MJ_PAGER", tt.mj)
			t.Setenv("PAGER", tt.pager)
			if got := pagerCommand(); got != tt.want {
				t.Errorf("pagerCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}
