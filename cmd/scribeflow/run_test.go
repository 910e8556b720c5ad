package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListFlowsPrintsEveryFlow(t *testing.T) {
	var out bytes.Buffer
	if err := listFlows(&out); err != nil {
		t.Fatalf("listFlows() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 flows, got %d:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "transcribe-audio") || !strings.Contains(lines[0], "[audioDataUri]") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}

func TestReadInputFromStdinAndFile(t *testing.T) {
	in, err := readInput("-", strings.NewReader(`{"noteContent":"### Plan"}`))
	if err != nil {
		t.Fatalf("readInput(stdin) error = %v", err)
	}
	if in["noteContent"] != "### Plan" {
		t.Fatalf("unexpected input: %+v", in)
	}

	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(`{"transcript":"t","headings":["a"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	in, err = readInput(path, nil)
	if err != nil {
		t.Fatalf("readInput(file) error = %v", err)
	}
	if in["transcript"] != "t" {
		t.Fatalf("unexpected input: %+v", in)
	}

	if _, err := readInput("-", strings.NewReader("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
