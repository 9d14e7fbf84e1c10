package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestTaskLifecycle(t *testing.T) {
	dataDir := t.TempDir()

	if _, err := executeCommand(t, "set", "task-1", "title=buy milk", "priority=2", "--data-dir", dataDir); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	out, err := executeCommand(t, "get", "task-1", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !strings.Contains(out, "title = buy milk") {
		t.Errorf("get output missing title: %q", out)
	}
	if !strings.Contains(out, "priority = 2") {
		t.Errorf("get output missing priority: %q", out)
	}

	out, err = executeCommand(t, "list", "--prefix", "task-", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "task-1") {
		t.Errorf("list output missing task-1: %q", out)
	}

	out, err = executeCommand(t, "query", "priority", "2", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(out, "task-1") {
		t.Errorf("query output missing task-1: %q", out)
	}

	if _, err := executeCommand(t, "del", "task-1", "--data-dir", dataDir); err != nil {
		t.Fatalf("del failed: %v", err)
	}

	if _, err := executeCommand(t, "get", "task-1", "--data-dir", dataDir); err == nil {
		t.Error("expected get after delete to fail")
	}
}

func TestSetRejectsMalformedAttribute(t *testing.T) {
	dataDir := t.TempDir()

	if _, err := executeCommand(t, "set", "task-1", "noequals", "--data-dir", dataDir); err == nil {
		t.Error("expected malformed attribute to fail")
	}
}
