package recordsdb

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("unexpected error opening store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CommandRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.CreateCommand(ctx, "echo hi", "hash-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetCommandByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != rec.ID {
		t.Fatalf("expected matching command record, got %+v", got)
	}

	missing, err := s.GetCommandByHash(ctx, "no-such-hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing hash, got %+v", missing)
	}
}

func TestStore_ExecutionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exec, err := s.CreateExecution(ctx, "cmd-1", "/tmp", "running", "proxy", map[string]any{"k": "v"}, "usage-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exitCode := 0
	if err := s.UpdateExecutionStatus(ctx, exec.ID, "done", map[string]any{"stdout": "hi"}, &exitCode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "done" || got.ExitCode == nil || *got.ExitCode != 0 {
		t.Fatalf("unexpected execution state: %+v", got)
	}
}

func TestStore_Whitelist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.IsWhitelisted(ctx, "unknown-command")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for unknown command")
	}
}
