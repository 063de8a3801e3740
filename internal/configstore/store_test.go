package configstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_LoadOrInit_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	ov, err := s.LoadOrInit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.RegistryURL != "" || ov.AutoCreateSession {
		t.Fatalf("expected zero-value overlay, got %+v", ov)
	}
	if _, err := os.Stat(filepath.Join(dir, fileName)); err != nil {
		t.Fatalf("expected default config file to be written: %v", err)
	}
}

func TestStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	want := Overlay{RegistryURL: "http://registry.internal", AutoCreateSession: true, LegacyPort: 9889}
	if err := s.Save(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.LoadOrInit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
