package config

import (
	"path/filepath"
	"testing"

	"github.com/coursedl/coursedl/pkg/courselib"
)

func TestDirEnvOverride(t *testing.T) {
	t.Setenv(ConfigDirEnv, "/tmp/coursedl-test")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if dir != "/tmp/coursedl-test" {
		t.Errorf("Dir = %q", dir)
	}
}

func TestSettingsDefaults(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	s, err := store.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if !s.ToPDF {
		t.Error("default ToPDF = false, want true")
	}
	if s.MaxConcurrent != courselib.DefaultMaxConcurrent {
		t.Errorf("default MaxConcurrent = %d, want %d", s.MaxConcurrent, courselib.DefaultMaxConcurrent)
	}
	if s.SavePath == "" {
		t.Error("default SavePath is empty")
	}
}

func TestSettingsRoundtrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.SetSavePath("/srv/courses"); err != nil {
		t.Fatalf("SetSavePath: %v", err)
	}
	if err := store.SetToPDF(false); err != nil {
		t.Fatalf("SetToPDF: %v", err)
	}
	if err := store.SetMaxConcurrent(7); err != nil {
		t.Fatalf("SetMaxConcurrent: %v", err)
	}

	s, err := store.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.SavePath != "/srv/courses" || s.ToPDF || s.MaxConcurrent != 7 {
		t.Errorf("settings = %+v", s)
	}

	// Values survive a reopen.
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	store, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	s, err = store.Settings()
	if err != nil {
		t.Fatalf("Settings after reopen: %v", err)
	}
	if s.SavePath != "/srv/courses" || s.ToPDF || s.MaxConcurrent != 7 {
		t.Errorf("settings after reopen = %+v", s)
	}
}

func TestSetMaxConcurrentRejectsNonPositive(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if err := store.SetMaxConcurrent(0); err == nil {
		t.Error("SetMaxConcurrent(0) accepted")
	}
}

func TestOpenCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cfg")
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()
}
