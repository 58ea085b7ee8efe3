package seeds

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesHostPortLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	content := "127.0.0.1:9000\n# a comment\n\n10.0.0.5:9001\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	addrs, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("Load() returned %d addrs, want 2", len(addrs))
	}
	if addrs[0].Port != 9000 || addrs[1].Port != 9001 {
		t.Errorf("unexpected ports: %d, %d", addrs[0].Port, addrs[1].Port)
	}
}

func TestLoadRejectsInvalidAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	if err := os.WriteFile(path, []byte("not-an-address\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() = nil error, want failure on invalid address")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Load() = nil error, want failure for missing file")
	}
}
