package global

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigDir_UsesOverride(t *testing.T) {
	t.Setenv("ARTIQ_CONFIG_DIR", "/tmp/artiq-config-test")
	got, err := DefaultConfigDir()
	if err != nil {
		t.Fatalf("DefaultConfigDir returned error: %v", err)
	}
	if got != "/tmp/artiq-config-test" {
		t.Fatalf("expected override path, got %q", got)
	}
	if DefaultDBPath(got) != filepath.Join("/tmp/artiq-config-test", "artiq.db") {
		t.Fatalf("unexpected db path %q", DefaultDBPath(got))
	}
}
