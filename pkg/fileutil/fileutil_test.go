package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetFileExtension(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"markdown file", "docs/page.md", "md"},
		{"xml file", "docs/page.xml", "xml"},
		{"no extension", "docs/page", ""},
		{"hidden file dot only", "docs/.config", "config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetFileExtension(tt.path); got != tt.expected {
				t.Errorf("GetFileExtension(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tempDir := t.TempDir()

	if err := EnsureDir(tempDir, "a", "b", "c"); err != nil {
		t.Fatalf("EnsureDir returned error: %v", err)
	}

	info, statErr := os.Stat(filepath.Join(tempDir, "a", "b", "c"))
	if statErr != nil {
		t.Fatalf("expected directory to exist: %v", statErr)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}

	// Creating an already-existing directory must not error.
	if err := EnsureDir(tempDir, "a", "b", "c"); err != nil {
		t.Errorf("EnsureDir on existing path returned error: %v", err)
	}
}

func TestWriteFile_CreatesParents(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "example.com", "docs", "page.md")

	if err := WriteFile(target, []byte("# Title\n")); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	content, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatalf("failed to read written file: %v", readErr)
	}
	if string(content) != "# Title\n" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestWriteFile_Overwrites(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "page.md")

	if err := WriteFile(target, []byte("first")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFile(target, []byte("second")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	content, _ := os.ReadFile(target)
	if string(content) != "second" {
		t.Errorf("expected overwrite, got %q", content)
	}
}
