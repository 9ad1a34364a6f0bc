package task

import (
	"path/filepath"
	"testing"
)

func TestDestPathPreservesRelativeStructure(t *testing.T) {
	src := "/data/src"
	dest := "/data/dest"

	got := destPath(src, dest, filepath.Join(src, "a", "b.txt"), true)
	want := filepath.Join(dest, "src", "a", "b.txt")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDestPathSingleFile(t *testing.T) {
	got := destPath("/data/src/file.txt", "/data/dest/file.txt", "/data/src/file.txt", false)
	if got != "/data/dest/file.txt" {
		t.Errorf("got %q", got)
	}
}

func TestIsWithin(t *testing.T) {
	if !IsWithin("/data/src", "/data/src/sub") {
		t.Error("expected /data/src/sub to be within /data/src")
	}
	if IsWithin("/data/src", "/data/other") {
		t.Error("expected /data/other to not be within /data/src")
	}
	if !IsWithin("/data/src", "/data/src") {
		t.Error("a root should be within itself")
	}
}
