package task

import (
	"path/filepath"
	"testing"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

func TestVerifyTaskFlagsModifiedFile(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	mustWrite(t, filepath.Join(src, "a.txt"), "original contents")
	mustWrite(t, filepath.Join(dest, "a.txt"), "original contents")
	mustWrite(t, filepath.Join(src, "b.txt"), "unchanged")
	mustWrite(t, filepath.Join(dest, "b.txt"), "unchanged")
	mustWrite(t, filepath.Join(src, "c.txt"), "will differ")
	mustWrite(t, filepath.Join(dest, "c.txt"), "was changed on disk")

	trs := transport.NewMemNetwork(1)
	vt := NewVerifyTask(src, dest, true, AlgoXXHash)
	p := circle.NewPeer[wire.Item](trs[0], ItemCodec{}, vt)

	status, err := p.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if status != circle.StatusTerminated {
		t.Fatalf("status = %v, want terminated", status)
	}

	if vt.Checked() != 3 {
		t.Fatalf("Checked() = %d, want 3", vt.Checked())
	}
	mismatches := vt.Mismatches()
	if len(mismatches) != 1 {
		t.Fatalf("Mismatches() = %v, want exactly one entry", mismatches)
	}
	if filepath.Base(mismatches[0].Path) != "c.txt" {
		t.Errorf("mismatch path = %q, want c.txt", mismatches[0].Path)
	}
	if mismatches[0].SrcMissing || mismatches[0].DestMissing {
		t.Error("both files exist, neither should be reported missing")
	}
}

func TestVerifyTaskFlagsMissingDestFile(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	mustWrite(t, filepath.Join(src, "only-in-src.txt"), "orphaned")

	trs := transport.NewMemNetwork(1)
	vt := NewVerifyTask(src, dest, true, AlgoSHA256)
	p := circle.NewPeer[wire.Item](trs[0], ItemCodec{}, vt)

	if _, err := p.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	mismatches := vt.Mismatches()
	if len(mismatches) != 1 || !mismatches[0].DestMissing {
		t.Fatalf("expected single dest-missing mismatch, got %v", mismatches)
	}
}

func TestVerifyTaskAllMatch(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	mustWrite(t, filepath.Join(src, "x.txt"), "same everywhere")
	mustWrite(t, filepath.Join(dest, "x.txt"), "same everywhere")

	trs := transport.NewMemNetwork(1)
	vt := NewVerifyTask(src, dest, true, AlgoXXHash)
	p := circle.NewPeer[wire.Item](trs[0], ItemCodec{}, vt)

	if _, err := p.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(vt.Mismatches()) != 0 {
		t.Errorf("expected no mismatches, got %v", vt.Mismatches())
	}
}
