package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

func TestCopyTaskSinglePeerRoundTrip(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")

	mustWrite(t, filepath.Join(src, "a.txt"), "hello world")
	if err := os.Mkdir(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(src, "sub", "b.txt"), "nested file contents")

	trs := transport.NewMemNetwork(1)
	ct := NewCopyTask(src, dest, true, 8, true)
	p := circle.NewPeer[wire.Item](trs[0], ItemCodec{}, ct)

	status, err := p.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if status != circle.StatusTerminated {
		t.Fatalf("status = %v, want terminated", status)
	}

	base := filepath.Base(src)
	assertFileContents(t, filepath.Join(dest, base, "a.txt"), "hello world")
	assertFileContents(t, filepath.Join(dest, base, "sub", "b.txt"), "nested file contents")

	if ct.BytesCopied() != int64(len("hello world")+len("nested file contents")) {
		t.Errorf("BytesCopied = %d", ct.BytesCopied())
	}
	if len(ct.ChecksumLedger()) == 0 {
		t.Error("expected checksum ledger entries when Checksum is enabled")
	}
}

func mustWrite(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertFileContents(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if string(got) != want {
		t.Errorf("%s contents = %q, want %q", path, got, want)
	}
}
