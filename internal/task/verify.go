package task

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/common/gopool"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// Algo selects the digest VerifyTask uses to compare files.
type Algo string

const (
	AlgoXXHash Algo = "xxhash"
	AlgoSHA256 Algo = "sha256"
)

// Mismatch records a file whose source and destination digests disagree.
type Mismatch struct {
	Path          string
	SrcDigest     string
	DestDigest    string
	SrcMissing    bool
	DestMissing   bool
}

// VerifyTask walks SrcRoot, hashes each file there and its counterpart
// under DestRoot, and records any that differ or are missing on one
// side. It is the standalone post-copy integrity check, independent of
// CopyTask's optional in-flight --checksum ledger.
type VerifyTask struct {
	SrcRoot, DestRoot string
	SrcIsDir          bool
	Algorithm         Algo

	mu        sync.Mutex
	mismatches []Mismatch
	checked    int

	log log.Logger
}

func NewVerifyTask(srcRoot, destRoot string, srcIsDir bool, algo Algo) *VerifyTask {
	if algo == "" {
		algo = AlgoXXHash
	}
	return &VerifyTask{
		SrcRoot: srcRoot, DestRoot: destRoot, SrcIsDir: srcIsDir,
		Algorithm: algo, log: log.New("task", "verify"),
	}
}

func (t *VerifyTask) Create(p *circle.Peer[wire.Item]) {
	p.Enq(wire.Item{Kind: uint8(wire.KindWalk), Path: t.SrcRoot})
}

func (t *VerifyTask) Process(p *circle.Peer[wire.Item]) {
	item := p.Deq()
	switch wire.ItemKind(item.Kind) {
	case wire.KindWalk:
		t.expand(p, item.Path)
	case wire.KindVerifyChunk:
		t.verifyFile(item.Path)
	}
}

func (t *VerifyTask) expand(p *circle.Peer[wire.Item], path string) {
	fi, err := os.Lstat(path)
	if err != nil {
		t.log.Warn("stat failed", "path", path, "err", err)
		return
	}
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			t.log.Warn("readdir failed", "path", path, "err", err)
			return
		}
		for _, e := range entries {
			p.Enq(wire.Item{Kind: uint8(wire.KindWalk), Path: filepath.Join(path, e.Name())})
		}
		return
	}
	p.Enq(wire.Item{Kind: uint8(wire.KindVerifyChunk), Path: path})
}

func (t *VerifyTask) verifyFile(src string) {
	dst := destPath(t.SrcRoot, t.DestRoot, src, t.SrcIsDir)

	var srcDigest, destDigest string
	var srcMissing, destMissing bool
	var wg sync.WaitGroup
	wg.Add(2)

	submit := func(fn func()) {
		if err := gopool.Submit(fn); err != nil {
			fn()
		}
	}

	submit(func() {
		defer wg.Done()
		d, err := t.digest(src)
		if os.IsNotExist(err) {
			srcMissing = true
			return
		}
		if err != nil {
			t.log.Warn("hash source failed", "path", src, "err", err)
			return
		}
		srcDigest = d
	})
	submit(func() {
		defer wg.Done()
		d, err := t.digest(dst)
		if os.IsNotExist(err) {
			destMissing = true
			return
		}
		if err != nil {
			t.log.Warn("hash dest failed", "path", dst, "err", err)
			return
		}
		destDigest = d
	})
	wg.Wait()

	t.mu.Lock()
	t.checked++
	if srcMissing || destMissing || srcDigest != destDigest {
		t.mismatches = append(t.mismatches, Mismatch{
			Path: src, SrcDigest: srcDigest, DestDigest: destDigest,
			SrcMissing: srcMissing, DestMissing: destMissing,
		})
	}
	t.mu.Unlock()
}

func (t *VerifyTask) digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if t.Algorithm == AlgoSHA256 {
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Mismatches returns every file found to differ between source and
// destination so far.
func (t *VerifyTask) Mismatches() []Mismatch {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Mismatch, len(t.mismatches))
	copy(out, t.mismatches)
	return out
}

// Checked reports how many files this peer has compared so far.
func (t *VerifyTask) Checked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checked
}
