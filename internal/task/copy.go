package task

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// DefaultChunkSize is the byte range each copy work item covers for
// files larger than itself; smaller files copy in one chunk.
const DefaultChunkSize = 4 << 20 // 4 MiB

// ChecksumEntry records one chunk's digest for the --checksum ledger,
// keyed by destination path.
type ChecksumEntry struct {
	Off, Length uint64
	Digest      uint64
}

// CopyTask walks SrcRoot and copies every regular file under it into
// DestRoot, preserving relative structure. Large files are split into
// independently stealable chunks instead of copied as a single
// monolithic item.
type CopyTask struct {
	SrcRoot, DestRoot string
	SrcIsDir          bool
	ChunkSize         int64
	Checksum          bool

	mu        sync.Mutex
	ledger    map[string][]ChecksumEntry
	bytesCopied int64

	rfd, wfd *lru.Cache[string, *os.File]
	log      log.Logger
}

// NewCopyTask constructs a CopyTask for one peer. fdCacheSize bounds the
// number of concurrently open source and destination descriptors this
// peer keeps around between chunks of the same file.
func NewCopyTask(srcRoot, destRoot string, srcIsDir bool, fdCacheSize int, checksum bool) *CopyTask {
	if fdCacheSize < 1 {
		fdCacheSize = 1
	}
	t := &CopyTask{
		SrcRoot:   srcRoot,
		DestRoot:  destRoot,
		SrcIsDir:  srcIsDir,
		ChunkSize: DefaultChunkSize,
		Checksum:  checksum,
		ledger:    make(map[string][]ChecksumEntry),
		log:       log.New("task", "copy"),
	}
	t.rfd, _ = lru.NewWithEvict[string, *os.File](fdCacheSize, func(_ string, f *os.File) { f.Close() })
	t.wfd, _ = lru.NewWithEvict[string, *os.File](fdCacheSize, func(_ string, f *os.File) { f.Close() })
	return t
}

func (t *CopyTask) Create(p *circle.Peer[wire.Item]) {
	p.Enq(wire.Item{Kind: uint8(wire.KindWalk), Path: t.SrcRoot})
}

func (t *CopyTask) Process(p *circle.Peer[wire.Item]) {
	item := p.Deq()
	switch wire.ItemKind(item.Kind) {
	case wire.KindWalk:
		t.expand(p, item.Path)
	case wire.KindCopyChunk:
		if err := t.copyChunk(item); err != nil {
			t.log.Error("copy chunk failed", "path", item.Path, "off", item.Off, "err", err)
		}
	}
}

func (t *CopyTask) expand(p *circle.Peer[wire.Item], path string) {
	fi, err := os.Lstat(path)
	if err != nil {
		t.log.Warn("stat failed", "path", path, "err", err)
		return
	}
	if fi.IsDir() {
		dst := destPath(t.SrcRoot, t.DestRoot, path, t.SrcIsDir)
		if err := os.MkdirAll(dst, 0o755); err != nil {
			t.log.Warn("mkdir failed", "path", dst, "err", err)
			return
		}
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
	size := fi.Size()
	if size == 0 {
		dst := destPath(t.SrcRoot, t.DestRoot, path, t.SrcIsDir)
		if _, err := os.Create(dst); err != nil {
			t.log.Warn("create empty file failed", "path", dst, "err", err)
		}
		return
	}
	chunk := t.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	for off := int64(0); off < size; off += chunk {
		length := chunk
		if off+length > size {
			length = size - off
		}
		p.Enq(wire.Item{
			Kind:   uint8(wire.KindCopyChunk),
			Path:   path,
			Off:    uint64(off),
			Length: uint64(length),
		})
	}
}

func (t *CopyTask) copyChunk(item wire.Item) error {
	dst := destPath(t.SrcRoot, t.DestRoot, item.Path, t.SrcIsDir)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "mkdir dest parent")
	}

	rf, err := t.openRead(item.Path)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	wf, err := t.openWrite(dst)
	if err != nil {
		return errors.Wrap(err, "open dest")
	}

	buf := make([]byte, item.Length)
	if _, err := rf.ReadAt(buf, int64(item.Off)); err != nil && err != io.EOF {
		return errors.Wrap(err, "read chunk")
	}
	if _, err := wf.WriteAt(buf, int64(item.Off)); err != nil {
		return errors.Wrap(err, "write chunk")
	}

	t.mu.Lock()
	t.bytesCopied += int64(len(buf))
	if t.Checksum {
		t.ledger[dst] = append(t.ledger[dst], ChecksumEntry{
			Off: item.Off, Length: item.Length, Digest: xxhash.Sum64(buf),
		})
	}
	t.mu.Unlock()
	return nil
}

func (t *CopyTask) openRead(path string) (*os.File, error) {
	if f, ok := t.rfd.Get(path); ok {
		return f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	t.rfd.Add(path, f)
	return f, nil
}

func (t *CopyTask) openWrite(path string) (*os.File, error) {
	if f, ok := t.wfd.Get(path); ok {
		return f, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	t.wfd.Add(path, f)
	return f, nil
}

// BytesCopied reports the cumulative bytes written by this peer so far.
func (t *CopyTask) BytesCopied() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bytesCopied
}

// ChecksumLedger returns a snapshot of the per-chunk digests recorded
// when Checksum is enabled, keyed by destination path.
func (t *CopyTask) ChecksumLedger() map[string][]ChecksumEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]ChecksumEntry, len(t.ledger))
	for k, v := range t.ledger {
		cp := make([]ChecksumEntry, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// CheckpointSnapshot implements circle.Snapshotter by saving this peer's
// bytesCopied counter, so a resumed copy job's byte total continues from
// the earlier run. The checksum ledger is not part of the snapshot.
func (t *CopyTask) CheckpointSnapshot() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return []byte(fmt.Sprintf("bytesCopied=%d", t.bytesCopied)), nil
}

func (t *CopyTask) RestoreSnapshot(data []byte) error {
	var n int64
	if _, err := fmt.Sscanf(string(data), "bytesCopied=%d", &n); err != nil {
		return err
	}
	t.mu.Lock()
	t.bytesCopied = n
	t.mu.Unlock()
	return nil
}
