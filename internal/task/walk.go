package task

import (
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// WalkTask recursively enumerates a source tree without copying
// anything. It is the `pcircle walk` job, and also the shape every
// tree-discovery half of CopyTask and VerifyTask follows.
type WalkTask struct {
	Root string

	// OnFile is called once per regular file discovered, from whichever
	// rank's Process happened to stat it. In a --local run every rank's
	// Process runs on its own goroutine in one process, so it must be
	// safe to call concurrently; the CLI's implementation updates atomic
	// counters.
	OnFile func(path string, size int64)
	// OnDir is called once per directory discovered, including Root.
	OnDir func(path string)

	log log.Logger
}

func NewWalkTask(root string) *WalkTask {
	return &WalkTask{Root: root, log: log.New("task", "walk")}
}

func (w *WalkTask) Create(p *circle.Peer[wire.Item]) {
	p.Enq(wire.Item{Kind: uint8(wire.KindWalk), Path: w.Root})
}

func (w *WalkTask) Process(p *circle.Peer[wire.Item]) {
	item := p.Deq()
	fi, err := os.Lstat(item.Path)
	if err != nil {
		w.log.Warn("stat failed", "path", item.Path, "err", err)
		return
	}
	if fi.IsDir() {
		if w.OnDir != nil {
			w.OnDir(item.Path)
		}
		entries, err := os.ReadDir(item.Path)
		if err != nil {
			w.log.Warn("readdir failed", "path", item.Path, "err", err)
			return
		}
		for _, e := range entries {
			p.Enq(wire.Item{Kind: uint8(wire.KindWalk), Path: filepath.Join(item.Path, e.Name())})
		}
		return
	}
	if w.OnFile != nil {
		w.OnFile(item.Path, fi.Size())
	}
}
