// Package wire defines the opaque, RLP-encoded payloads carried over the
// three tags in the transport layer (WORK_REQUEST, WORK_REPLY, TOKEN), per
// the wire protocol in the specification this package implements.
package wire

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Signal is the sentinel payload of a WORK_REQUEST: Normal to ask for
// work, Abort to spread an abort. A WORK_REPLY never carries a Signal;
// a reply with no work is a Count of zero, also while aborting.
type Signal uint8

const (
	Normal Signal = iota
	Abort
	Zero
)

func (s Signal) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Abort:
		return "ABORT"
	case Zero:
		return "ZERO"
	default:
		return fmt.Sprintf("Signal(%d)", uint8(s))
	}
}

// Color is the token's payload on the TOKEN tag.
type Color uint8

const (
	White Color = iota
	Black
	Terminate
)

func (c Color) String() string {
	switch c {
	case White:
		return "WHITE"
	case Black:
		return "BLACK"
	case Terminate:
		return "TERMINATE"
	default:
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
}

// EncodeSignal/DecodeSignal carry a WORK_REQUEST sentinel.
func EncodeSignal(s Signal) ([]byte, error) {
	return rlp.EncodeToBytes(uint8(s))
}

func DecodeSignal(b []byte) (Signal, error) {
	var v uint8
	if err := rlp.DecodeBytes(b, &v); err != nil {
		return 0, fmt.Errorf("wire: decode signal: %w", err)
	}
	return Signal(v), nil
}

// EncodeColor/DecodeColor carry a TOKEN message.
func EncodeColor(c Color) ([]byte, error) {
	return rlp.EncodeToBytes(uint8(c))
}

func DecodeColor(b []byte) (Color, error) {
	var v uint8
	if err := rlp.DecodeBytes(b, &v); err != nil {
		return 0, fmt.Errorf("wire: decode color: %w", err)
	}
	return Color(v), nil
}

// EncodeCount/DecodeCount carry the first message of every WORK_REPLY:
// how many work items follow in the second message, or zero when no
// second message follows.
func EncodeCount(n int) ([]byte, error) {
	return rlp.EncodeToBytes(uint64(n))
}

func DecodeCount(b []byte) (int, error) {
	var v uint64
	if err := rlp.DecodeBytes(b, &v); err != nil {
		return 0, fmt.Errorf("wire: decode count: %w", err)
	}
	return int(v), nil
}

// EncodeItems/DecodeItems carry the second message of a non-empty
// WORK_REPLY: the opaque, already-codec-encoded work items themselves.
func EncodeItems(items [][]byte) ([]byte, error) {
	return rlp.EncodeToBytes(items)
}

func DecodeItems(b []byte) ([][]byte, error) {
	var items [][]byte
	if err := rlp.DecodeBytes(b, &items); err != nil {
		return nil, fmt.Errorf("wire: decode items: %w", err)
	}
	return items, nil
}

// ItemKind classifies a unit of work carried in an Item.
type ItemKind uint8

const (
	// KindWalk is an unexamined filesystem path still needing stat/readdir.
	KindWalk ItemKind = iota
	// KindCopyChunk is one byte range of a regular file to copy.
	KindCopyChunk
	// KindVerifyChunk is one whole source file to hash and compare
	// post-copy against its destination counterpart.
	KindVerifyChunk
)

// Item is the flat, RLP-friendly representation of one unit of work for
// the built-in walk/copy/verify tasks. It carries everything needed to
// resume a chunk independently of any other item, which is what makes
// each one separately stealable.
type Item struct {
	Kind   uint8
	Path   string
	Off    uint64
	Length uint64
}

func EncodeItem(it Item) ([]byte, error) {
	b, err := rlp.EncodeToBytes(it)
	if err != nil {
		return nil, fmt.Errorf("wire: encode item: %w", err)
	}
	return b, nil
}

func DecodeItem(b []byte) (Item, error) {
	var it Item
	if err := rlp.DecodeBytes(b, &it); err != nil {
		return Item{}, fmt.Errorf("wire: decode item: %w", err)
	}
	return it, nil
}

// Snapshot is the opaque tuple a checkpoint persists for one rank: the
// token-ring neighbors it was using, its work queue, and whatever
// task-private state the running Task chose to attach.
type Snapshot struct {
	Src       uint64
	Dest      uint64
	WorkQueue [][]byte
	TaskState []byte
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	b, err := rlp.EncodeToBytes(s)
	if err != nil {
		return nil, fmt.Errorf("wire: encode snapshot: %w", err)
	}
	return b, nil
}

func DecodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := rlp.DecodeBytes(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("wire: decode snapshot: %w", err)
	}
	return s, nil
}
