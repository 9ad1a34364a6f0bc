// Package task implements the concrete jobs the driver in
// internal/circle runs: recursively discovering a source tree,
// copying it in chunks, and verifying copied data against its source.
package task

import "github.com/vikramkhatri/pcircle/internal/wire"

// ItemCodec adapts wire.Item to the circle.Codec contract every task in
// this package shares.
type ItemCodec struct{}

func (ItemCodec) Encode(item wire.Item) ([]byte, error) { return wire.EncodeItem(item) }
func (ItemCodec) Decode(data []byte) (wire.Item, error) { return wire.DecodeItem(data) }

func (ItemCodec) Equal(a, b wire.Item) bool {
	return a.Kind == b.Kind && a.Path == b.Path && a.Off == b.Off && a.Length == b.Length
}
