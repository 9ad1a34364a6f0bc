package wire

import "testing"

func TestSignalRoundTrip(t *testing.T) {
	for _, s := range []Signal{Normal, Abort, Zero} {
		b, err := EncodeSignal(s)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeSignal(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != s {
			t.Errorf("got %v, want %v", got, s)
		}
	}
}

func TestColorRoundTrip(t *testing.T) {
	for _, c := range []Color{White, Black, Terminate} {
		b, err := EncodeColor(c)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeColor(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != c {
			t.Errorf("got %v, want %v", got, c)
		}
	}
}

func TestItemsRoundTrip(t *testing.T) {
	items := [][]byte{[]byte("a"), []byte("bb"), {}}
	b, err := EncodeItems(items)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeItems(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("got %d items, want %d", len(got), len(items))
	}
	for i := range items {
		if string(got[i]) != string(items[i]) {
			t.Errorf("item %d: got %q, want %q", i, got[i], items[i])
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := Snapshot{
		Src: 1, Dest: 2,
		WorkQueue: [][]byte{[]byte("x"), []byte("y")},
		TaskState: []byte("state"),
	}
	b, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSnapshot(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Src != snap.Src || got.Dest != snap.Dest || len(got.WorkQueue) != len(snap.WorkQueue) {
		t.Errorf("snapshot mismatch: got %+v, want %+v", got, snap)
	}
}
