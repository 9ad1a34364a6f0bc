package circle

import "testing"

func TestSplitManySingleRequesterNeverDegenerate(t *testing.T) {
	cases := []struct {
		total     int
		wantKeep  int
		wantShare int
	}{
		{0, 0, 0},
		{1, 1, 0},
		{2, 1, 1},
		{3, 1, 2},
		{4, 2, 2},
		{7, 3, 4},
	}
	for _, c := range cases {
		keep, shares := splitMany(c.total, 1)
		if keep != c.wantKeep || shares[0] != c.wantShare {
			t.Errorf("splitMany(%d, 1) = (%d, %v), want (%d, [%d])", c.total, keep, shares, c.wantKeep, c.wantShare)
		}
		if keep+shares[0] != c.total {
			t.Errorf("splitMany(%d, 1) lost items: keep+share = %d", c.total, keep+shares[0])
		}
	}
}

func TestSplitManyBatchesAllRequestersAtOnce(t *testing.T) {
	// The case from the equal-split invariant: W=8 with 3 simultaneous
	// requesters must leave ceil(8/4)=2 items local, not collapse to 1
	// the way three sequential one-at-a-time halvings would (8->4,4->2,2->1).
	keep, shares := splitMany(8, 3)
	if keep != 2 {
		t.Fatalf("keep = %d, want 2", keep)
	}
	if len(shares) != 3 {
		t.Fatalf("len(shares) = %d, want 3", len(shares))
	}
	total := keep
	for _, s := range shares {
		if s < 2 {
			t.Errorf("share = %d, want at least 2", s)
		}
		total += s
	}
	if total != 8 {
		t.Errorf("total after split = %d, want 8", total)
	}
}

func TestSplitManyRemainderGoesToFirstRequesters(t *testing.T) {
	// total=10, 3 requesters: parties=4, base=2, remainder=2, so the
	// first two requesters get 3 each and the third gets the base 2.
	keep, shares := splitMany(10, 3)
	if keep != 2 {
		t.Fatalf("keep = %d, want 2", keep)
	}
	want := []int{3, 3, 2}
	for i, w := range want {
		if shares[i] != w {
			t.Errorf("shares[%d] = %d, want %d", i, shares[i], w)
		}
	}
}

func TestSplitManyNoRequesters(t *testing.T) {
	keep, shares := splitMany(5, 0)
	if keep != 5 || shares != nil {
		t.Errorf("splitMany(5, 0) = (%d, %v), want (5, nil)", keep, shares)
	}
}

func TestSplitManyMoreRequestersThanItems(t *testing.T) {
	keep, shares := splitMany(2, 3)
	if keep != 0 {
		t.Errorf("keep = %d, want 0", keep)
	}
	sum := keep
	for _, s := range shares {
		sum += s
	}
	if sum != 2 {
		t.Errorf("total after split = %d, want 2", sum)
	}
}
