package burnchain

import (
	"testing"

	"github.com/Klingon-tech/klingnet-chain/internal/storage"
	"github.com/Klingon-tech/klingnet-chain/internal/testutil"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// TestIngest_FastPathAppend covers scenario 1: ingest A(h=1,parent=0x00),
// then B(h=2,parent=A). Both canonical, tip=B, no reorg.
func TestIngest_FastPathAppend(t *testing.T) {
	store := NewStore(storage.NewMemory())
	ig := NewIngest(store)

	a := Header{Height: 1, HeaderHash: testutil.FakeL1Hash("a"), ParentHeaderHash: types.L1BlockHash{}}
	if _, reorged, err := ig.Deliver(a); err != nil || reorged {
		t.Fatalf("deliver A: reorged=%v err=%v", reorged, err)
	}

	b := Header{Height: 2, HeaderHash: testutil.FakeL1Hash("b"), ParentHeaderHash: a.HeaderHash}
	if _, reorged, err := ig.Deliver(b); err != nil || reorged {
		t.Fatalf("deliver B: reorged=%v err=%v", reorged, err)
	}

	tip, err := store.TipCanonical()
	if err != nil {
		t.Fatalf("TipCanonical: %v", err)
	}
	if tip.HeaderHash != b.HeaderHash {
		t.Errorf("tip = %s, want B", tip.HeaderHash)
	}
	gotA, _ := store.Get(a.HeaderHash)
	if !gotA.IsCanonical {
		t.Error("A should be canonical")
	}
}

// TestIngest_SideBranchLosesTie covers scenario 2: ingest A(h=1,hash=0x01,
// parent=0x00) then A'(h=1,hash=0x00,parent=0x00). Tip remains A.
func TestIngest_SideBranchLosesTie(t *testing.T) {
	store := NewStore(storage.NewMemory())
	ig := NewIngest(store)

	a := Header{Height: 1, HeaderHash: types.L1BlockHash{0x01}}
	if _, _, err := ig.Deliver(a); err != nil {
		t.Fatalf("deliver A: %v", err)
	}

	aPrime := Header{Height: 1, HeaderHash: types.L1BlockHash{0x00}}
	if _, reorged, err := ig.Deliver(aPrime); err != nil || reorged {
		t.Fatalf("deliver A': reorged=%v err=%v", reorged, err)
	}

	tip, err := store.TipCanonical()
	if err != nil {
		t.Fatalf("TipCanonical: %v", err)
	}
	if tip.HeaderHash != a.HeaderHash {
		t.Errorf("tip = %s, want A (greater hash)", tip.HeaderHash)
	}
	gotAPrime, _ := store.Get(aPrime.HeaderHash)
	if gotAPrime.IsCanonical {
		t.Error("A' should not be canonical")
	}
}

// TestIngest_ReorgByLength covers scenario 3: after the fast-path-append
// scenario, ingest C(h=3, parent=X) where X is a non-canonical sibling of
// A at h=1 delivered earlier. Expect a reorg flipping C's ancestry
// canonical and {A,B} non-canonical, GCA height 0.
func TestIngest_ReorgByLength(t *testing.T) {
	store := NewStore(storage.NewMemory())
	ig := NewIngest(store)

	genesis := Header{Height: 0, HeaderHash: testutil.FakeL1Hash("genesis")}
	if _, _, err := ig.Deliver(genesis); err != nil {
		t.Fatalf("deliver genesis: %v", err)
	}

	a := Header{Height: 1, HeaderHash: testutil.FakeL1Hash("a"), ParentHeaderHash: genesis.HeaderHash}
	if _, _, err := ig.Deliver(a); err != nil {
		t.Fatalf("deliver A: %v", err)
	}
	b := Header{Height: 2, HeaderHash: testutil.FakeL1Hash("b"), ParentHeaderHash: a.HeaderHash}
	if _, _, err := ig.Deliver(b); err != nil {
		t.Fatalf("deliver B: %v", err)
	}

	// X: a non-canonical sibling of A at height 1, same parent (genesis).
	x := Header{Height: 1, HeaderHash: testutil.FakeL1Hash("x"), ParentHeaderHash: genesis.HeaderHash}
	if _, reorged, err := ig.Deliver(x); err != nil || reorged {
		t.Fatalf("deliver X: reorged=%v err=%v", reorged, err)
	}

	c := Header{Height: 3, HeaderHash: testutil.FakeL1Hash("c"), ParentHeaderHash: x.HeaderHash}
	gca, reorged, err := ig.Deliver(c)
	if err != nil {
		t.Fatalf("deliver C: %v", err)
	}
	if !reorged {
		t.Fatal("expected C's delivery to trigger a reorg")
	}
	if gca != genesis.Height {
		t.Errorf("GCA height = %d, want %d", gca, genesis.Height)
	}

	for _, want := range []struct {
		h         Header
		canonical bool
	}{
		{genesis, true}, {x, true}, {c, true}, {a, false}, {b, false},
	} {
		got, err := store.Get(want.h.HeaderHash)
		if err != nil {
			t.Fatalf("Get %s: %v", want.h.HeaderHash, err)
		}
		if got.IsCanonical != want.canonical {
			t.Errorf("%s.IsCanonical = %v, want %v", want.h.HeaderHash, got.IsCanonical, want.canonical)
		}
	}

	tip, err := store.TipCanonical()
	if err != nil {
		t.Fatalf("TipCanonical: %v", err)
	}
	if tip.HeaderHash != c.HeaderHash {
		t.Errorf("tip = %s, want C", tip.HeaderHash)
	}
}
