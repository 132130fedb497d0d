package mempool

import (
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-chain/internal/storage"
	"github.com/Klingon-tech/klingnet-chain/internal/testutil"
)

func TestIterateCandidates_VisitsInNonceOrder(t *testing.T) {
	store, err := NewStore(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	cs := newFakeChainstate()
	cs.nonces["SP1"] = 5

	tip := testutil.FakeConsensusHash(1, "main")
	for i, nonce := range []uint64{7, 5, 6} {
		tx := candidateTx(string(rune('a'+i)), "SP1", nonce, 10, tip)
		tx.HasFeeRate = true
		tx.FeeRate = 1.0
		if err := store.Insert(tx); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	var visitedNonces []uint64
	err = IterateCandidates(store, cs, 0, time.Second, func(tx MempoolTx, _ bool) (VisitResult, error) {
		visitedNonces = append(visitedNonces, tx.OriginNonce)
		return VisitResult{Accept: true}, nil
	})
	if err != nil {
		t.Fatalf("IterateCandidates: %v", err)
	}

	want := []uint64{5, 6, 7}
	if len(visitedNonces) != len(want) {
		t.Fatalf("visited %v, want %v", visitedNonces, want)
	}
	for i, n := range want {
		if visitedNonces[i] != n {
			t.Errorf("visitedNonces[%d] = %d, want %d", i, visitedNonces[i], n)
		}
	}
}

func TestIterateCandidates_StopsWhenVisitRejects(t *testing.T) {
	store, err := NewStore(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	cs := newFakeChainstate()
	cs.nonces["SP1"] = 0
	tip := testutil.FakeConsensusHash(1, "main")

	tx := candidateTx("only", "SP1", 0, 10, tip)
	tx.HasFeeRate = true
	if err := store.Insert(tx); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	calls := 0
	err = IterateCandidates(store, cs, 0, time.Second, func(tx MempoolTx, _ bool) (VisitResult, error) {
		calls++
		return VisitResult{Accept: false}, nil
	})
	if err != nil {
		t.Fatalf("IterateCandidates: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (iteration should stop once visit_fn declines)", calls)
	}
}

func TestIterateCandidates_UnestimatedBranchOrdersByTxFeeDesc(t *testing.T) {
	store, err := NewStore(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	cs := newFakeChainstate()
	cs.nonces["SP_LOW"] = 0
	cs.nonces["SP_HIGH"] = 0
	tip := testutil.FakeConsensusHash(1, "main")

	low := candidateTx("low", "SP_LOW", 0, 5, tip)
	high := candidateTx("high", "SP_HIGH", 0, 500, tip)
	if err := store.Insert(low); err != nil {
		t.Fatalf("Insert low: %v", err)
	}
	if err := store.Insert(high); err != nil {
		t.Fatalf("Insert high: %v", err)
	}

	var order []uint64
	err = IterateCandidates(store, cs, 100, time.Second, func(tx MempoolTx, _ bool) (VisitResult, error) {
		order = append(order, tx.TxFee)
		return VisitResult{Accept: true}, nil
	})
	if err != nil {
		t.Fatalf("IterateCandidates: %v", err)
	}
	if len(order) != 2 || order[0] != 500 || order[1] != 5 {
		t.Errorf("order = %v, want [500, 5]", order)
	}
}
