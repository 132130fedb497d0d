package mempool

import (
	"testing"

	"github.com/Klingon-tech/klingnet-chain/internal/storage"
	"github.com/Klingon-tech/klingnet-chain/internal/testutil"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func sampleTx(label string, originNonce uint64) MempoolTx {
	return MempoolTx{
		TxId:            testutil.FakeTxId(label),
		Tx:              []byte("tx-bytes-" + label),
		TxFee:           100,
		Length:          50,
		OriginAddress:   "SP1ORIGIN",
		OriginNonce:     originNonce,
		ConsensusHash:   testutil.FakeConsensusHash(1, "main"),
		BlockHeaderHash: testutil.FakeL2Hash("tip"),
		Height:          5,
		AcceptTime:      1000,
	}
}

func TestStore_InsertGet(t *testing.T) {
	s := testStore(t)
	tx := sampleTx("tx1", 0)
	if err := s.Insert(tx); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.Get(tx.TxId)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OriginAddress != tx.OriginAddress || got.OriginNonce != tx.OriginNonce || got.TxFee != tx.TxFee {
		t.Errorf("Get = %+v, want matching fields from %+v", got, tx)
	}
	if string(got.Tx) != string(tx.Tx) {
		t.Errorf("Tx bytes mismatch: got %q want %q", got.Tx, tx.Tx)
	}
}

func TestStore_GetByOriginNonce(t *testing.T) {
	s := testStore(t)
	tx := sampleTx("tx2", 7)
	if err := s.Insert(tx); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, found, err := s.GetByOriginNonce("SP1ORIGIN", 7)
	if err != nil {
		t.Fatalf("GetByOriginNonce: %v", err)
	}
	if !found {
		t.Fatal("expected row to be found")
	}
	if got.TxId != tx.TxId {
		t.Errorf("TxId = %s, want %s", got.TxId, tx.TxId)
	}

	if _, found, err := s.GetByOriginNonce("SP1ORIGIN", 8); err != nil || found {
		t.Errorf("expected no row at nonce 8, found=%v err=%v", found, err)
	}
}

func TestStore_Replace_PreservesNonceSlot(t *testing.T) {
	s := testStore(t)
	original := sampleTx("tx3", 3)
	original.TxFee = 10
	if err := s.Insert(original); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	replacement := sampleTx("tx3-rbf", 3)
	replacement.TxFee = 999
	if err := s.Replace(original.TxId, replacement); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if has, _ := s.Has(original.TxId); has {
		t.Error("original txid should be gone after replace")
	}
	got, found, err := s.GetByOriginNonce("SP1ORIGIN", 3)
	if err != nil || !found {
		t.Fatalf("GetByOriginNonce after replace: found=%v err=%v", found, err)
	}
	if got.TxId != replacement.TxId || got.TxFee != 999 {
		t.Errorf("Replace did not preserve slot correctly: %+v", got)
	}
}

func TestStore_DeleteBelowHeight(t *testing.T) {
	s := testStore(t)
	old := sampleTx("old", 0)
	old.Height = 1
	fresh := sampleTx("fresh", 1)
	fresh.Height = 10

	if err := s.Insert(old); err != nil {
		t.Fatalf("Insert old: %v", err)
	}
	if err := s.Insert(fresh); err != nil {
		t.Fatalf("Insert fresh: %v", err)
	}

	dropped, err := s.DeleteBelowHeight(5)
	if err != nil {
		t.Fatalf("DeleteBelowHeight: %v", err)
	}
	if len(dropped) != 1 || dropped[0] != old.TxId {
		t.Fatalf("dropped = %+v, want [%s]", dropped, old.TxId)
	}
	if has, _ := s.Has(old.TxId); has {
		t.Error("old tx should have been deleted")
	}
	if has, _ := s.Has(fresh.TxId); !has {
		t.Error("fresh tx should still be present")
	}
}

func TestStore_LastKnownNonceSharedAcrossRows(t *testing.T) {
	s := testStore(t)
	first := sampleTx("a1", 5)
	second := sampleTx("a2", 6)
	if err := s.Insert(first); err != nil {
		t.Fatalf("Insert first: %v", err)
	}
	if err := s.Insert(second); err != nil {
		t.Fatalf("Insert second: %v", err)
	}

	if err := s.SetLastKnownOriginNonce("SP1ORIGIN", 6); err != nil {
		t.Fatalf("SetLastKnownOriginNonce: %v", err)
	}

	gotFirst, err := s.Get(first.TxId)
	if err != nil {
		t.Fatalf("Get first: %v", err)
	}
	gotSecond, err := s.Get(second.TxId)
	if err != nil {
		t.Fatalf("Get second: %v", err)
	}
	if gotFirst.LastKnownOriginNonce == nil || *gotFirst.LastKnownOriginNonce != 6 {
		t.Errorf("first row last-known = %v, want 6", gotFirst.LastKnownOriginNonce)
	}
	if gotSecond.LastKnownOriginNonce == nil || *gotSecond.LastKnownOriginNonce != 6 {
		t.Errorf("second row last-known = %v, want 6", gotSecond.LastKnownOriginNonce)
	}
}

func TestStore_FeeRankOrdering(t *testing.T) {
	s := testStore(t)
	low := sampleTx("low", 0)
	low.OriginAddress = "SP_LOW"
	low.HasFeeRate = true
	low.FeeRate = 1.0

	high := sampleTx("high", 0)
	high.OriginAddress = "SP_HIGH"
	high.HasFeeRate = true
	high.FeeRate = 9.0

	if err := s.Insert(low); err != nil {
		t.Fatalf("Insert low: %v", err)
	}
	if err := s.Insert(high); err != nil {
		t.Fatalf("Insert high: %v", err)
	}

	var order []types.TxId
	err := s.ForEachEstimatedByFeeRateDesc(func(tx MempoolTx) (bool, error) {
		order = append(order, tx.TxId)
		return true, nil
	})
	if err != nil {
		t.Fatalf("ForEachEstimatedByFeeRateDesc: %v", err)
	}
	if len(order) != 2 || order[0] != high.TxId || order[1] != low.TxId {
		t.Errorf("order = %v, want [high, low]", order)
	}
}
