package mempool

import (
	"testing"

	"github.com/Klingon-tech/klingnet-chain/internal/storage"
	"github.com/Klingon-tech/klingnet-chain/internal/testutil"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

type fakeChainstate struct {
	height      uint64
	known       bool
	ancestorMap map[[2]types.ConsensusHash]bool
	nonces      map[string]uint64
}

func newFakeChainstate() *fakeChainstate {
	return &fakeChainstate{height: 10, known: true, nonces: map[string]uint64{}}
}

func (c *fakeChainstate) HeightOf(types.ConsensusHash, types.L2BlockHash) (uint64, bool) {
	return c.height, c.known
}

func (c *fakeChainstate) NonceOf(address string) (uint64, error) {
	return c.nonces[address], nil
}

func (c *fakeChainstate) IsAncestor(candidateConsensus types.ConsensusHash, _ types.L2BlockHash, tipConsensus types.ConsensusHash, _ types.L2BlockHash) (bool, error) {
	if candidateConsensus == tipConsensus {
		return true, nil
	}
	key := [2]types.ConsensusHash{candidateConsensus, tipConsensus}
	return c.ancestorMap[key], nil
}

type allowAllAdmitter struct{}

func (allowAllAdmitter) WillAdmit(*MempoolTx) error { return nil }

type fixedEstimator struct {
	rate float64
	ok   bool
}

func (e fixedEstimator) Estimate(*MempoolTx) (float64, bool) { return e.rate, e.ok }

type recordingObserver struct {
	announced []types.TxId
	dropped   []types.TxId
}

func (o *recordingObserver) MempoolTxsDropped(txids []types.TxId, _ string) {
	o.dropped = append(o.dropped, txids...)
}
func (o *recordingObserver) AnnounceNewTx(tx *MempoolTx) {
	o.announced = append(o.announced, tx.TxId)
}

func newAdmissionFixture(t *testing.T) (*Admission, *Store, *fakeChainstate, *recordingObserver) {
	t.Helper()
	store, err := NewStore(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	cs := newFakeChainstate()
	observer := &recordingObserver{}
	admission := NewAdmission(store, cs, allowAllAdmitter{}, fixedEstimator{ok: false}, observer)
	return admission, store, cs, observer
}

func candidateTx(label, origin string, nonce uint64, fee uint64, tip types.ConsensusHash) MempoolTx {
	return MempoolTx{
		TxId:            testutil.FakeTxId(label),
		Tx:              []byte("bytes-" + label),
		TxFee:           fee,
		Length:          10,
		OriginAddress:   origin,
		OriginNonce:     nonce,
		ConsensusHash:   tip,
		BlockHeaderHash: testutil.FakeL2Hash("tip-" + tip.String()),
	}
}

func TestAdmission_AcceptsNewRow(t *testing.T) {
	admission, store, cs, observer := newAdmissionFixture(t)
	tip := testutil.FakeConsensusHash(1, "main")
	cs.known = true

	tx := candidateTx("t1", "SP1", 0, 10, tip)
	if err := admission.Submit(tx, 1000); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if has, _ := store.Has(tx.TxId); !has {
		t.Error("expected row to be stored")
	}
	if len(observer.announced) != 1 || observer.announced[0] != tx.TxId {
		t.Errorf("announced = %v", observer.announced)
	}
}

func TestAdmission_RejectsConflictingNonceWithoutOutbid(t *testing.T) {
	admission, _, cs, _ := newAdmissionFixture(t)
	tip := testutil.FakeConsensusHash(1, "main")
	cs.known = true

	first := candidateTx("t1", "SP1", 5, 100, tip)
	if err := admission.Submit(first, 1000); err != nil {
		t.Fatalf("Submit first: %v", err)
	}

	second := candidateTx("t2", "SP1", 5, 50, tip)
	err := admission.Submit(second, 1001)
	if err == nil {
		t.Fatal("expected rejection for lower-fee same-nonce candidate")
	}
	reject, ok := err.(*Reject)
	if !ok {
		t.Fatalf("expected *Reject, got %T: %v", err, err)
	}
	if reject.Reason != RejectConflictingNonceInMempool {
		t.Errorf("Reason = %v, want RejectConflictingNonceInMempool", reject.Reason)
	}
}

func TestAdmission_ReplaceByFeeRequiresStrictlyHigherFee(t *testing.T) {
	admission, store, cs, _ := newAdmissionFixture(t)
	tip := testutil.FakeConsensusHash(1, "main")
	cs.known = true

	first := candidateTx("t1", "SP1", 5, 100, tip)
	if err := admission.Submit(first, 1000); err != nil {
		t.Fatalf("Submit first: %v", err)
	}

	higher := candidateTx("t2", "SP1", 5, 150, tip)
	if err := admission.Submit(higher, 1001); err != nil {
		t.Fatalf("Submit higher-fee replacement: %v", err)
	}

	got, found, err := store.GetByOriginNonce("SP1", 5)
	if err != nil || !found {
		t.Fatalf("GetByOriginNonce: found=%v err=%v", found, err)
	}
	if got.TxId != higher.TxId {
		t.Errorf("slot holds %s, want replacement %s", got.TxId, higher.TxId)
	}
}

func TestAdmission_ReplaceAcrossFork(t *testing.T) {
	admission, store, cs, _ := newAdmissionFixture(t)
	forkA := testutil.FakeConsensusHash(1, "fork-a")
	forkB := testutil.FakeConsensusHash(1, "fork-b")
	cs.known = true
	// forkA is not recognized as an ancestor of forkB: the incumbent's
	// fork has been abandoned.
	cs.ancestorMap = map[[2]types.ConsensusHash]bool{}

	incumbent := candidateTx("t1", "SP1", 5, 500, forkA)
	if err := admission.Submit(incumbent, 1000); err != nil {
		t.Fatalf("Submit incumbent: %v", err)
	}

	candidate := candidateTx("t2", "SP1", 5, 1, forkB) // much lower fee
	if err := admission.Submit(candidate, 1001); err != nil {
		t.Fatalf("Submit across-fork candidate should succeed regardless of fee: %v", err)
	}

	got, found, err := store.GetByOriginNonce("SP1", 5)
	if err != nil || !found {
		t.Fatalf("GetByOriginNonce: found=%v err=%v", found, err)
	}
	if got.TxId != candidate.TxId {
		t.Errorf("slot holds %s, want %s (replace-across-fork)", got.TxId, candidate.TxId)
	}
}

func TestAdmission_RejectsUnknownChainTip(t *testing.T) {
	admission, _, cs, _ := newAdmissionFixture(t)
	cs.known = false

	tx := candidateTx("t1", "SP1", 0, 10, testutil.FakeConsensusHash(1, "main"))
	err := admission.Submit(tx, 1000)
	if err == nil {
		t.Fatal("expected rejection for unknown chain tip")
	}
	reject, ok := err.(*Reject)
	if !ok || reject.Reason != RejectUnknownChainTip {
		t.Fatalf("expected RejectUnknownChainTip, got %v", err)
	}
}
