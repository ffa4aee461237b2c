package tradeproof

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrDuplicateRound is returned by archives when a round id is appended
// twice. Round proofs are created at most once per round; a duplicate is a
// caller bug, not a storage fault.
var ErrDuplicateRound = errors.New("round already archived")

// DefaultCapacity bounds the in-memory proof window when Config.Capacity is
// unset. Older proofs are evicted first; evicting a round's predecessor
// degrades that round's chain-link check to "unverifiable" (see Auditor).
const DefaultCapacity = 256

// ProofRecord is the per-record entry embedded in a round proof. Only
// hashes and addressing metadata are retained; record bodies stay with the
// producer.
type ProofRecord struct {
	RecordID    string `json:"recordId"`
	ContentHash string `json:"contentHash"`
	Timestamp   string `json:"timestamp"`
	AgentID     string `json:"agentId"`
}

// RoundIntegrityProof commits one finalized round of records: the Merkle
// root over their leaf hashes plus a hash pointer to the previous round's
// proof, forming a hash chain across rounds. Created exactly once per
// round; plain JSON for external auditors.
type RoundIntegrityProof struct {
	RoundID           string        `json:"roundId"`
	MerkleRoot        string        `json:"merkleRoot"`
	LeafCount         int           `json:"leafCount"`
	Records           []ProofRecord `json:"records"`
	ProofTimestamp    time.Time     `json:"proofTimestamp"`
	PreviousProofHash *string       `json:"previousProofHash"`
}

// chainLink is the interoperable chain-hash input shape; field order is
// the wire contract, same as the canonical record encoding.
type chainLink struct {
	RoundID    string  `json:"roundId"`
	MerkleRoot string  `json:"merkleRoot"`
	Previous   *string `json:"previous"`
}

// ChainHash computes the hash pointer that the next round's proof embeds
// as previousProofHash.
func ChainHash(p *RoundIntegrityProof) string {
	return sha256Hex(encodeCanonical(chainLink{
		RoundID:    p.RoundID,
		MerkleRoot: p.MerkleRoot,
		Previous:   p.PreviousProofHash,
	}))
}

// Archive is an optional durable sink for finalized round proofs. The
// ledger tees every created proof into it before committing the round
// in memory. Implementations must return proofs from List in creation
// order.
type Archive interface {
	Append(p *RoundIntegrityProof) error
	Get(roundID string) (*RoundIntegrityProof, bool, error)
	List() ([]*RoundIntegrityProof, error)
	Close() error
}

// Config controls ledger behavior.
type Config struct {
	Capacity int     // retained proof window; 0 means DefaultCapacity
	Archive  Archive // optional durable archive (nil = in-memory only)
}

// Ledger owns the subsystem's only mutable state: the chain pointer and
// the bounded proof window. Round finalization is serialized by a single
// writer lock so concurrent rounds can never claim the same predecessor
// and fork the chain; reads are safe alongside it.
type Ledger struct {
	mu       sync.Mutex
	cfg      Config
	window   *lru.Cache[string, *RoundIntegrityProof]
	lastHash *string
}

// NewLedger creates a ledger with an empty chain.
func NewLedger(cfg Config) (*Ledger, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	window, err := lru.New[string, *RoundIntegrityProof](cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("proof window: %w", err)
	}
	return &Ledger{cfg: cfg, window: window}, nil
}

// CreateRoundProof hashes every record in submission order, builds the
// round's Merkle tree, links the proof to the previous round, advances the
// chain pointer, and inserts the proof into the bounded window (oldest
// evicted first). An empty roundID gets a generated UUID.
//
// Not idempotent: a second call for the same roundID advances the chain
// again and displaces the first proof in the window, leaving linkage the
// auditor cannot fully reconcile. Callers must guarantee at-most-once
// creation per round; the SQLite archive's unique round id enforces this
// when configured, and a rejected append leaves the ledger unchanged.
func (l *Ledger) CreateRoundProof(roundID string, records []Record) (*RoundIntegrityProof, error) {
	if roundID == "" {
		roundID = uuid.NewString()
	}

	leaves := make([]string, len(records))
	proofRecords := make([]ProofRecord, len(records))
	for i, r := range records {
		leaves[i] = HashRecord(r)
		proofRecords[i] = ProofRecord{
			RecordID:    IdentityHash(r.AgentID, r.Timestamp),
			ContentHash: leaves[i],
			Timestamp:   r.Timestamp,
			AgentID:     r.AgentID,
		}
	}
	tree := BuildTree(leaves)

	l.mu.Lock()
	defer l.mu.Unlock()

	proof := &RoundIntegrityProof{
		RoundID:           roundID,
		MerkleRoot:        tree.Root,
		LeafCount:         len(records),
		Records:           proofRecords,
		ProofTimestamp:    time.Now().UTC(),
		PreviousProofHash: l.lastHash,
	}

	if l.cfg.Archive != nil {
		if err := l.cfg.Archive.Append(proof); err != nil {
			return nil, fmt.Errorf("archive round %s: %w", roundID, err)
		}
	}

	next := ChainHash(proof)
	l.lastHash = &next
	l.window.Add(roundID, proof)
	return proof, nil
}

// GetRoundProof returns the retained proof for a round, if it is still in
// the window. Peek keeps lookup from disturbing the oldest-first eviction
// order.
func (l *Ledger) GetRoundProof(roundID string) (*RoundIntegrityProof, bool) {
	return l.window.Peek(roundID)
}

// RoundIDs lists retained rounds from oldest to newest.
func (l *Ledger) RoundIDs() []string {
	return l.window.Keys()
}

// Len reports how many proofs are currently retained.
func (l *Ledger) Len() int {
	return l.window.Len()
}

// LastProofHash returns the current chain pointer, nil before the first
// round.
func (l *Ledger) LastProofHash() *string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastHash
}

// Restore reloads an archived proof sequence (creation order) into the
// ledger: the window is filled, respecting capacity, and the chain pointer
// resumes from the last proof. Used to audit an archive offline or to pick
// a producer back up after restart.
func (l *Ledger) Restore(proofs []*RoundIntegrityProof) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range proofs {
		l.window.Add(p.RoundID, p)
		next := ChainHash(p)
		l.lastHash = &next
	}
}
