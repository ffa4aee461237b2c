package tradeproof

// Sibling positions relative to the node being proven.
const (
	PositionLeft  = "left"
	PositionRight = "right"
)

// ProofSibling is one step of an inclusion proof: the sibling hash at a
// tree level and which side it sat on.
type ProofSibling struct {
	Hash     string `json:"hash"`
	Position string `json:"position"`
}

// MerkleProof lets a verifier recompute the root from a single leaf,
// proving the leaf was part of the committed set. Plain JSON, generated on
// demand, never persisted.
type MerkleProof struct {
	LeafHash    string         `json:"leafHash"`
	Siblings    []ProofSibling `json:"siblings"`
	Root        string         `json:"root"`
	LeafIndex   int            `json:"leafIndex"`
	TotalLeaves int            `json:"totalLeaves"`
}

// GenerateProof builds the inclusion proof for leaves[index]. Returns nil
// when index is outside [0, len(leaves)): an unknown leaf is a not-found,
// not a failure. When a level is odd and the target is its last node, the
// recorded sibling is the node itself (the duplicate used for padding).
func GenerateProof(leaves []string, index int) *MerkleProof {
	if index < 0 || index >= len(leaves) {
		return nil
	}

	tree := BuildTree(leaves)
	siblings := make([]ProofSibling, 0, len(tree.Levels)-1)
	idx := index
	for _, level := range tree.Levels[:len(tree.Levels)-1] {
		sibIdx := idx + 1
		pos := PositionRight
		if idx%2 == 1 {
			sibIdx = idx - 1
			pos = PositionLeft
		}
		sib := level[idx] // duplicated padding node
		if sibIdx < len(level) {
			sib = level[sibIdx]
		}
		siblings = append(siblings, ProofSibling{Hash: sib, Position: pos})
		idx /= 2
	}

	return &MerkleProof{
		LeafHash:    leaves[index],
		Siblings:    siblings,
		Root:        tree.Root,
		LeafIndex:   index,
		TotalLeaves: len(leaves),
	}
}

// VerifyProof recomputes the root from the proof's leaf hash and sibling
// path and compares it to the claimed root. Binary outcome: a proof either
// reproduces the root exactly or it does not. Because pairHash sorts its
// inputs, the Position tags do not influence the recomputation.
func VerifyProof(p *MerkleProof) bool {
	if p == nil {
		return false
	}
	h := p.LeafHash
	for _, s := range p.Siblings {
		h = pairHash(h, s.Hash)
	}
	return h == p.Root
}
