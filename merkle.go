package tradeproof

// emptyTreeSentinel is hashed to produce the root of a zero-leaf tree.
// An empty round is a defined commitment, not an error.
const emptyTreeSentinel = "empty"

// Tree holds a built Merkle tree. Levels[0] is the ordered leaf list as
// given (no padding applied); the last level contains only the root.
// Trees are ephemeral: rebuilt on demand, never persisted.
type Tree struct {
	Root   string
	Levels [][]string
}

// EmptyRoot returns the fixed root committed for an empty leaf list.
func EmptyRoot() string {
	return sha256Hex([]byte(emptyTreeSentinel))
}

// BuildTree computes the Merkle tree over an ordered list of hex leaf
// hashes. Leaf order is part of the commitment: the same multiset in a
// different order generally yields a different root. A level with an odd
// node count duplicates its last node before pairing.
func BuildTree(leaves []string) Tree {
	if len(leaves) == 0 {
		return Tree{Root: EmptyRoot(), Levels: [][]string{{}}}
	}

	level := append([]string(nil), leaves...)
	levels := [][]string{level}
	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, pairHash(left, right))
		}
		level = next
		levels = append(levels, level)
	}
	return Tree{Root: level[0], Levels: levels}
}

// pairHash combines two sibling hashes into their parent. The pair is
// sorted lexicographically before hashing, so the result is the same
// whichever side each hash sits on. Position tags carried in proofs are
// therefore metadata only; they never enter the digest. This matches the
// deployed hashing exactly and must not be changed to positional pairing
// without re-keying every stored root.
func pairHash(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return sha256Hex([]byte(a + b))
}
