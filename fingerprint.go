package tradeproof

import (
	"fmt"
	"sort"
	"time"
)

// TimeRange is the inclusive span of record timestamps in a dataset.
// ISO-8601 strings order lexicographically, so no parsing is needed.
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DatasetFingerprint is a single verifiable summary of a full exported
// dataset: the hash of the literal export bytes as the primary anti-tamper
// commitment, plus a Merkle root over per-record identity hashes as a
// secondary, per-record-addressable one. Immutable once generated.
type DatasetFingerprint struct {
	DatasetHash  string    `json:"datasetHash"`
	MerkleRoot   string    `json:"merkleRoot"`
	TotalRecords int       `json:"totalRecords"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Version      string    `json:"version"`
	Agents       []string  `json:"agents"`
	TimeRange    TimeRange `json:"timeRange"`
}

// FingerprintResult reports a fingerprint verification. Failures always
// carry a human-readable reason; a mismatch is never silently swallowed.
type FingerprintResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Fingerprint commits to an exported dataset. content is hashed byte for
// byte; records supply the identity-hash Merkle root and the metadata.
func Fingerprint(content string, records []Record, version string) DatasetFingerprint {
	leaves := make([]string, len(records))
	agentSet := make(map[string]struct{})
	var timeRange TimeRange
	for i, r := range records {
		leaves[i] = IdentityHash(r.AgentID, r.Timestamp)
		agentSet[r.AgentID] = struct{}{}
		if i == 0 || r.Timestamp < timeRange.From {
			timeRange.From = r.Timestamp
		}
		if i == 0 || r.Timestamp > timeRange.To {
			timeRange.To = r.Timestamp
		}
	}

	agents := make([]string, 0, len(agentSet))
	for a := range agentSet {
		agents = append(agents, a)
	}
	sort.Strings(agents)

	return DatasetFingerprint{
		DatasetHash:  sha256Hex([]byte(content)),
		MerkleRoot:   BuildTree(leaves).Root,
		TotalRecords: len(records),
		GeneratedAt:  time.Now().UTC(),
		Version:      version,
		Agents:       agents,
		TimeRange:    timeRange,
	}
}

// VerifyFingerprint recomputes the content hash of a downloaded dataset
// and compares it to the fingerprint. Any difference in the bytes, however
// small, fails with the mismatching digests in the reason.
func VerifyFingerprint(content string, fp DatasetFingerprint) FingerprintResult {
	got := sha256Hex([]byte(content))
	if got != fp.DatasetHash {
		return FingerprintResult{
			Valid:  false,
			Reason: fmt.Sprintf("dataset hash mismatch: content hashes to %s, fingerprint commits to %s", got, fp.DatasetHash),
		}
	}
	return FingerprintResult{Valid: true}
}
