package tradeproof

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixtureRecords() []Record {
	return []Record{
		{AgentID: "gpt-trader", Action: "buy", Symbol: "AAPLx", Reasoning: "earnings beat", Confidence: 0.82, Timestamp: "2026-08-30T10:00:00Z"},
		{AgentID: "claude-trader", Action: "sell", Symbol: "TSLAx", Reasoning: "overextended", Confidence: 0.64, Timestamp: "2026-08-30T11:30:00Z"},
		{AgentID: "gpt-trader", Action: "hold", Symbol: "NVDAx", Reasoning: "waiting on guidance", Confidence: 0.55, Timestamp: "2026-08-30T09:15:00Z"},
	}
}

func TestFingerprintRoundTrip(t *testing.T) {
	records := fixtureRecords()
	content := "serialized dataset payload"

	fp := Fingerprint(content, records, "v1")
	require.Equal(t, FingerprintResult{Valid: true}, VerifyFingerprint(content, fp))

	result := VerifyFingerprint(content+"x", fp)
	require.False(t, result.Valid)
	require.Contains(t, result.Reason, "mismatch")
}

func TestFingerprintMetadata(t *testing.T) {
	records := fixtureRecords()
	fp := Fingerprint("content", records, "v2")

	require.Equal(t, "v2", fp.Version)
	require.Equal(t, 3, fp.TotalRecords)
	require.Equal(t, []string{"claude-trader", "gpt-trader"}, fp.Agents, "agents are sorted and unique")
	require.Equal(t, "2026-08-30T09:15:00Z", fp.TimeRange.From)
	require.Equal(t, "2026-08-30T11:30:00Z", fp.TimeRange.To)
	require.False(t, fp.GeneratedAt.IsZero())
}

func TestFingerprintMerkleRootOverIdentityHashes(t *testing.T) {
	records := fixtureRecords()
	fp := Fingerprint("content", records, "v1")

	leaves := make([]string, len(records))
	for i, r := range records {
		leaves[i] = IdentityHash(r.AgentID, r.Timestamp)
	}
	require.Equal(t, BuildTree(leaves).Root, fp.MerkleRoot)
}

func TestFingerprintEmptyDataset(t *testing.T) {
	fp := Fingerprint("", nil, "v1")
	require.Equal(t, 0, fp.TotalRecords)
	require.Equal(t, EmptyRoot(), fp.MerkleRoot)
	require.True(t, VerifyFingerprint("", fp).Valid)
}
