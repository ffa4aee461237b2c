package tradeproof

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDatasetExportDeterministic(t *testing.T) {
	records := fixtureRecords()
	a, err := BuildDatasetExport(records, "v1")
	require.NoError(t, err)
	b, err := BuildDatasetExport(records, "v1")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.True(t, strings.HasPrefix(a, "{"), "export is a JSON document")
}

func TestExportAndFingerprintRoundTrip(t *testing.T) {
	records := fixtureRecords()
	content, fp, err := ExportAndFingerprint(records, "v1")
	require.NoError(t, err)
	require.Equal(t, len(records), fp.TotalRecords)
	require.True(t, VerifyFingerprint(content, fp).Valid)

	// Any edit to the downloaded copy fails verification.
	tampered := strings.Replace(content, "buy", "sell", 1)
	require.NotEqual(t, content, tampered)
	require.False(t, VerifyFingerprint(tampered, fp).Valid)
}

func TestBuildDatasetExportVersionChangesContent(t *testing.T) {
	records := fixtureRecords()
	a, err := BuildDatasetExport(records, "v1")
	require.NoError(t, err)
	b, err := BuildDatasetExport(records, "v2")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
