package tradeproof

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// datasetExport is the document shape published to external auditors.
type datasetExport struct {
	Version string   `json:"version"`
	Records []Record `json:"records"`
}

// BuildDatasetExport serializes records into the canonical RFC 8785 JSON
// document that dataset fingerprints commit to. Canonicalization here is
// free to be lexicographic (unlike the fixed-order hash inputs), so the
// standard JCS transform applies: the same records always produce the same
// bytes, on any implementation.
func BuildDatasetExport(records []Record, version string) (string, error) {
	raw, err := json.Marshal(datasetExport{Version: version, Records: records})
	if err != nil {
		return "", fmt.Errorf("marshal dataset: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize dataset: %w", err)
	}
	return string(canon), nil
}

// ExportAndFingerprint builds the canonical export and its fingerprint in
// one step, guaranteeing the fingerprint covers exactly the bytes handed
// to the auditor.
func ExportAndFingerprint(records []Record, version string) (string, DatasetFingerprint, error) {
	content, err := BuildDatasetExport(records, version)
	if err != nil {
		return "", DatasetFingerprint{}, err
	}
	return content, Fingerprint(content, records, version), nil
}
