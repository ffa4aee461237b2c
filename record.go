package tradeproof

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Record is a single trade justification as handed over by an upstream
// scoring agent. The integrity layer never stores records, only hashes
// derived from them. Timestamp is kept as the producer's ISO-8601 string;
// it is part of the hashed content and must not be reformatted.
type Record struct {
	AgentID    string  `json:"agentId"`
	Action     string  `json:"action"`
	Symbol     string  `json:"symbol"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

// canonicalRecord is the interoperable hash input shape. Field order is the
// wire contract: any implementation hashing the same logical record must
// serialize exactly {a, action, s, r, c, t} in this order.
type canonicalRecord struct {
	A      string  `json:"a"`
	Action string  `json:"action"`
	S      string  `json:"s"`
	R      string  `json:"r"`
	C      float64 `json:"c"`
	T      string  `json:"t"`
}

// CanonicalBytes returns the deterministic UTF-8 encoding of r that leaf
// hashes are computed over. HTML escaping is disabled so reasoning text
// containing <, > or & hashes the same here as in non-Go producers.
func CanonicalBytes(r Record) []byte {
	return encodeCanonical(canonicalRecord{
		A:      r.AgentID,
		Action: r.Action,
		S:      r.Symbol,
		R:      r.Reasoning,
		C:      r.Confidence,
		T:      r.Timestamp,
	})
}

// HashRecord computes the leaf hash of a record: SHA-256 over its canonical
// encoding, as a lowercase 64-char hex digest. Pure and total; field
// validation is the producer's job.
func HashRecord(r Record) string {
	return sha256Hex(CanonicalBytes(r))
}

// IdentityHash derives the stable per-record identity used by dataset
// fingerprints and proof record ids: sha256(agentId + ":" + timestamp).
func IdentityHash(agentID, timestamp string) string {
	return sha256Hex([]byte(agentID + ":" + timestamp))
}

func encodeCanonical(v interface{}) []byte {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Only plain structs of strings and floats reach this encoder.
		panic("tradeproof: canonical encode: " + err.Error())
	}
	return bytes.TrimSpace(buf.Bytes())
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
