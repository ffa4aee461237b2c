package tradeproof

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

type sqliteArchive struct{ db *sql.DB }

// OpenSQLiteArchive opens/creates a SQLite proof archive and ensures
// schema + PRAGMAs. Proofs are stored as JSON rows keyed by a unique round
// id, which is what makes at-most-once round creation enforceable when the
// ledger tees into this archive.
func OpenSQLiteArchive(dsn string) (Archive, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	a := &sqliteArchive{db: db}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA wal_autocheckpoint=1000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS round_proofs (
  seq         INTEGER PRIMARY KEY AUTOINCREMENT,
  round_id    TEXT NOT NULL UNIQUE,
  merkle_root TEXT NOT NULL,
  leaf_count  INTEGER NOT NULL,
  prev_hash   TEXT,               -- NULL for the first round in the chain
  proof       TEXT NOT NULL       -- full proof document as JSON
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// Append stores a finalized round proof. A duplicate round id fails with
// ErrDuplicateRound and leaves the archive untouched.
func (a *sqliteArchive) Append(p *RoundIntegrityProof) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM round_proofs WHERE round_id=?`, p.RoundID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("round %s: %w", p.RoundID, ErrDuplicateRound)
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode proof: %w", err)
	}
	var prev sql.NullString
	if p.PreviousProofHash != nil {
		prev = sql.NullString{String: *p.PreviousProofHash, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO round_proofs(round_id, merkle_root, leaf_count, prev_hash, proof) VALUES(?, ?, ?, ?, ?)`,
		p.RoundID, p.MerkleRoot, p.LeafCount, prev, string(doc)); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves one archived round proof by round id.
func (a *sqliteArchive) Get(roundID string) (*RoundIntegrityProof, bool, error) {
	var doc string
	err := a.db.QueryRow(`SELECT proof FROM round_proofs WHERE round_id=?`, roundID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p RoundIntegrityProof
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, false, fmt.Errorf("decode proof: %w", err)
	}
	return &p, true, nil
}

// List returns all archived proofs in creation order.
func (a *sqliteArchive) List() ([]*RoundIntegrityProof, error) {
	rows, err := a.db.Query(`SELECT proof FROM round_proofs ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []*RoundIntegrityProof
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var p RoundIntegrityProof
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("decode proof: %w", err)
		}
		proofs = append(proofs, &p)
	}
	return proofs, rows.Err()
}

// Close closes the underlying database.
func (a *sqliteArchive) Close() error {
	return a.db.Close()
}
