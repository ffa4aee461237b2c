package tradeproof

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const proofsFileName = "proofs.log"

// fileArchive implements Archive as an append-only JSONL file: one round
// proof per line, creation order, no rewrites. The format is deliberately
// plain so an auditor can inspect it with nothing but a text editor.
type fileArchive struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	rounds map[string]struct{}
}

// OpenFileArchive creates or opens a JSONL proof archive in dir. Existing
// proofs are scanned once at open to rebuild the round-id index.
func OpenFileArchive(dir string) (Archive, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	path := filepath.Join(dir, proofsFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open proof log: %w", err)
	}

	a := &fileArchive{path: path, file: file, rounds: make(map[string]struct{})}
	proofs, err := a.readAll()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	for _, p := range proofs {
		a.rounds[p.RoundID] = struct{}{}
	}
	return a, nil
}

func (a *fileArchive) Append(p *RoundIntegrityProof) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.rounds[p.RoundID]; exists {
		return fmt.Errorf("round %s: %w", p.RoundID, ErrDuplicateRound)
	}

	enc := json.NewEncoder(a.file)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("append proof: %w", err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("sync proof log: %w", err)
	}
	a.rounds[p.RoundID] = struct{}{}
	return nil
}

func (a *fileArchive) Get(roundID string) (*RoundIntegrityProof, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.rounds[roundID]; !exists {
		return nil, false, nil
	}
	proofs, err := a.readAll()
	if err != nil {
		return nil, false, err
	}
	for _, p := range proofs {
		if p.RoundID == roundID {
			return p, true, nil
		}
	}
	return nil, false, nil
}

func (a *fileArchive) List() ([]*RoundIntegrityProof, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readAll()
}

func (a *fileArchive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// readAll streams the log from disk. Callers hold the mutex.
func (a *fileArchive) readAll() ([]*RoundIntegrityProof, error) {
	file, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("open proof log: %w", err)
	}
	defer file.Close()

	var proofs []*RoundIntegrityProof
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p RoundIntegrityProof
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("decode proof: %w", err)
		}
		proofs = append(proofs, &p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan proof log: %w", err)
	}
	return proofs, nil
}
