package tradeproof

// Archive Backend Comparison
//
// This package provides two optional archive backends for finalized round
// proofs. The ledger itself is in-memory and capacity-bounded; an archive
// keeps the full proof history so audits survive eviction and restarts.
//
// 1. JSONL File Archive (file_store.go) - DEFAULT & RECOMMENDED
//    - One proof per line, append-only, human-inspectable
//    - Zero external dependencies (stdlib only)
//    - Best for: hand auditing, shipping proofs to third parties
//
// 2. SQLite Archive (sqlite_store.go) - ALTERNATIVE
//    - Uses SQLite with WAL mode, ACID transactions
//    - Unique round-id constraint backs the at-most-once round contract
//    - Best for: applications already using SQLite, indexed lookups
//
// Usage Examples:
//
// === JSONL File Archive (Default, Recommended) ===
//
//   archive, err := tradeproof.OpenFileArchive("/var/lib/tradeproof")
//   if err != nil {
//       log.Fatal(err)
//   }
//   defer archive.Close()
//
//   ledger, _ := tradeproof.NewLedger(tradeproof.Config{
//       Capacity: 512,
//       Archive:  archive,
//   })
//   ledger.CreateRoundProof("round-001", records)
//
// === SQLite Archive (Alternative) ===
//
//   archive, err := tradeproof.OpenSQLiteArchive("file:proofs.db")
//   if err != nil {
//       log.Fatal(err)
//   }
//   defer archive.Close()
//
//   // Same ledger API.
//   ledger, _ := tradeproof.NewLedger(tradeproof.Config{Archive: archive})
//   ledger.CreateRoundProof("round-001", records)
//
// === Offline audit of an archive ===
//
//   proofs, _ := archive.List()
//   ledger, _ := tradeproof.NewLedger(tradeproof.Config{Capacity: len(proofs)})
//   ledger.Restore(proofs)
//   for _, p := range proofs {
//       report := ledger.VerifyRoundProof(p)
//       // report.Valid, report.Chain, report.Checks
//   }
//
// Migration between backends is List() on one and Append() on the other;
// proofs are ordinary JSON documents in both.
