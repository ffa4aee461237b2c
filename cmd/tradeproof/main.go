package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moltapp/tradeproof"
)

func main() {
	root := &cobra.Command{
		Use:          "tradeproof",
		Short:        "Offline auditing for trade justification integrity proofs",
		SilenceUsage: true,
	}
	root.AddCommand(auditCmd(), fingerprintCmd(), verifyFingerprintCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openArchive(path, backend string) (tradeproof.Archive, error) {
	switch backend {
	case "sqlite":
		return tradeproof.OpenSQLiteArchive(path)
	case "file":
		return tradeproof.OpenFileArchive(path)
	case "auto":
		if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
			return tradeproof.OpenSQLiteArchive(path)
		}
		return tradeproof.OpenFileArchive(path)
	default:
		return nil, fmt.Errorf("unknown backend %q (want file, sqlite or auto)", backend)
	}
}

func auditCmd() *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "audit <archive>",
		Short: "Re-verify every round proof in an archive",
		Long: `Loads a proof archive (JSONL directory or SQLite database), restores the
chain into a ledger, and re-derives each round's invariants: Merkle root,
leaf count and chain linkage. Exits non-zero if any round fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := openArchive(args[0], backend)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer archive.Close()

			proofs, err := archive.List()
			if err != nil {
				return fmt.Errorf("list proofs: %w", err)
			}
			if len(proofs) == 0 {
				return fmt.Errorf("archive is empty")
			}

			ledger, err := tradeproof.NewLedger(tradeproof.Config{Capacity: len(proofs)})
			if err != nil {
				return err
			}
			ledger.Restore(proofs)

			reports := make([]tradeproof.AuditReport, 0, len(proofs))
			failed := 0
			for _, p := range proofs {
				report := ledger.VerifyRoundProof(p)
				if !report.Valid {
					failed++
				}
				reports = append(reports, report)
			}

			if err := printJSON(cmd, reports); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d rounds failed verification", failed, len(proofs))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "OK: %d rounds verified\n", len(proofs))
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "auto", "archive backend: file, sqlite or auto")
	return cmd
}

func fingerprintCmd() *cobra.Command {
	var version, exportPath string
	cmd := &cobra.Command{
		Use:   "fingerprint <records.json>",
		Short: "Build a canonical dataset export and its fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var records []tradeproof.Record
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("decode records: %w", err)
			}

			content, fp, err := tradeproof.ExportAndFingerprint(records, version)
			if err != nil {
				return err
			}
			if exportPath != "" {
				if err := os.WriteFile(exportPath, []byte(content), 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
			}
			return printJSON(cmd, fp)
		},
	}
	cmd.Flags().StringVar(&version, "version", "v1", "dataset version tag")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the canonical export to this path")
	return cmd
}

func verifyFingerprintCmd() *cobra.Command {
	var fpPath string
	cmd := &cobra.Command{
		Use:   "verify-fingerprint <dataset>",
		Short: "Check a downloaded dataset against its fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(fpPath)
			if err != nil {
				return err
			}
			var fp tradeproof.DatasetFingerprint
			if err := json.Unmarshal(raw, &fp); err != nil {
				return fmt.Errorf("decode fingerprint: %w", err)
			}

			result := tradeproof.VerifyFingerprint(string(content), fp)
			if err := printJSON(cmd, result); err != nil {
				return err
			}
			if !result.Valid {
				return fmt.Errorf("fingerprint verification failed: %s", result.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fpPath, "fingerprint", "", "path to the fingerprint JSON")
	_ = cmd.MarkFlagRequired("fingerprint")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
