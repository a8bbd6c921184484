package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"secondbrain/internal/cli"
	"secondbrain/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var account, category string
	cmd := &cobra.Command{
		Use:   "import-ofx FILE...",
		Short: "Import bank statements in OFX or QFX format",
		Long: `Import one or more OFX/QFX statements into an account.

Entries already imported are skipped, so a statement can be imported again
safely. Each file commits on its own.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			parser := ofx.NewParser()
			var imported, skipped int
			for _, path := range args {
				entries, err := parseStatement(cmd, parser, path)
				if err != nil {
					return err
				}
				res, err := s.Ledger.ImportStatement(cmd.Context(), account, category, entries)
				if err != nil {
					return fmt.Errorf("import %s: %w", filepath.Base(path), err)
				}
				fmt.Printf("%s: %d imported, %d skipped\n", filepath.Base(path), res.Imported, res.Skipped)
				imported += res.Imported
				skipped += res.Skipped
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Imported %d transactions (%d already present)", imported, skipped)))
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account receiving the transactions")
	cmd.Flags().StringVar(&category, "category", "", "category for imported transactions, defaults to other")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func parseStatement(cmd *cobra.Command, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := parser.Parse(cmd.Context(), f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}
