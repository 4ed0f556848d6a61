// Package ingest loads payroll workbooks from the command line.
package ingest

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/ingest"
)

// Command creates the ingest command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [workbook.xlsx ...]",
		Short: "Load payroll workbooks into the audit database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(settings, args)
		},
	}
}

func runIngest(settings *conf.Settings, paths []string) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	catalog, err := entity.NewCatalog(store)
	if err != nil {
		return fmt.Errorf("building entity catalog: %w", err)
	}
	parser := ingest.NewParser(store, catalog)

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		summary, err := parser.ParseWorkbook(f, path)
		_ = f.Close()
		if err != nil {
			return err
		}

		fmt.Printf("%s: processed %d, inserted %d, updated %d, rejected %d\n",
			path, summary.Processed, summary.Inserted, summary.Updated, summary.Rejected)
		for _, alert := range summary.Alerts {
			fmt.Printf("  alerta: %s\n", alert)
		}
	}
	return nil
}
