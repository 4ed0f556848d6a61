// Package export writes the incompatibility report to an xlsx file.
package export

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/crossref"
	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/export"
)

// Command creates the export command.
func Command(settings *conf.Settings) *cobra.Command {
	var outputPath, entityLabel string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the incompatibility report to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(settings, outputPath, entityLabel)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "incompatibilidades.xlsx", "Output file path")
	cmd.Flags().StringVar(&entityLabel, "entity", "", "Restrict the report to one entity (key, acronym or name)")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runExport(settings *conf.Settings, outputPath, entityLabel string) error {
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

	records, err := store.AllRecords()
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	refs := crossref.Detect(records)

	rows, err := export.BuildRows(refs, store, catalog, settings.Audit.FullCyclePeriods)
	if err != nil {
		return fmt.Errorf("building export rows: %w", err)
	}
	if entityLabel != "" {
		rows = export.FilterByEntity(rows, entityLabel, catalog)
	}

	buf, err := export.Workbook(rows)
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	fmt.Printf("%s: %d cases, %d rows\n", outputPath, len(refs), len(export.ApplicableRows(rows)))
	return nil
}
