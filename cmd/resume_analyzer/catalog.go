package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-analyzer/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Export or validate the recommendation catalog",
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a catalog file",
	Long: `Writes the built-in catalog (or the catalog read from --from) in canonical form.
The output format follows the file extension: .json writes JSON, anything else YAML.`,
	RunE: runCatalogExport,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <catalog-file>",
	Short: "Check a catalog file against the catalog schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogValidate,
}

var (
	catalogOut    string
	catalogFrom   string
	catalogFormat string
	catalogForce  bool
)

func init() {
	catalogExportCmd.Flags().StringVarP(&catalogOut, "out", "o", "", "Path to write the catalog to (required)")
	catalogExportCmd.Flags().StringVar(&catalogFrom, "from", "", "Catalog file to re-export (default: built-in catalog)")
	catalogExportCmd.Flags().StringVar(&catalogFormat, "format", "", "Output format: yaml or json (default: from --out extension)")
	catalogExportCmd.Flags().BoolVar(&catalogForce, "force", false, "Overwrite an existing file")

	if err := catalogExportCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogExport(cmd *cobra.Command, _ []string) error {
	cat := catalog.Default()
	if catalogFrom != "" {
		loaded, err := catalog.LoadStrict(catalogFrom)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}

	if !catalogForce {
		if _, err := os.Stat(catalogOut); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", catalogOut)
		}
	}

	format := catalogFormat
	if format == "" {
		format = catalog.FormatForPath(catalogOut)
	}
	data, err := catalog.Marshal(cat, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(catalogOut); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(catalogOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d fields to %s\n", cat.Len(), catalogOut)
	return nil
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	cat, err := catalog.LoadStrict(args[0])
	if err != nil {
		var validationErr *catalog.ValidationError
		var loadErr *catalog.LoadError
		if errors.As(err, &validationErr) || errors.As(err, &loadErr) {
			return fmt.Errorf("catalog is invalid: %w", err)
		}
		return fmt.Errorf("failed to validate catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s is valid (%d fields)\n", args[0], cat.Len())
	for _, e := range cat.Entries() {
		fmt.Fprintf(out, "  %-24s %2d keywords  %2d skills  %2d courses\n", e.Name, len(e.Keywords), len(e.Skills), len(e.Courses))
	}
	return nil
}
