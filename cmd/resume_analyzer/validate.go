package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-analyzer/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <json-file>",
	Short: "Validate a saved JSON artifact against its schema",
	Long: `Validates profiles written by 'analyze --json' (--schema profile) or a JSON catalog (--schema catalog).
For profiles the file may hold a bare profile, one analyze result, or the array written for a directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var validateSchema string

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "profile", "Schema to validate against: profile or catalog")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	switch validateSchema {
	case "catalog":
		if err := schemas.ValidateJSONFile(schemas.CatalogSchema, path); err != nil {
			return schemaError(path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is a valid catalog\n", path)
		return nil
	case "profile":
	default:
		return fmt.Errorf("unknown schema %q (want profile or catalog)", validateSchema)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	profiles := profileDocuments(doc)
	for i, p := range profiles {
		if err := schemas.ValidateDocument(schemas.ResumeProfileSchema, p); err != nil {
			return schemaError(fmt.Sprintf("%s (profile %d)", path, i+1), err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d valid profile(s)\n", path, len(profiles))
	return nil
}

// profileDocuments unwraps analyze results into the profiles they carry.
// Entries without a profile (failed documents) are skipped.
func profileDocuments(doc any) []any {
	switch v := doc.(type) {
	case []any:
		var out []any
		for _, item := range v {
			out = append(out, profileDocuments(item)...)
		}
		return out
	case map[string]any:
		if _, wrapped := v["source"]; wrapped {
			if p, ok := v["profile"]; ok {
				return []any{p}
			}
			return nil
		}
		return []any{v}
	default:
		return []any{v}
	}
}

func schemaError(name string, err error) error {
	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Errorf("%s does not match the %s schema: %w", name, validateSchema, err)
	}
	return err
}
