package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/observability"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file-or-directory>",
	Short: "Analyze one resume or every resume in a directory",
	Long: `Extracts text from PDF, DOCX or plain-text resumes and prints the analyzed profile:
contact details, detected skills, predicted field, score, experience level and recommendations.

A directory is scanned (non-recursively) for .pdf, .docx and .txt files, which are analyzed in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeCourses     int
	analyzeJSON        bool
	analyzeOut         string
	analyzeSave        bool
	analyzeConcurrency int
	analyzeVerbose     bool
)

func init() {
	analyzeCmd.Flags().IntVar(&analyzeCourses, "courses", 0, "Number of courses to recommend, 1-10 (default: config course_count)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print results as JSON")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write JSON results to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Store profiles in the configured database")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "Documents analyzed in parallel (default: config concurrency)")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print section checks and recommendations")

	rootCmd.AddCommand(analyzeCmd)
}

// analyzeOutput is one entry of the JSON output.
type analyzeOutput struct {
	Source   string               `json:"source"`
	Profile  *types.ResumeProfile `json:"profile,omitempty"`
	Metadata *ingestion.Metadata  `json:"metadata,omitempty"`
	RecordID string               `json:"record_id,omitempty"`
	Cached   bool                 `json:"cached,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeCourses < 0 || analyzeCourses > 10 {
		return fmt.Errorf("--courses must be between 1 and 10, got %d", analyzeCourses)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	files, isDir, err := resolveInputs(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openServices(ctx, cfg, log, backends{store: analyzeSave, cache: true})
	if err != nil {
		return err
	}
	defer svc.Close()
	if analyzeSave && svc.store == nil {
		return fmt.Errorf("--save requires DATABASE_URL")
	}

	concurrency := analyzeConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	outputs := analyzeFiles(ctx, svc.runner, files, concurrency)

	if analyzeJSON || analyzeOut != "" {
		if err := writeJSON(cmd.OutOrStdout(), outputs, isDir); err != nil {
			return err
		}
	} else {
		printOutputs(cmd.OutOrStdout(), outputs, isDir)
	}

	return failureError(outputs, isDir)
}

// resolveInputs expands path into the resume files to analyze.
func resolveInputs(path string) ([]string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, fmt.Errorf("input not found: %s", path)
		}
		return nil, false, fmt.Errorf("failed to stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, false, nil
	}

	files, err := collectResumes(path)
	if err != nil {
		return nil, true, err
	}
	if len(files) == 0 {
		return nil, true, fmt.Errorf("no .pdf, .docx or .txt files in %s", path)
	}
	return files, true, nil
}

// collectResumes lists the supported resume files directly inside dir, sorted by name.
func collectResumes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".docx", ".txt":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// analyzeFiles runs every file through the pipeline, keeping input order.
// Per-file failures are recorded in the output rather than aborting the batch.
func analyzeFiles(ctx context.Context, runner *pipeline.Runner, files []string, concurrency int) []analyzeOutput {
	outputs := make([]analyzeOutput, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	var progressMu sync.Mutex
	for i, path := range files {
		outputs[i].Source = path
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				outputs[i].Error = err.Error()
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				outputs[i].Error = fmt.Sprintf("failed to read file: %v", err)
				return nil
			}

			res, err := runner.Run(gCtx, pipeline.Input{Filename: path, Data: data, CourseCount: analyzeCourses})
			if res != nil {
				outputs[i].Profile = res.Profile
				outputs[i].Metadata = res.Metadata
				outputs[i].Cached = res.Cached
				if res.RecordID != uuid.Nil {
					outputs[i].RecordID = res.RecordID.String()
				}
			}
			if err != nil {
				outputs[i].Error = err.Error()
			}

			if len(files) > 1 && !analyzeJSON {
				progressMu.Lock()
				status := "✓"
				if outputs[i].Profile == nil {
					status = "✗"
				}
				fmt.Fprintf(os.Stderr, "%s %s\n", status, filepath.Base(path))
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return outputs
}

func writeJSON(stdout io.Writer, outputs []analyzeOutput, isDir bool) error {
	var v any = outputs
	if !isDir {
		v = outputs[0]
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if analyzeOut == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	if dir := filepath.Dir(analyzeOut); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(analyzeOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %d result(s) to %s\n", len(outputs), analyzeOut)
	return nil
}

func printOutputs(stdout io.Writer, outputs []analyzeOutput, isDir bool) {
	printer := observability.NewPrinter(stdout)

	var profiles []*types.ResumeProfile
	var failures []observability.BatchFailure
	for _, o := range outputs {
		if o.Profile == nil {
			failures = append(failures, observability.BatchFailure{Source: filepath.Base(o.Source), Err: fmt.Errorf("%s", o.Error)})
			continue
		}
		profiles = append(profiles, o.Profile)

		printer.PrintProfile(filepath.Base(o.Source), o.Profile)
		if analyzeVerbose || !isDir {
			printer.PrintSections(o.Profile.Sections)
			printer.PrintRecommendations(o.Profile)
		}
		if o.Error != "" {
			fmt.Fprintf(stdout, "⚠ %s\n", o.Error)
		}
		if o.RecordID != "" {
			fmt.Fprintf(stdout, "Saved as %s\n", o.RecordID)
		}
	}

	if isDir {
		printer.PrintBatchSummary(profiles, failures)
	}
}

// failureError reports documents that produced no profile.
func failureError(outputs []analyzeOutput, isDir bool) error {
	failed := 0
	var first string
	for _, o := range outputs {
		if o.Profile == nil {
			if failed == 0 {
				first = o.Error
			}
			failed++
		}
	}
	switch {
	case failed == 0:
		return nil
	case !isDir:
		return fmt.Errorf("analysis failed: %s", first)
	default:
		return fmt.Errorf("%d of %d documents failed", failed, len(outputs))
	}
}
