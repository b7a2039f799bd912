package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/observability"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query stored analysis results",
	Long:  "Lists, shows and summarizes profiles stored by 'analyze --save', the server or the worker. Requires DATABASE_URL.",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored profiles by field and level",
	RunE:  runHistoryStats,
}

var (
	historyField  string
	historyLevel  string
	historyLimit  int
	historyOffset int
	historyJSON   bool
)

func init() {
	historyListCmd.Flags().StringVar(&historyField, "field", "", "Only profiles with this predicted field")
	historyListCmd.Flags().StringVar(&historyLevel, "level", "", "Only profiles with this experience level")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", db.DefaultListLimit, "Maximum profiles to list")
	historyListCmd.Flags().IntVar(&historyOffset, "offset", 0, "Profiles to skip")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "Print JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

// withStore runs fn against the configured database.
func withStore(fn func(ctx context.Context, store db.Store) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, store db.Store) error {
		records, err := store.ListProfiles(ctx, db.ListOptions{
			Field:  historyField,
			Level:  historyLevel,
			Limit:  historyLimit,
			Offset: historyOffset,
		})
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			return printJSON(out, records)
		}
		printRecordTable(out, records)
		return nil
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid profile id %q: %w", args[0], err)
	}

	return withStore(func(ctx context.Context, store db.Store) error {
		rec, err := store.GetProfile(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			return printJSON(out, rec)
		}
		printer := observability.NewPrinter(out)
		printer.PrintProfile(rec.Source, rec.Profile())
		printer.PrintRecommendations(rec.Profile())
		fmt.Fprintf(out, "Stored %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	})
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, store db.Store) error {
		stats, err := store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}

		if historyJSON {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintStats(stats)
		return nil
	})
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func printRecordTable(out io.Writer, records []db.ProfileRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No stored profiles.")
		return
	}
	fmt.Fprintf(out, "%-36s  %-20s  %-20s  %5s  %-12s  %s\n", "ID", "NAME", "FIELD", "SCORE", "LEVEL", "STORED")
	for _, r := range records {
		fmt.Fprintf(out, "%-36s  %-20.20s  %-20.20s  %5d  %-12s  %s\n",
			r.ID, r.Name, r.PredictedField, r.Score, r.ExperienceLevel, r.CreatedAt.Format("2006-01-02 15:04"))
	}
}
