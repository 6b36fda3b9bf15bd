package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/config"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/ingest"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/store"
)

var flagPruneOlderThan string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch all configured feeds into the article index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		index, err := store.Open(config.IndexPath())
		if err != nil {
			return fmt.Errorf("opening article index: %w", err)
		}
		defer index.Close()

		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		refresher := ingest.NewRefresher(ingest.NewRSSFetcher(cfg.RetentionDuration()), index, log)

		result := refresher.Refresh(cmd.Context(), cfg.EnabledFeeds())
		fmt.Printf("Fetched %d article(s) from %d feed(s).\n", result.Fetched, len(cfg.EnabledFeeds()))
		if len(result.Errors) > 0 {
			fmt.Printf("%d feed(s) failed; see log output.\n", len(result.Errors))
		}
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old articles from the index",
	Long: `Delete indexed articles older than the retention period and reclaim disk space.

Uses the retention value from config (default: 365d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		index, err := store.Open(config.IndexPath())
		if err != nil {
			return fmt.Errorf("opening article index: %w", err)
		}
		defer index.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseDays(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := index.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d article(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show article index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := store.Open(config.IndexPath())
		if err != nil {
			return fmt.Errorf("opening article index: %w", err)
		}
		defer index.Close()

		total, byOrigin, err := index.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Index: %s\n", config.IndexPath())
		fmt.Printf("Articles: %d\n", total)
		for _, oc := range byOrigin {
			fmt.Printf("  %-20s %5d (latest: %s)\n", oc.Origin, oc.Count, oc.Latest.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

// parseDays accepts time.ParseDuration syntax plus a "Nd" day form.
func parseDays(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid day duration %q", s)
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
