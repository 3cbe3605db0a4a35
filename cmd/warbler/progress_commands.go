package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"warbler/internal/cache"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect or reset collection progress",
	}

	progressCmd.AddCommand(newProgressShowCommand(ctx))
	progressCmd.AddCommand(newProgressClearCommand(ctx))

	return progressCmd
}

func newProgressShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List species completed in previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			ledger := cache.NewLedger(cfg.Paths.CacheDir, logger)
			progress, err := ledger.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(progress.Completed) == 0 {
				fmt.Fprintln(out, "No completed species recorded")
				return nil
			}

			keys := make([]string, 0, len(progress.Completed))
			for key := range progress.Completed {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				entry := progress.Completed[key]
				rows = append(rows, []string{
					key,
					entry.Data.ScientificName,
					strconv.Itoa(len(entry.Data.Photos)),
					strconv.Itoa(len(entry.Data.Recordings)),
					entry.CompletedAt.Local().Format(time.RFC3339),
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Species", "Scientific Name", "Photos", "Recordings", "Completed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d species completed (last updated %s)\n",
				len(keys), progress.LastUpdated.Local().Format(time.RFC3339))
			return nil
		},
	}
}

func newProgressClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all recorded progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			ledger := cache.NewLedger(cfg.Paths.CacheDir, logger)
			if err := ledger.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Progress cleared")
			return nil
		},
	}
}
