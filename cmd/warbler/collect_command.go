package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"warbler/internal/builder"
	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/download"
	"warbler/internal/providers"
	"warbler/internal/providers/wikipedia"
	"warbler/internal/providers/xenocanto"
	"warbler/internal/species"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var speciesPath string
	var testLimit int
	var resume bool
	var noCache bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect species data and media into the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			list, err := species.Load(speciesPath)
			if err != nil {
				return err
			}

			deps := builder.Deps{
				Summaries: wikipedia.New(
					providers.NewFetchClient(cfg, cfg.Wikipedia.BaseURL, logger), logger),
				Recordings: xenocanto.New(
					providers.NewFetchClient(cfg, cfg.XenoCanto.BaseURL, logger),
					cfg.XenoCanto.APIKey, cfg.XenoCanto.QualityGrades, logger),
				Downloader: download.New(
					providers.NewFetchClient(cfg, "", logger), logger),
				Ledger: cache.NewLedger(cfg.Paths.CacheDir, logger),
			}
			deps.Photos, err = providers.NewPhotoSource(cfg, logger)
			if err != nil {
				return err
			}

			if cfg.Cache.Enabled && !noCache {
				store, err := openCacheStore(cfg, ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				deps.Cache = store
			}

			b := builder.New(cfg, deps, logger)
			_, summary, err := b.Build(cmd.Context(), list, builder.Options{
				TestLimit:  testLimit,
				Resume:     resume,
				OutputPath: outputPath,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Metric", "Value"},
				[][]string{
					{"Species processed", strconv.Itoa(summary.Processed)},
					{"Succeeded", strconv.Itoa(summary.Succeeded)},
					{"Failed", strconv.Itoa(summary.Failed)},
					{"Skipped (resumed)", strconv.Itoa(summary.Skipped)},
					{"Photos kept", strconv.Itoa(summary.TotalPhotos)},
					{"Recordings kept", strconv.Itoa(summary.TotalRecordings)},
					{"Elapsed", summary.Elapsed.Round(time.Second).String()},
					{"Dataset", summary.OutputPath},
				},
				[]columnAlignment{alignLeft, alignRight},
			))

			if summary.Failed > 0 {
				fmt.Fprintln(out, colorize(
					fmt.Sprintf("%d species failed; rerun with --resume to retry them.", summary.Failed),
					ansiYellow, cmd.OutOrStdout()))
			} else {
				fmt.Fprintln(out, colorize("Collection complete.", ansiGreen, cmd.OutOrStdout()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&speciesPath, "species", "s", "", "Path to the species list file (TOML)")
	cmd.Flags().IntVar(&testLimit, "test", 0, "Test mode: collect only the first N species")
	cmd.Flags().Lookup("test").NoOptDefVal = "3"
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip species already completed in a previous run")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the API response cache")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Dataset output path (defaults to the configured file)")
	_ = cmd.MarkFlagRequired("species")

	return cmd
}

func openCacheStore(cfg *config.Config, ctx *commandContext) (*cache.Store, error) {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.Cache.ExpiryDays) * 24 * time.Hour
	return cache.Open(cfg.Paths.CacheDir, ttl, logger)
}
