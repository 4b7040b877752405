package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subforge/internal/cachestore"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the translation cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func withCache(ctx *commandContext, fn func(*cachestore.Store) error) error {
	store, err := ctx.openCache()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *cachestore.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, summaryTable([][]string{
					{"Path", stats.Path},
					{"Size", humanize.Bytes(uint64(stats.SizeBytes))},
					{"Translation batches", humanize.Comma(int64(stats.Translations))},
					{"Translated items", humanize.Comma(int64(stats.TranslatedItems))},
					{"Validations", humanize.Comma(int64(stats.Validations))},
					{"Hits", humanize.Comma(stats.Hits)},
				}))
				if len(stats.Pairs) == 0 {
					return nil
				}
				pairs := make([]string, 0, len(stats.Pairs))
				for pair := range stats.Pairs {
					pairs = append(pairs, pair)
				}
				sort.Strings(pairs)
				rows := make([][]string, 0, len(pairs))
				for _, pair := range pairs {
					rows = append(rows, []string{pair, strconv.Itoa(stats.Pairs[pair])})
				}
				fmt.Fprintln(out, renderTable([]string{"Pair", "Batches"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached translation and validation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *cachestore.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s cache entries\n", humanize.Comma(removed))
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cache entries older than a given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *cachestore.Store) error {
				removed, err := store.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s cache entries older than %s\n", humanize.Comma(removed), olderThan)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum entry age to remove")
	return cmd
}
