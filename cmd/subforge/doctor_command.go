package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, services, and the cache database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			statuses = append(statuses, deps.CheckFFmpegFilters(cmd.Context(), cfg.ASR.FFmpegBinary, nil))
			if !offline {
				statuses = append(statuses, deps.CheckEndpoints(cmd.Context(), nil, []deps.Endpoint{
					{Name: "Model server", URL: cfg.Translation.ModelServerURL},
					{Name: "LLM endpoint", URL: cfg.Validation.BaseURL, Optional: !cfg.Validation.Enabled},
					{Name: "TTS server", URL: cfg.Dubbing.TTSURL, Optional: true},
				})...)
			}

			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			for _, status := range statuses {
				fmt.Fprintln(out, renderStatusLine(status.Name, dependencyKind(status), dependencyMessage(status), colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Cache", colorize))
			cacheStatus := statusOK
			cacheMessage := cfg.CacheDBPath()
			if !cfg.Translation.PersistentCache {
				cacheStatus, cacheMessage = statusInfo, "persistent cache disabled"
			} else if store, err := ctx.openCache(); err != nil {
				cacheStatus, cacheMessage = statusError, err.Error()
			} else {
				_ = store.Close()
			}
			fmt.Fprintln(out, renderStatusLine("Cache database", cacheStatus, cacheMessage, colorize))

			if !deps.Healthy(statuses) || cacheStatus == statusError {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip HTTP endpoint checks")
	return cmd
}

func dependencyKind(status deps.Status) statusKind {
	switch {
	case status.Available:
		return statusOK
	case status.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyMessage(status deps.Status) string {
	parts := []string{}
	if status.Command != "" {
		parts = append(parts, status.Command)
	}
	if status.Detail != "" {
		parts = append(parts, status.Detail)
	}
	return strings.Join(parts, " - ")
}
