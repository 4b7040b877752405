package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/language"
	"subforge/internal/translate"
)

func newPairsCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List translation strategies per language pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			table, err := translate.NewPairTable(cfg.Translation.PivotLanguage, cfg.Translation.Models)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if sourceLang != "" || targetLang != "" {
				src, tgt := language.ToISO2(sourceLang), language.ToISO2(targetLang)
				if src == "" || tgt == "" {
					return fmt.Errorf("both --source and --target are required to resolve a pair")
				}
				fmt.Fprintf(out, "%s -> %s: %s\n", src, tgt, table.Resolve(src, tgt))
				return nil
			}

			entries := table.Plans()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				detail := ""
				switch entry.Strategy.Kind {
				case translate.Direct:
					detail = entry.Strategy.Model
				case translate.Pivot:
					detail = "via " + entry.Strategy.Through
				}
				rows = append(rows, []string{
					entry.Pair.Source,
					entry.Pair.Target,
					entry.Strategy.Kind.String(),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Source", "Target", "Strategy", "Detail"}, rows, nil))
			fmt.Fprintf(out, "Pivot language: %s\n", table.Pivot())
			fmt.Fprintf(out, "Cloud translator configured: %s\n", yesNo(strings.TrimSpace(cfg.Translation.CloudAPIKey) != ""))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Resolve a single pair from this language")
	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "Resolve a single pair into this language")
	return cmd
}
