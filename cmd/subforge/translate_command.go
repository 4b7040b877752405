package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subforge/internal/pipeline"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceLang string
		targetLang string
		format     string
		outputDir  string
		validate   bool
		double     bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "translate <file.srt>",
		Short: "Translate an existing SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			subtitleFormat, err := resolveFormat(format, cfg.Captions.Format)
			if err != nil {
				return err
			}

			var printer *progressPrinter
			if !quiet {
				printer = startProgress(cmd.ErrOrStderr())
			}
			p, release, err := ctx.openPipeline(printerSink(printer))
			if err != nil {
				stopPrinter(printer)
				return err
			}
			defer release()

			result, err := p.TranslateFile(cmd.Context(), pipeline.TranslateFileRequest{
				Path:      args[0],
				Source:    sourceLang,
				Target:    targetLang,
				Format:    subtitleFormat,
				OutputDir: outputDir,
				Validate:  validate || cfg.Validation.Enabled,
				Double:    double || cfg.Validation.Double,
			})
			stopPrinter(printer)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable([][]string{
				{"Run", result.RunID},
				{"Subtitles", fileSummary(result.SubtitlePath)},
				{"Language", strings.ToLower(sourceLang) + " -> " + strings.ToLower(targetLang)},
				{"Segments", humanize.Comma(int64(result.SegmentCount))},
				{"Skipped cues", humanize.Comma(int64(result.Skipped))},
				{"Adverts", humanize.Comma(int64(result.Adverts))},
				{"Confidence", formatConfidence(result.AvgConfidence)},
				{"Validation", validationSummary(result.Validation)},
				{"Elapsed", formatElapsed(result.Duration)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Source language")
	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Subtitle format: srt or vtt (default captions.format)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the translated file")
	cmd.Flags().BoolVar(&validate, "validate", false, "Refine translations with the LLM")
	cmd.Flags().BoolVar(&double, "double", false, "Validate with two models and keep the agreed text")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
