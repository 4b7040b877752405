package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subforge/internal/pipeline"
)

func newCaptionCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceLang string
		targetLang string
		format     string
		outputDir  string
		mediaPath  string
		validate   bool
		double     bool
		burn       bool
		keepWork   bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "caption <media|transcript.json>",
		Short: "Transcribe and translate speech into a subtitle file",
		Long: "Transcribe a media file (or load a recognizer JSON transcript), translate the\n" +
			"segments into the target language, and write an SRT or WebVTT file.\n" +
			"With --burn the subtitles are also rendered into a copy of the video.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			subtitleFormat, err := resolveFormat(format, cfg.Captions.Format)
			if err != nil {
				return err
			}

			req := pipeline.CaptionRequest{
				Source:    sourceLang,
				Target:    targetLang,
				Format:    subtitleFormat,
				OutputDir: outputDir,
				Validate:  validate || cfg.Validation.Enabled,
				Double:    double || cfg.Validation.Double,
				BurnIn:    burn,
				KeepWork:  keepWork,
			}
			input := args[0]
			if strings.EqualFold(filepath.Ext(input), ".json") {
				req.TranscriptPath = input
				req.MediaPath = mediaPath
			} else {
				req.MediaPath = input
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

			result, err := p.Caption(cmd.Context(), req)
			stopPrinter(printer)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable([][]string{
				{"Run", result.RunID},
				{"Subtitles", fileSummary(result.SubtitlePath)},
				{"Video", fileSummary(result.VideoPath)},
				{"Language", result.DetectedLanguage + " -> " + strings.ToLower(targetLang)},
				{"Strategy", result.Strategy.String()},
				{"Segments", humanize.Comma(int64(result.SegmentCount))},
				{"Filtered", humanize.Comma(int64(result.Filtered))},
				{"Confidence", formatConfidence(result.AvgConfidence)},
				{"Validation", validationSummary(result.Validation)},
				{"Elapsed", formatElapsed(result.Duration)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Source language (empty: use the detected language)")
	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Subtitle format: srt or vtt (default captions.format)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for outputs (default paths.output_dir, else next to the input)")
	cmd.Flags().StringVar(&mediaPath, "media", "", "Video to burn into when the input is a transcript")
	cmd.Flags().BoolVar(&validate, "validate", false, "Refine translations with the LLM")
	cmd.Flags().BoolVar(&double, "double", false, "Validate with two models and keep the agreed text")
	cmd.Flags().BoolVar(&burn, "burn", false, "Burn the subtitles into a copy of the video")
	cmd.Flags().BoolVar(&keepWork, "keep-work", false, "Keep the run's work directory")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
