package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subforge/internal/pipeline"
)

func newDubCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceLang     string
		targetLang     string
		outputDir      string
		transcriptPath string
		speaker        string
		keepWork       bool
		quiet          bool
	)

	cmd := &cobra.Command{
		Use:   "dub <media>",
		Short: "Replace a video's speech with synthesized target-language audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if speaker == "" {
				speaker = cfg.Dubbing.SpeakerReference
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

			result, err := p.Dub(cmd.Context(), pipeline.DubRequest{
				MediaPath:        args[0],
				TranscriptPath:   transcriptPath,
				Source:           sourceLang,
				Target:           targetLang,
				OutputDir:        outputDir,
				SpeakerReference: speaker,
				KeepWork:         keepWork,
			})
			stopPrinter(printer)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable([][]string{
				{"Run", result.RunID},
				{"Video", fileSummary(result.VideoPath)},
				{"Audio", fileSummary(result.AudioPath)},
				{"Language", result.DetectedLanguage + " -> " + strings.ToLower(targetLang)},
				{"Segments", humanize.Comma(int64(result.Segments))},
				{"Synthesized", humanize.Comma(int64(result.Synthesized))},
				{"Skipped", humanize.Comma(int64(result.Skipped))},
				{"Failed", humanize.Comma(int64(result.Failed))},
				{"Stretched", humanize.Comma(int64(result.Stretched))},
				{"Padded", humanize.Comma(int64(result.Padded))},
				{"Trimmed", humanize.Comma(int64(result.Trimmed))},
				{"Overlaps", humanize.Comma(int64(result.Overlaps))},
				{"Elapsed", formatElapsed(result.Duration)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Source language (empty: use the detected language)")
	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for outputs")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Recognizer JSON to use instead of transcribing")
	cmd.Flags().StringVar(&speaker, "speaker", "", "Reference voice clip passed to the TTS server (default dubbing.speaker_reference)")
	cmd.Flags().BoolVar(&keepWork, "keep-work", false, "Keep the run's work directory")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
