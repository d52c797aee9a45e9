package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-pulso/analysis"
	"github.com/RyanBlaney/sonido-pulso/transcode"
)

type analyzeOptions struct {
	workers        int
	timeout        time.Duration
	sampleDuration float64
	skipIntro      float64
	forceFFmpeg    bool
	sampleRate     int
	jsonOutput     bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze tempo, key, danceability and mood of audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, ctx, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "Files analyzed concurrently")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Per-file time limit (0 disables)")
	cmd.Flags().Float64Var(&opts.sampleDuration, "sample-duration", 0, "Seconds per analysis window (overrides config)")
	cmd.Flags().Float64Var(&opts.skipIntro, "skip-intro", -1, "Seconds skipped at the start (overrides config)")
	cmd.Flags().BoolVar(&opts.forceFFmpeg, "ffmpeg", false, "Decode every format through ffmpeg")
	cmd.Flags().IntVar(&opts.sampleRate, "sample-rate", 0, "Sample rate requested from ffmpeg (default 22050)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Write results as JSON")

	return cmd
}

func runAnalyze(cmd *cobra.Command, ctx *commandContext, opts analyzeOptions, paths []string) error {
	cfg, err := ctx.loadConfig()
	if err != nil {
		return err
	}
	if opts.sampleDuration > 0 {
		cfg.Segment.SampleDuration = opts.sampleDuration
	}
	if opts.skipIntro >= 0 {
		cfg.Segment.SkipIntro = opts.skipIntro
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	decoderCfg := transcode.DefaultDecoderConfig()
	decoderCfg.ForceFFmpeg = opts.forceFFmpeg
	if opts.sampleRate > 0 {
		decoderCfg.TargetSampleRate = opts.sampleRate
	}
	if err := decoderCfg.Validate(); err != nil {
		return err
	}

	open := func(path string) (analysis.RangeReader, error) {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return transcode.Open(path, decoderCfg)
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := analysis.AnalyzeBatch(runCtx, cfg, paths, analysis.BatchOptions{
		Workers: opts.workers,
		Timeout: opts.timeout,
	}, open)
	if err != nil {
		return err
	}
	if err := runCtx.Err(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		writeResultTable(out, results)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func writeResultTable(w io.Writer, results []analysis.BatchResult) {
	headers := []string{"File", "BPM", "Key", "Camelot", "Mode", "Dance", "Valence", "Arousal"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}

	rows := make([][]string, 0, len(results))
	var failures []analysis.BatchResult
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			failures = append(failures, r)
			continue
		}
		rows = append(rows, resultRow(r))
	}

	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable(headers, rows, aligns))
	}
	for _, f := range failures {
		msg := f.Error
		if msg == "" {
			msg = "no result"
		}
		fmt.Fprintf(w, "%s: %s\n", f.Path, msg)
	}
}

func resultRow(r analysis.BatchResult) []string {
	res := r.Result
	bpm := strconv.FormatFloat(res.Tempo.BPM, 'f', 1, 64)
	if res.Tempo.Failed {
		bpm += "?"
	}
	dance := res.Features.Danceability
	mood := res.Features.Mood
	return []string{
		r.Path,
		bpm,
		res.Key.Key,
		res.Key.Camelot,
		fmt.Sprintf("%s (%.2f)", res.Key.Mode, res.Key.ModeConfidence),
		fmt.Sprintf("%s (%.2f)", dance.Label, dance.Score),
		fmt.Sprintf("%s (%.2f)", mood.ValenceLabel, mood.Valence),
		fmt.Sprintf("%s (%.2f)", mood.ArousalLabel, mood.Arousal),
	}
}
