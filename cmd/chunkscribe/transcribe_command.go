package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chunkscribe/internal/config"
	"chunkscribe/internal/history"
	"chunkscribe/internal/language"
	"chunkscribe/internal/logging"
	"chunkscribe/internal/metrics"
	"chunkscribe/internal/pipeline"
	"chunkscribe/internal/preflight"
	"chunkscribe/internal/transcription"
	"chunkscribe/internal/workspace"
)

type transcribeFlags struct {
	output      string
	language    string
	translate   bool
	timestamps  bool
	keepSRT     bool
	workers     int
	metricsFile string
	skipChecks  bool
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe <file-or-directory>",
		Short: "Transcribe an audio file or every audio file in a directory",
		Long: "Transcribe audio with the configured speech-to-text service.\n\n" +
			"Files larger than the request ceiling are cut into fixed windows and\n" +
			"transcribed in order, each window primed with the previous one's text.\n" +
			"One .txt transcript is written per input file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if err := applyTranscribeFlags(cmd, cfg, flags); err != nil {
				return err
			}
			return runTranscribe(cmd, cfg, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Directory for transcripts (default: next to the input)")
	cmd.Flags().StringVarP(&flags.language, "language", "l", "", "Spoken language as a code or name (default from config)")
	cmd.Flags().BoolVar(&flags.translate, "translate", false, "Translate speech to English instead of transcribing")
	cmd.Flags().BoolVar(&flags.timestamps, "timestamps", true, "Write [start - end] sentence cues instead of plain text")
	cmd.Flags().BoolVar(&flags.keepSRT, "keep-srt", false, "Also write the merged .srt subtitles")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Files transcribed in parallel (default from config)")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	cmd.Flags().BoolVar(&flags.skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

// applyTranscribeFlags overrides config values with flags the user set.
func applyTranscribeFlags(cmd *cobra.Command, cfg *config.Config, flags transcribeFlags) error {
	changed := cmd.Flags().Changed
	if changed("language") {
		iso := language.ToISO2(flags.language)
		if iso == "" {
			return fmt.Errorf("unrecognized language %q", flags.language)
		}
		cfg.Transcription.Language = iso
	}
	if changed("translate") {
		cfg.Transcription.Translate = flags.translate
	}
	if changed("timestamps") {
		cfg.Transcription.Timestamps = flags.timestamps
	}
	if changed("keep-srt") {
		cfg.Transcription.KeepSRT = flags.keepSRT
	}
	if changed("workers") {
		if flags.workers <= 0 {
			return errors.New("--workers must be positive")
		}
		cfg.Transcription.Workers = flags.workers
	}
	return cfg.Validate()
}

func runTranscribe(cmd *cobra.Command, cfg *config.Config, input string, flags transcribeFlags) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	inputPath, err := config.ExpandPath(input)
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}
	outputDir, err := resolveOutputDir(inputPath, flags.output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock, err := workspace.LockOutput(outputDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	workspace.CleanStale(runCtx, cfg.Paths.WorkDir, workspace.DefaultStaleAge, logger)

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if !flags.skipChecks {
		results := preflight.RunAll(runCtx, cfg, preflight.Options{OutputDir: outputDir})
		if failed := preflight.Failed(results); len(failed) > 0 {
			fmt.Fprintln(out, renderPreflight(results, colorize))
			return fmt.Errorf("%d preflight check(s) failed; run 'chunkscribe check' for details", len(failed))
		}
	}

	client := transcription.NewClient(cfg.OpenAI.APIKey,
		transcription.WithBaseURL(cfg.OpenAI.BaseURL),
		transcription.WithModel(cfg.OpenAI.Model),
		transcription.WithTimeout(cfg.RequestTimeout()),
	)
	m := metrics.New()
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.state_dir or set history.enabled = false"),
				logging.String(logging.FieldImpact, "this run will not appear in 'chunkscribe history'"),
			)
		} else {
			defer store.Close()
			opts = append(opts, pipeline.WithRecorder(store))
		}
	}

	orchestrator := pipeline.New(cfg, client, opts...)
	report, runErr := orchestrator.Run(runCtx, pipeline.Request{
		RunID:     uuid.NewString(),
		Input:     inputPath,
		OutputDir: outputDir,
	})

	if len(report.Assets) > 0 {
		fmt.Fprintln(out, renderReport(report, colorize))
	}
	if path := strings.TrimSpace(flags.metricsFile); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			logging.WarnWithContext(logger, "metrics export failed", "metrics_write_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics for this run are lost"),
			)
		}
	}
	if runErr != nil {
		if errors.Is(runErr, pipeline.ErrPipeline) {
			succeeded, failed := report.Counts()
			return fmt.Errorf("%d of %d file(s) failed (%d succeeded); see the log for details", failed, succeeded+failed, succeeded)
		}
		return runErr
	}
	return nil
}

// resolveOutputDir defaults to the input directory, or the directory holding
// the input file.
func resolveOutputDir(input, output string) (string, error) {
	if output = strings.TrimSpace(output); output != "" {
		return config.ExpandPath(output)
	}
	info, err := os.Stat(input)
	if err != nil {
		return "", fmt.Errorf("inspect input %q: %w", input, err)
	}
	if info.IsDir() {
		return input, nil
	}
	return filepath.Dir(input), nil
}
