package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chunkscribe/internal/config"
	"chunkscribe/internal/history"
	"chunkscribe/internal/logging"
	"chunkscribe/internal/media/codec"
	"chunkscribe/internal/metrics"
	"chunkscribe/internal/services"
	"chunkscribe/internal/transcription"
	"chunkscribe/internal/workspace"
)

// Orchestrator runs the transcription pipeline over a set of inputs.
type Orchestrator struct {
	cfg         *config.Config
	transcriber transcription.Transcriber
	retry       transcription.RetryPolicy
	codec       Codec
	prober      Prober
	recorder    Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// Option configures optional Orchestrator collaborators.
type Option func(*Orchestrator)

// WithCodec replaces the ffmpeg codec.
func WithCodec(c Codec) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithProber replaces the ffprobe inspector.
func WithProber(p Prober) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.prober = p
		}
	}
}

// WithRecorder persists run outcomes, typically to the history store.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithMetrics records pipeline counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New builds an orchestrator that sends audio to transcriber.
func New(cfg *config.Config, transcriber transcription.Transcriber, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:         cfg,
		transcriber: transcriber,
		logger:      logging.NewNop(),
	}
	if cfg != nil {
		o.retry = transcription.RetryPolicy{MaxAttempts: cfg.Transcription.MaxAttempts}
		o.codec = codec.New(cfg.FFmpegBinary())
		o.prober = ffprobeProber{binary: cfg.FFprobeBinary()}
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "pipeline")
	return o
}

// Request describes one run.
type Request struct {
	// RunID correlates logs, history and the scratch directory. Generated when empty.
	RunID     string
	Input     string
	OutputDir string
}

// Run transcribes every asset found at req.Input into req.OutputDir.
//
// Discovery and setup problems abort before any service call and are returned
// as-is. Once assets are running, a failing asset never stops its siblings:
// the returned Report always lists every asset, and the error wraps
// ErrPipeline with one *AssetError per failed asset.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Report, error) {
	if o.cfg == nil {
		return Report{}, services.Wrap(services.ErrConfiguration, "pipeline", "init", "configuration is required", nil)
	}
	if o.transcriber == nil {
		return Report{}, services.Wrap(services.ErrConfiguration, "pipeline", "init", "transcriber is required", nil)
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return Report{}, services.Wrap(services.ErrValidation, "pipeline", "init", "output directory is required", nil)
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	assets, err := Discover(req.Input)
	if err != nil {
		return Report{RunID: runID, OutputDir: outputDir}, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Report{RunID: runID, OutputDir: outputDir},
			services.Wrap(services.ErrConfiguration, "pipeline", "create output directory", outputDir, err)
	}
	runDir, err := workspace.NewRunDir(o.cfg.Paths.WorkDir, runID)
	if err != nil {
		return Report{RunID: runID, OutputDir: outputDir},
			services.Wrap(services.ErrConfiguration, "pipeline", "create work directory", o.cfg.Paths.WorkDir, err)
	}
	defer func() {
		if err := runDir.Remove(); err != nil {
			logging.WarnWithContext(logger, "failed to remove run work directory", "workspace_cleanup_failed",
				logging.String("path", runDir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the directory manually or let the next run's stale cleanup handle it"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	report := Report{
		RunID:     runID,
		OutputDir: outputDir,
		StartedAt: time.Now(),
		Assets:    make([]AssetResult, len(assets)),
	}
	o.startRun(ctx, report)

	workers := max(o.cfg.Transcription.Workers, 1)
	logger.Info("transcription run started",
		logging.String("input", req.Input),
		logging.String("output_dir", outputDir),
		logging.Int("assets", len(assets)),
		logging.Int("workers", workers),
	)

	stems := outputStems(assets)
	var group errgroup.Group
	group.SetLimit(workers)
	for i, asset := range assets {
		group.Go(func() error {
			result := o.runAsset(ctx, runDir, i, asset, filepath.Join(outputDir, stems[i]))
			report.Assets[i] = result
			o.recordAsset(ctx, runID, result)
			return nil
		})
	}
	_ = group.Wait()
	report.FinishedAt = time.Now()

	var assetErrs []error
	for _, result := range report.Assets {
		if result.Err != nil {
			assetErrs = append(assetErrs, &AssetError{Asset: result.Asset.Name, Err: result.Err})
		}
	}
	o.finishRun(ctx, report)

	succeeded, failed := report.Counts()
	logger.Info("transcription run finished",
		logging.String("status", string(report.Status())),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, joinAssetErrors(assetErrs, len(assets))
}

func (o *Orchestrator) runAsset(ctx context.Context, runDir workspace.RunDir, index int, asset AudioAsset, outputBase string) AssetResult {
	started := time.Now()
	ctx = services.WithAsset(ctx, asset.Name)
	logger := logging.WithContext(ctx, o.logger)

	result := AssetResult{Asset: asset}
	workDir, err := runDir.AssetDir(index, asset.Name)
	if err != nil {
		result.Err = services.Wrap(services.ErrConfiguration, "pipeline", "create asset directory", asset.Name, err)
	} else {
		runner := &assetRunner{
			o:          o,
			asset:      asset,
			workDir:    workDir,
			outputBase: outputBase,
			logger:     logger,
		}
		result = runner.run(ctx)
		if err := os.RemoveAll(workDir); err != nil {
			logging.WarnWithContext(logger, "failed to remove asset work directory", "workspace_cleanup_failed",
				logging.String("path", workDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed until the run finishes"),
			)
		}
	}

	if result.Err != nil && result.Status == "" {
		result.Status = services.FailureStatus(result.Err)
	}
	result.Elapsed = time.Since(started)
	o.metrics.RecordAsset(string(result.Status), result.Elapsed)

	if result.Err != nil {
		logging.ErrorWithContext(logger, "asset transcription failed", "asset_failed",
			logging.String("status", string(result.Status)),
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, assetErrorHint(result.Err)),
		)
		return result
	}
	logger.Info("asset transcribed",
		logging.String("status", string(result.Status)),
		logging.String("output", result.OutputPath),
		logging.Int("segments", result.Segments),
		logging.Int("failed_segments", result.FailedSegments),
		logging.Int("cues", result.Cues),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result
}

func assetErrorHint(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "run was interrupted; rerun to finish"
	case errors.Is(err, services.ErrExternalTool):
		return "check ffmpeg/ffprobe can decode the file"
	case errors.Is(err, errTotalFailure):
		return "check the API key and service status with 'chunkscribe check'"
	case errors.Is(err, services.ErrValidation):
		return "check the input file"
	default:
		return "check logs for details"
	}
}

func (o *Orchestrator) startRun(ctx context.Context, report Report) {
	if o.recorder == nil {
		return
	}
	run := report.historyRun(o.cfg.Transcription.Language, o.cfg.OpenAI.Model)
	run.Status = history.StatusTranscribing
	run.Succeeded, run.Failed = 0, 0
	if err := o.recorder.StartRun(ctx, run); err != nil {
		o.warnHistory(ctx, "record run start", err)
	}
}

func (o *Orchestrator) recordAsset(ctx context.Context, runID string, result AssetResult) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordAsset(context.WithoutCancel(ctx), result.historyAsset(runID)); err != nil {
		o.warnHistory(ctx, fmt.Sprintf("record asset %s", result.Asset.Name), err)
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, report Report) {
	if o.recorder == nil {
		return
	}
	run := report.historyRun(o.cfg.Transcription.Language, o.cfg.OpenAI.Model)
	if err := o.recorder.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		o.warnHistory(ctx, "record run finish", err)
	}
}

func (o *Orchestrator) warnHistory(ctx context.Context, operation string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "run history update failed", "history_write_failed",
		logging.String("operation", operation),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check history.db in paths.state_dir"),
		logging.String(logging.FieldImpact, "run is missing from 'chunkscribe history'"),
	)
}
