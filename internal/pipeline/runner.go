package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"chunkscribe/internal/fileutil"
	"chunkscribe/internal/history"
	"chunkscribe/internal/logging"
	"chunkscribe/internal/media/codec"
	"chunkscribe/internal/services"
	"chunkscribe/internal/subtitles"
	"chunkscribe/internal/transcription"
)

// assetRunner carries one asset through the pipeline. It owns the asset's
// work directory and every file created in it.
type assetRunner struct {
	o          *Orchestrator
	asset      AudioAsset
	workDir    string
	outputBase string
	logger     *slog.Logger
}

// foldResult accumulates segment outcomes in segment order.
type foldResult struct {
	cues     [][]subtitles.Cue
	failed   int
	attempts int
	warnings int
}

type prefetched struct {
	segment Segment
	err     error
}

func (r *assetRunner) run(ctx context.Context) AssetResult {
	result := AssetResult{Asset: r.asset}
	cfg := r.o.cfg

	probed, err := r.probe(services.WithStage(ctx, "probe"), r.asset)
	if err != nil {
		result.Err = err
		return result
	}
	result.Asset = probed

	maxBytes := cfg.MaxRequestBytes()
	working := probed
	if needsConversion(probed, maxBytes) {
		working, err = r.convert(services.WithStage(ctx, "convert"), probed)
		if err != nil {
			result.Err = err
			return result
		}
	}

	segments, err := Plan(working, maxBytes, cfg.WindowDuration())
	if err != nil {
		result.Err = err
		return result
	}
	result.Segments = len(segments)
	r.logPlan(working, maxBytes, segments)

	fold, err := r.transcribeSegments(ctx, working.Path, segments)
	result.FailedSegments = fold.failed
	result.Attempts = fold.attempts
	result.ParseWarnings = fold.warnings
	if err != nil {
		result.Err = err
		return result
	}
	if fold.failed == len(segments) && cfg.Transcription.FailOnTotalFailure {
		result.Status = history.StatusFailed
		result.Err = services.Wrap(services.ErrTransient, "transcribe", "segments",
			fmt.Sprintf("%d of %d segments failed", fold.failed, len(segments)), errTotalFailure)
		return result
	}

	timeline := subtitles.Merge(fold.cues, subtitles.MergeOptions{
		Fallback:         subtitles.ParseOffsetFallback(cfg.Transcription.OffsetFallback),
		NominalDurations: nominalDurations(segments),
	})
	result.Cues = len(timeline)

	if err := r.writeOutputs(services.WithStage(ctx, "write"), timeline, &result); err != nil {
		result.Err = err
		return result
	}
	result.Status = history.StatusCompleted
	if fold.failed > 0 {
		result.Status = history.StatusPartial
	}
	return result
}

// probe fills in size and duration from ffprobe. The size already read from
// disk wins over the container's reported size.
func (r *assetRunner) probe(ctx context.Context, asset AudioAsset) (AudioAsset, error) {
	info, err := r.o.prober.Probe(ctx, asset.Path)
	if err != nil {
		return asset, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", asset.Name, err)
	}
	if info.AudioStreamCount() == 0 {
		return asset, services.Wrap(services.ErrValidation, "probe", "audio streams",
			fmt.Sprintf("%s has no audio stream", asset.Name), nil)
	}
	if asset.Size <= 0 {
		asset.Size = info.SizeBytes()
	}
	asset.Duration = info.Duration()
	return asset, nil
}

// convert re-encodes an oversized asset to mp3 inside the work directory and
// returns the converted copy. The source file is left untouched.
func (r *assetRunner) convert(ctx context.Context, asset AudioAsset) (AudioAsset, error) {
	dest := filepath.Join(r.workDir, "converted."+codec.CanonicalFormat)
	logger := logging.WithContext(ctx, r.o.logger)
	logger.Info("converting oversized asset",
		logging.Args(logging.DecisionAttrs("audio_conversion", "convert",
			fmt.Sprintf("%s input is %d bytes, over the %d byte ceiling", asset.Format, asset.Size, r.o.cfg.MaxRequestBytes()))...)...,
	)
	if err := r.o.codec.ConvertToMP3(ctx, asset.Path, dest); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		return asset, services.Wrap(services.ErrExternalTool, "convert", "ffmpeg", asset.Name, err)
	}

	converted := AudioAsset{Path: dest, Name: asset.Name, Format: codec.CanonicalFormat}
	converted, err := r.probe(ctx, converted)
	if err != nil {
		return asset, err
	}
	if converted.Duration <= 0 {
		converted.Duration = asset.Duration
	}
	logger.Info("asset converted",
		logging.Int64("original_bytes", asset.Size),
		logging.Int64("converted_bytes", converted.Size),
		logging.Duration("duration", converted.Duration),
	)
	return converted, nil
}

func (r *assetRunner) logPlan(asset AudioAsset, maxBytes int64, segments []Segment) {
	result, reason := "single", fmt.Sprintf("%d bytes within the %d byte ceiling", asset.Size, maxBytes)
	if len(segments) > 1 {
		result = "split"
		reason = fmt.Sprintf("%d bytes over the %d byte ceiling", asset.Size, maxBytes)
	}
	attrs := logging.DecisionAttrs("chunk_plan", result, reason)
	attrs = append(attrs,
		logging.Int("segments", len(segments)),
		logging.Duration("duration", asset.Duration),
	)
	r.logger.Info("chunk plan decided", logging.Args(attrs...)...)
}

// transcribeSegments folds over the segments in order. Each segment's prompt
// comes from the previous segment's text, so no two segments of one asset are
// ever in flight together. Extraction of the next window overlaps the current
// service call. A failed segment contributes no cues and resets the prompt; an
// extraction failure or cancellation aborts the asset.
func (r *assetRunner) transcribeSegments(ctx context.Context, source string, segments []Segment) (foldResult, error) {
	fold := foldResult{cues: make([][]subtitles.Cue, len(segments))}
	cfg := r.o.cfg

	fetchCtx, cancel := context.WithCancel(ctx)
	ready := r.prefetch(fetchCtx, source, segments)
	defer func() {
		cancel()
		for item := range ready {
			r.discard(item.segment)
		}
	}()

	prompter := transcription.NewPrompter(cfg.Transcription.InitialPrompt)
	done := 0
	for item := range ready {
		if item.err != nil {
			return fold, item.err
		}
		segment := item.segment
		segCtx := services.WithStage(services.WithSegment(ctx, segment.Index), "transcribe")
		logger := logging.WithContext(segCtx, r.o.logger)

		started := time.Now()
		outcome := r.o.retry.Transcribe(segCtx, r.o.transcriber, transcription.Request{
			AudioPath: segment.AudioPath,
			Prompt:    prompter.Prompt(),
			Language:  cfg.Transcription.Language,
			Translate: cfg.Transcription.Translate,
		})
		r.discard(segment)
		if err := ctx.Err(); err != nil {
			return fold, err
		}
		done++
		fold.attempts += outcome.Attempts
		r.o.metrics.RecordSegment(outcome.Failed(), outcome.Attempts, time.Since(started))

		if outcome.Failed() {
			fold.failed++
			logging.WarnWithContext(logger, "segment transcription failed", "segment_retries_exhausted",
				logging.Int("attempts", outcome.Attempts),
				logging.Error(outcome.Err),
				logging.String(logging.FieldErrorHint, "check service availability and the API key"),
				logging.String(logging.FieldImpact, "transcript has a gap for this segment"),
			)
			prompter = prompter.Advance("", true)
			continue
		}

		parsed := subtitles.Parse(outcome.Raw)
		for _, warning := range parsed.Warnings {
			logger.Warn("skipped malformed subtitle block",
				logging.Int("block", warning.Block),
				logging.String("reason", warning.Reason),
				logging.String(logging.FieldEventType, "srt_block_skipped"),
				logging.String(logging.FieldErrorHint, "service returned unexpected subtitle text"),
			)
		}
		fold.warnings += len(parsed.Warnings)
		r.o.metrics.RecordParseWarnings(len(parsed.Warnings))

		fold.cues[segment.Index] = parsed.Cues
		prompter = prompter.Advance(parsed.PlainText(), false)
		logger.Debug("segment transcribed",
			logging.Int("attempts", outcome.Attempts),
			logging.Int("cues", len(parsed.Cues)),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	if done < len(segments) {
		if err := ctx.Err(); err != nil {
			return fold, err
		}
		return fold, fmt.Errorf("segment producer stopped after %d of %d segments", done, len(segments))
	}
	return fold, nil
}

// prefetch materializes segment audio one step ahead of the consumer. A
// single-segment plan uses the source file directly and extracts nothing.
func (r *assetRunner) prefetch(ctx context.Context, source string, segments []Segment) <-chan prefetched {
	out := make(chan prefetched, 1)
	go func() {
		defer close(out)
		for _, segment := range segments {
			item := prefetched{segment: segment}
			if len(segments) == 1 {
				item.segment.AudioPath = source
			} else {
				item.segment, item.err = r.extract(ctx, source, segment)
			}
			select {
			case out <- item:
			case <-ctx.Done():
				r.discard(item.segment)
				return
			}
			if item.err != nil {
				return
			}
		}
	}()
	return out
}

func (r *assetRunner) extract(ctx context.Context, source string, segment Segment) (Segment, error) {
	dest := filepath.Join(r.workDir, fmt.Sprintf("segment-%03d.%s", segment.Index, codec.CanonicalFormat))
	segCtx := services.WithStage(services.WithSegment(ctx, segment.Index), "extract")
	if err := r.o.codec.ExtractSegment(segCtx, source, segment.Start, segment.Duration, dest); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		return segment, services.Wrap(services.ErrExternalTool, "extract", "ffmpeg",
			fmt.Sprintf("segment %d [%s, %s)", segment.Index, segment.Start, segment.End()), err)
	}
	segment.AudioPath = dest
	segment.extracted = true
	return segment, nil
}

// discard deletes an extracted segment file. Source files are never removed.
func (r *assetRunner) discard(segment Segment) {
	if !segment.extracted || segment.AudioPath == "" {
		return
	}
	if err := fileutil.RemoveIfExists(segment.AudioPath); err != nil {
		logging.WarnWithContext(r.logger, "failed to remove segment audio", "segment_cleanup_failed",
			logging.String("path", segment.AudioPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file stays until the asset work directory is removed"),
		)
	}
}

func (r *assetRunner) writeOutputs(ctx context.Context, timeline subtitles.Timeline, result *AssetResult) error {
	cfg := r.o.cfg
	var content string
	if cfg.Transcription.Timestamps {
		display := subtitles.Resegment(timeline, subtitles.ParseTrailingPolicy(cfg.Transcription.TrailingPolicy))
		result.DisplayCues = len(display)
		content = subtitles.RenderDisplay(display)
	} else {
		content = subtitles.PlainText(timeline)
		if content != "" {
			content += "\n"
		}
	}

	textPath := r.outputBase + ".txt"
	if err := fileutil.WriteFileAtomic(textPath, []byte(content), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "write", "transcript", textPath, err)
	}
	result.OutputPath = textPath

	if cfg.Transcription.KeepSRT {
		srtPath := r.outputBase + ".srt"
		if err := fileutil.WriteFileAtomic(srtPath, []byte(subtitles.RenderSRT(timeline)), 0o644); err != nil {
			return services.Wrap(services.ErrConfiguration, "write", "subtitles", srtPath, err)
		}
		result.SRTPath = srtPath
	}
	logging.WithContext(ctx, r.o.logger).Debug("outputs written",
		logging.String("transcript", textPath),
		logging.Bool("srt", result.SRTPath != ""),
		logging.Int("bytes", len(content)),
	)
	return nil
}

func nominalDurations(segments []Segment) []int64 {
	durations := make([]int64, len(segments))
	for i, segment := range segments {
		durations[i] = segment.Duration.Milliseconds()
	}
	return durations
}
