package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, status, language, model, output_dir, asset_count, succeeded, failed, started_at, finished_at"

const assetColumns = "id, run_id, name, source_path, output_path, status, segment_count, failed_segments, cue_count, attempts, audio_duration_ms, error_message, created_at"

// ErrRunNotFound is returned when no run matches an id or prefix.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRun is returned when a run id prefix matches more than one run.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

// StartRun inserts a run in the transcribing state.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusTranscribing
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, status, language, model, output_dir, asset_count, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Status,
		nullableString(run.Language),
		nullableString(run.Model),
		nullableString(run.OutputDir),
		run.AssetCount,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordAsset stores the terminal outcome of one asset.
func (s *Store) RecordAsset(ctx context.Context, asset Asset) error {
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO assets (
            run_id, name, source_path, output_path, status, segment_count,
            failed_segments, cue_count, attempts, audio_duration_ms, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.RunID,
		asset.Name,
		asset.SourcePath,
		nullableString(asset.OutputPath),
		asset.Status,
		asset.SegmentCount,
		asset.FailedSegments,
		asset.CueCount,
		asset.Attempts,
		asset.AudioDuration.Milliseconds(),
		nullableString(asset.ErrorMessage),
		asset.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// FinishRun records the terminal status and tallies of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, succeeded = ?, failed = ?, finished_at = ? WHERE id = ?`,
		run.Status,
		run.Succeeded,
		run.Failed,
		nullableTime(run.FinishedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun resolves a run by full id or unique prefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (Run, error) {
	ctx = ensureContext(ctx)
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return Run{}, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ORDER BY (id = ?) DESC, started_at DESC LIMIT 2",
		idOrPrefix, escapeLike(idOrPrefix)+"%", idOrPrefix)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, fmt.Errorf("scan run: %w", err)
		}
		if run.ID == idOrPrefix {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, ErrRunNotFound
	case 1:
		return matches[0], nil
	default:
		return Run{}, ErrAmbiguousRun
	}
}

// ListAssets returns the assets recorded for a run in insertion order.
func (s *Store) ListAssets(ctx context.Context, runID string) ([]Asset, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// Clear removes every run and its assets.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if _, err := s.execWithRetry(ctx, `DELETE FROM assets`); err != nil {
		return 0, fmt.Errorf("clear assets: %w", err)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("%", "", "_", "")
	return replacer.Replace(value)
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		id          string
		status      string
		language    sql.NullString
		model       sql.NullString
		outputDir   sql.NullString
		assetCount  int
		succeeded   int
		failed      int
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &status, &language, &model, &outputDir, &assetCount, &succeeded, &failed, &startedRaw, &finishedRaw); err != nil {
		return Run{}, err
	}
	run := Run{
		ID:         id,
		Status:     Status(status),
		Language:   language.String,
		Model:      model.String,
		OutputDir:  outputDir.String,
		AssetCount: assetCount,
		Succeeded:  succeeded,
		Failed:     failed,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = finished
		}
	}
	return run, nil
}

func scanAsset(scanner interface{ Scan(dest ...any) error }) (Asset, error) {
	var (
		asset      Asset
		status     string
		outputPath sql.NullString
		durationMS int64
		errorMsg   sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&asset.ID,
		&asset.RunID,
		&asset.Name,
		&asset.SourcePath,
		&outputPath,
		&status,
		&asset.SegmentCount,
		&asset.FailedSegments,
		&asset.CueCount,
		&asset.Attempts,
		&durationMS,
		&errorMsg,
		&createdRaw,
	); err != nil {
		return Asset{}, err
	}
	asset.Status = Status(status)
	asset.OutputPath = outputPath.String
	asset.AudioDuration = time.Duration(durationMS) * time.Millisecond
	asset.ErrorMessage = errorMsg.String
	if created, err := parseTimeString(createdRaw); err == nil {
		asset.CreatedAt = created
	}
	return asset, nil
}
