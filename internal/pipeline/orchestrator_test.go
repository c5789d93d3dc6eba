package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chunkscribe/internal/config"
	"chunkscribe/internal/history"
	"chunkscribe/internal/metrics"
	"chunkscribe/internal/testsupport"
)

const helloSRT = "1\n00:00:00,000 --> 00:00:02,000\nHello world.\n\n"

type harness struct {
	cfg         *config.Config
	inputDir    string
	outputDir   string
	prober      *stubProber
	codec       *fileCodec
	transcriber *scriptedTranscriber
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.MaxRequestMB = 1
	base := testsupport.BaseDir(cfg)
	return &harness{
		cfg:         cfg,
		inputDir:    filepath.Join(base, "input"),
		outputDir:   filepath.Join(base, "output"),
		prober:      &stubProber{duration: 2 * time.Second},
		codec:       &fileCodec{},
		transcriber: &scriptedTranscriber{responses: map[string]string{}, failures: map[string]bool{}},
	}
}

func (h *harness) addInput(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(h.inputDir, name)
	testsupport.WriteFile(t, path, size)
	return path
}

func (h *harness) run(t *testing.T, opts ...Option) (Report, error) {
	t.Helper()
	opts = append([]Option{WithProber(h.prober), WithCodec(h.codec)}, opts...)
	orchestrator := New(h.cfg, h.transcriber, opts...)
	return orchestrator.Run(context.Background(), Request{RunID: "run-1", Input: h.inputDir, OutputDir: h.outputDir})
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunSingleSegmentAsset(t *testing.T) {
	h := newHarness(t)
	source := h.addInput(t, "hello.mp3", 64)
	h.transcriber.responses["hello.mp3"] = helloSRT

	report, err := h.run(t)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(report.Assets))
	}
	result := report.Assets[0]
	if result.Status != history.StatusCompleted || result.Segments != 1 || result.Cues != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := readOutput(t, filepath.Join(h.outputDir, "hello.txt")); got != "[00:00 - 00:02] Hello world.\n\n" {
		t.Fatalf("unexpected transcript %q", got)
	}

	calls := h.transcriber.recorded()
	if len(calls) != 1 {
		t.Fatalf("expected one service call, got %d", len(calls))
	}
	if calls[0].Path != source {
		t.Fatalf("single segment should send the source file, got %s", calls[0].Path)
	}
	if calls[0].Prompt != h.cfg.Transcription.InitialPrompt {
		t.Fatalf("expected initial prompt, got %q", calls[0].Prompt)
	}
	if len(h.codec.extractCalls()) != 0 {
		t.Fatalf("single segment must not be extracted")
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source file must be kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.WorkDir, "run-1")); !os.IsNotExist(err) {
		t.Fatalf("run work directory should be removed, stat err=%v", err)
	}
}

func TestRunMiddleSegmentFailureKeepsNeighbours(t *testing.T) {
	h := newHarness(t)
	h.addInput(t, "lecture.mp3", 2*mb)
	h.prober.duration = 72 * time.Minute
	h.transcriber.responses["0"] = "1\n00:00:00,000 --> 00:23:59,500\nFirst part.\n\n"
	h.transcriber.failures["1440000"] = true
	h.transcriber.responses["2880000"] = "1\n00:00:01,000 --> 00:00:03,000\nThird part.\n\n"

	report, err := h.run(t)
	if err != nil {
		t.Fatalf("partial asset should not fail the run: %v", err)
	}
	result := report.Assets[0]
	if result.Status != history.StatusPartial {
		t.Fatalf("expected partial status, got %s", result.Status)
	}
	if result.Segments != 3 || result.FailedSegments != 1 || result.Attempts != 5 || result.Cues != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	want := "[00:00 - 23:59] First part.\n\n[24:00 - 24:02] Third part.\n\n"
	if got := readOutput(t, result.OutputPath); got != want {
		t.Fatalf("transcript mismatch\n got: %q\nwant: %q", got, want)
	}

	calls := h.transcriber.recorded()
	wantCalls := []transcribeCall{
		{Key: "0", Prompt: h.cfg.Transcription.InitialPrompt},
		{Key: "1440000", Prompt: "First part."},
		{Key: "1440000", Prompt: "First part."},
		{Key: "1440000", Prompt: "First part."},
		{Key: "2880000", Prompt: ""},
	}
	if len(calls) != len(wantCalls) {
		t.Fatalf("expected %d calls, got %+v", len(wantCalls), calls)
	}
	for i, want := range wantCalls {
		if calls[i].Key != want.Key || calls[i].Prompt != want.Prompt {
			t.Fatalf("call %d = %+v, want %+v", i, calls[i], want)
		}
	}

	extracts := h.codec.extractCalls()
	if len(extracts) != 3 {
		t.Fatalf("expected 3 extractions, got %d", len(extracts))
	}
	for i, call := range extracts {
		if call.Start != time.Duration(i)*24*time.Minute || call.Duration != 24*time.Minute {
			t.Fatalf("extraction %d = %+v", i, call)
		}
		if _, err := os.Stat(call.Dest); !os.IsNotExist(err) {
			t.Fatalf("segment file %s should be deleted, stat err=%v", call.Dest, err)
		}
	}
}

func TestRunNominalOffsetFallback(t *testing.T) {
	h := newHarness(t)
	h.cfg.Transcription.OffsetFallback = config.OffsetFallbackNominal
	h.addInput(t, "lecture.mp3", 2*mb)
	h.prober.duration = 48 * time.Minute
	h.transcriber.responses["0"] = ""
	h.transcriber.responses["1440000"] = "1\n00:00:01,000 --> 00:00:03,000\nSecond part.\n\n"

	report, err := h.run(t)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := "[24:01 - 24:03] Second part.\n\n"
	if got := readOutput(t, report.Assets[0].OutputPath); got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
	if report.Assets[0].ParseWarnings != 1 {
		t.Fatalf("empty response should produce one parse warning, got %d", report.Assets[0].ParseWarnings)
	}
}

func TestRunTotalFailure(t *testing.T) {
	h := newHarness(t)
	h.addInput(t, "silent.mp3", 64)
	h.transcriber.failures["silent.mp3"] = true

	report, err := h.run(t)
	if !errors.Is(err, ErrPipeline) {
		t.Fatalf("expected ErrPipeline, got %v", err)
	}
	var assetErr *AssetError
	if !errors.As(err, &assetErr) || assetErr.Asset != "silent.mp3" {
		t.Fatalf("expected AssetError for silent.mp3, got %v", err)
	}
	result := report.Assets[0]
	if result.Status != history.StatusFailed || result.Attempts != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(filepath.Join(h.outputDir, "silent.txt")); !os.IsNotExist(err) {
		t.Fatalf("no transcript should be written, stat err=%v", err)
	}
}

func TestRunTotalFailureTolerated(t *testing.T) {
	h := newHarness(t)
	h.cfg.Transcription.FailOnTotalFailure = false
	h.addInput(t, "silent.mp3", 64)
	h.transcriber.failures["silent.mp3"] = true

	report, err := h.run(t)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Assets[0].Status != history.StatusPartial {
		t.Fatalf("expected partial status, got %s", report.Assets[0].Status)
	}
	if got := readOutput(t, filepath.Join(h.outputDir, "silent.txt")); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestRunIsolatesAssetFailures(t *testing.T) {
	h := newHarness(t)
	h.addInput(t, "a.mp3", 64)
	h.addInput(t, "b.mp3", 64)
	h.addInput(t, "c.mp3", 64)
	h.prober.err = map[string]error{"b.mp3": errors.New("moov atom not found")}
	h.transcriber.responses["a.mp3"] = helloSRT
	h.transcriber.responses["c.mp3"] = helloSRT

	store := testsupport.MustOpenHistory(t, h.cfg)
	m := metrics.New()
	report, err := h.run(t, WithRecorder(store), WithMetrics(m))
	if !errors.Is(err, ErrPipeline) {
		t.Fatalf("expected ErrPipeline, got %v", err)
	}
	names := []string{"a.mp3", "b.mp3", "c.mp3"}
	for i, name := range names {
		if report.Assets[i].Asset.Name != name {
			t.Fatalf("asset %d = %s, want %s", i, report.Assets[i].Asset.Name, name)
		}
	}
	if report.Assets[1].Status != history.StatusFailed || report.Assets[1].Err == nil {
		t.Fatalf("expected b.mp3 to fail, got %+v", report.Assets[1])
	}
	for _, i := range []int{0, 2} {
		if report.Assets[i].Status != history.StatusCompleted {
			t.Fatalf("asset %s should complete, got %+v", names[i], report.Assets[i])
		}
	}
	if report.Status() != history.StatusPartial {
		t.Fatalf("expected partial run, got %s", report.Status())
	}

	run, err := store.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != history.StatusPartial || run.AssetCount != 3 || run.Succeeded != 2 || run.Failed != 1 {
		t.Fatalf("unexpected history run %+v", run)
	}
	assets, err := store.ListAssets(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("expected 3 history assets, got %d", len(assets))
	}
}

func TestRunConvertsOversizedNonMP3(t *testing.T) {
	h := newHarness(t)
	source := h.addInput(t, "talk.wav", 2*mb)
	h.prober.convertedSize = 1000
	h.transcriber.responses["converted.mp3"] = helloSRT

	report, err := h.run(t)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(h.codec.converted) != 1 || h.codec.converted[0] != source {
		t.Fatalf("expected one conversion of %s, got %v", source, h.codec.converted)
	}
	if report.Assets[0].Segments != 1 {
		t.Fatalf("converted asset under the ceiling should be one segment, got %d", report.Assets[0].Segments)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source must survive conversion: %v", err)
	}
}

func TestRunNeverConvertsSmallAssets(t *testing.T) {
	h := newHarness(t)
	h.addInput(t, "memo.wav", 64)
	h.transcriber.responses["memo.wav"] = helloSRT

	if _, err := h.run(t); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(h.codec.converted) != 0 {
		t.Fatalf("small asset must not be converted")
	}
}

func TestRunPlainTextAndSRTOutputs(t *testing.T) {
	h := newHarness(t)
	h.cfg.Transcription.Timestamps = false
	h.cfg.Transcription.KeepSRT = true
	h.addInput(t, "hello.mp3", 64)
	h.transcriber.responses["hello.mp3"] = "1\n00:00:00,000 --> 00:00:01,000\nHello\n\n2\n00:00:01,000 --> 00:00:02,000\nworld.\n\n"

	report, err := h.run(t)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := readOutput(t, report.Assets[0].OutputPath); got != "Hello world.\n" {
		t.Fatalf("plain transcript = %q", got)
	}
	if report.Assets[0].SRTPath == "" {
		t.Fatalf("expected an srt path")
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\nHello\n\n2\n00:00:01,000 --> 00:00:02,000\nworld.\n\n"
	if got := readOutput(t, report.Assets[0].SRTPath); got != want {
		t.Fatalf("srt = %q, want %q", got, want)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	h := newHarness(t)
	h.addInput(t, "lecture.mp3", 2*mb)
	h.prober.duration = 72 * time.Minute
	h.transcriber.failures["0"] = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.transcriber.onCall = cancel

	orchestrator := New(h.cfg, h.transcriber, WithProber(h.prober), WithCodec(h.codec))
	report, err := orchestrator.Run(ctx, Request{RunID: "run-1", Input: h.inputDir, OutputDir: h.outputDir})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls := h.transcriber.recorded(); len(calls) != 1 {
		t.Fatalf("expected a single call before cancellation, got %d", len(calls))
	}
	if report.Assets[0].Status != history.StatusFailed {
		t.Fatalf("expected failed status, got %s", report.Assets[0].Status)
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t)
	if err == nil || errors.Is(err, ErrPipeline) {
		t.Fatalf("expected a discovery error, got %v", err)
	}
	if len(h.transcriber.recorded()) != 0 {
		t.Fatalf("no service calls expected")
	}
}
