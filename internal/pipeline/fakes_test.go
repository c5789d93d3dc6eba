package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"chunkscribe/internal/media/ffprobe"
	"chunkscribe/internal/transcription"
)

// stubProber reports a fixed duration for every file, and a size only for
// files the runner created (converted copies).
type stubProber struct {
	duration      time.Duration
	convertedSize int64
	err           map[string]error
}

func (p *stubProber) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	for suffix, err := range p.err {
		if strings.HasSuffix(path, suffix) {
			return ffprobe.Result{}, err
		}
	}
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{{Index: 0, CodecType: "audio", CodecName: "mp3"}},
		Format: ffprobe.Format{
			Filename: path,
			Duration: fmt.Sprintf("%.3f", p.duration.Seconds()),
		},
	}
	if strings.HasSuffix(path, "converted.mp3") {
		result.Format.Size = strconv.FormatInt(p.convertedSize, 10)
	}
	return result, nil
}

type extractCall struct {
	Start    time.Duration
	Duration time.Duration
	Dest     string
}

// fileCodec writes the window start in milliseconds into each extracted file so
// the transcriber can tell segments apart.
type fileCodec struct {
	mu        sync.Mutex
	converted []string
	extracts  []extractCall
}

func (c *fileCodec) ConvertToMP3(_ context.Context, source, dest string) error {
	c.mu.Lock()
	c.converted = append(c.converted, source)
	c.mu.Unlock()
	return os.WriteFile(dest, []byte("converted"), 0o644)
}

func (c *fileCodec) ExtractSegment(_ context.Context, _ string, start, duration time.Duration, dest string) error {
	c.mu.Lock()
	c.extracts = append(c.extracts, extractCall{Start: start, Duration: duration, Dest: dest})
	c.mu.Unlock()
	return os.WriteFile(dest, []byte(strconv.FormatInt(start.Milliseconds(), 10)), 0o644)
}

func (c *fileCodec) extractCalls() []extractCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]extractCall(nil), c.extracts...)
}

type transcribeCall struct {
	Key    string
	Path   string
	Prompt string
}

// scriptedTranscriber answers by segment key: the window start for extracted
// segments, or the file name for whole files.
type scriptedTranscriber struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]bool
	calls     []transcribeCall
	onCall    func()
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, req transcription.Request) (string, error) {
	key := segmentKey(req.AudioPath)
	s.mu.Lock()
	s.calls = append(s.calls, transcribeCall{Key: key, Path: req.AudioPath, Prompt: req.Prompt})
	onCall := s.onCall
	s.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	if s.failures[key] {
		return "", fmt.Errorf("service unavailable for %s", key)
	}
	raw, ok := s.responses[key]
	if !ok {
		return "", fmt.Errorf("no scripted response for %s", key)
	}
	return raw, nil
}

func (s *scriptedTranscriber) recorded() []transcribeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transcribeCall(nil), s.calls...)
}

func segmentKey(path string) string {
	data, err := os.ReadFile(path)
	if err == nil {
		if _, convErr := strconv.ParseInt(string(data), 10, 64); convErr == nil {
			return string(data)
		}
	}
	parts := strings.Split(path, string(os.PathSeparator))
	return parts[len(parts)-1]
}
