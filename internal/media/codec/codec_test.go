package codec

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

type recordedCall struct {
	name string
	args []string
}

func recordingCodec(calls *[]recordedCall, err error) *Codec {
	return New("").WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return err
	})
}

func TestExtractSegmentArgs(t *testing.T) {
	var calls []recordedCall
	codec := recordingCodec(&calls, nil)

	err := codec.ExtractSegment(context.Background(), "/work/talk.mp3", 24*time.Minute, 1500*time.Millisecond+24*time.Minute, "/work/segment_001.mp3")
	if err != nil {
		t.Fatalf("ExtractSegment returned error: %v", err)
	}
	if len(calls) != 1 || calls[0].name != "ffmpeg" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	joined := strings.Join(calls[0].args, " ")
	for _, want := range []string{"-ss 1440.000", "-t 1441.500", "-i /work/talk.mp3", "-c:a libmp3lame"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args: %s", want, joined)
		}
	}
	if calls[0].args[len(calls[0].args)-1] != "/work/segment_001.mp3" {
		t.Fatalf("expected destination last, got %v", calls[0].args)
	}
	ssIdx := slices.Index(calls[0].args, "-ss")
	inIdx := slices.Index(calls[0].args, "-i")
	if ssIdx > inIdx {
		t.Fatal("expected input seeking before -i")
	}
}

func TestExtractSegmentRejectsInvalidWindow(t *testing.T) {
	var calls []recordedCall
	codec := recordingCodec(&calls, nil)
	if err := codec.ExtractSegment(context.Background(), "a.mp3", 0, 0, "b.mp3"); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if err := codec.ExtractSegment(context.Background(), "a.mp3", -time.Second, time.Second, "b.mp3"); err == nil {
		t.Fatal("expected error for negative start")
	}
	if len(calls) != 0 {
		t.Fatalf("expected no ffmpeg invocations, got %d", len(calls))
	}
}

func TestConvertToMP3(t *testing.T) {
	var calls []recordedCall
	codec := New("/opt/ffmpeg").WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		calls = append(calls, recordedCall{name: name, args: args})
		return nil
	})
	if err := codec.ConvertToMP3(context.Background(), "/in/talk.wav", "/work/talk.mp3"); err != nil {
		t.Fatalf("ConvertToMP3 returned error: %v", err)
	}
	if calls[0].name != "/opt/ffmpeg" {
		t.Fatalf("unexpected binary: %s", calls[0].name)
	}
	if !slices.Contains(calls[0].args, "libmp3lame") {
		t.Fatalf("expected mp3 encoder in args: %v", calls[0].args)
	}
	if err := codec.ConvertToMP3(context.Background(), "", "/work/x.mp3"); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestCodecWrapsRunnerErrors(t *testing.T) {
	var calls []recordedCall
	boom := errors.New("exit status 1")
	codec := recordingCodec(&calls, boom)
	err := codec.ConvertToMP3(context.Background(), "a.wav", "a.mp3")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}
