package transcode

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func frameBuffer(t *testing.T, frames ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	return buf.Bytes()
}

func fakeStream(t *testing.T, filter Filter, frames ...[]byte) *FrameStream {
	t.Helper()
	rc := io.NopCloser(bytes.NewReader(frameBuffer(t, frames...)))
	return newFrameStream(rc, nil, nil, filter)
}

func TestTranscodeFilterFallback(t *testing.T) {
	p := NewPipeline("ffmpeg", 0)

	var attempts []Filter
	p.encode = func(_ context.Context, _ Source, filter Filter) (*FrameStream, error) {
		attempts = append(attempts, filter)
		if filter != FilterNone {
			return nil, &ProcessError{Filter: filter, Err: errors.New("exit status 1")}
		}
		return fakeStream(t, filter, []byte{0x01}), nil
	}

	stream, err := p.Transcode(t.Context(), BytesSource([]byte("audio")), FilterReverb)
	if err != nil {
		t.Fatalf("Transcode returned error: %v", err)
	}
	defer stream.Close()

	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d (%v)", len(attempts), attempts)
	}
	if attempts[0] != FilterReverb || attempts[1] != FilterNone {
		t.Errorf("unexpected attempt order: %v", attempts)
	}
	if !stream.FellBack {
		t.Error("expected stream to report fallback")
	}
	if stream.Filter != FilterNone {
		t.Errorf("expected applied filter to be none, got %q", stream.Filter)
	}
}

func TestTranscodeNoRetryWithoutFilter(t *testing.T) {
	p := NewPipeline("ffmpeg", 0)

	attempts := 0
	p.encode = func(context.Context, Source, Filter) (*FrameStream, error) {
		attempts++
		return nil, ErrTranscodeTimeout
	}

	_, err := p.Transcode(t.Context(), BytesSource([]byte("audio")), FilterNone)
	if !errors.Is(err, ErrTranscodeTimeout) {
		t.Fatalf("expected ErrTranscodeTimeout, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestTranscodeFallbackAlsoFails(t *testing.T) {
	p := NewPipeline("ffmpeg", 0)

	p.encode = func(_ context.Context, _ Source, filter Filter) (*FrameStream, error) {
		return nil, &ProcessError{Filter: filter, Err: errors.New("boom")}
	}

	_, err := p.Transcode(t.Context(), BytesSource([]byte("audio")), FilterNightcore)
	var perr *ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProcessError, got %v", err)
	}
	if perr.Filter != FilterNone {
		t.Errorf("final error should come from the unfiltered attempt, got filter %q", perr.Filter)
	}
}

func TestTranscodePCMRejectsFilter(t *testing.T) {
	p := NewPipeline("ffmpeg", 0)
	p.encode = func(context.Context, Source, Filter) (*FrameStream, error) {
		t.Fatal("encode should not run for invalid input")
		return nil, nil
	}

	_, err := p.Transcode(t.Context(), PCMSource([]byte{0, 0}), FilterBassBoost)
	if !errors.Is(err, ErrFilterNotAllowed) {
		t.Fatalf("expected ErrFilterNotAllowed, got %v", err)
	}
}

func TestTranscodeRejectsEmptySource(t *testing.T) {
	p := NewPipeline("ffmpeg", 0)
	if _, err := p.Transcode(t.Context(), Source{}, FilterNone); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		filter  Filter
		want    []string // prefix of the argument list
		wantAf  bool
		afChain string
	}{
		{
			name:   "file path input",
			src:    FileSource("/tmp/sound.mp3"),
			filter: FilterNone,
			want:   []string{"-i", "/tmp/sound.mp3"},
		},
		{
			name:   "stdin input",
			src:    BytesSource(nil),
			filter: FilterNone,
			want:   []string{"-i", "pipe:0"},
		},
		{
			name:   "pcm input",
			src:    PCMSource(nil),
			filter: FilterNone,
			want:   []string{"-f", "s16le", "-ar", "48000", "-ac", "2", "-i", "pipe:0"},
		},
		{
			name:    "filter adds af chain",
			src:     FileSource("/tmp/sound.mp3"),
			filter:  FilterBassBoost,
			want:    []string{"-i", "/tmp/sound.mp3"},
			wantAf:  true,
			afChain: "bass=g=12",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := buildArgs(tc.src, tc.filter)
			for i, w := range tc.want {
				if args[i] != w {
					t.Fatalf("args[%d] = %q, want %q (full: %v)", i, args[i], w, args)
				}
			}

			afIdx := -1
			for i, a := range args {
				if a == "-af" {
					afIdx = i
					break
				}
			}
			if tc.wantAf {
				if afIdx == -1 {
					t.Fatalf("expected -af in args: %v", args)
				}
				if args[afIdx+1] != tc.afChain {
					t.Errorf("af chain = %q, want %q", args[afIdx+1], tc.afChain)
				}
			} else if afIdx != -1 {
				t.Errorf("unexpected -af in args: %v", args)
			}

			if args[len(args)-1] != "pipe:1" {
				t.Errorf("output should be pipe:1, got %q", args[len(args)-1])
			}
		})
	}
}

func TestFrameStreamPosition(t *testing.T) {
	stream := fakeStream(t, FilterNone, []byte{1}, []byte{2, 3}, []byte{4})

	for i := 0; i < 3; i++ {
		if _, err := stream.Next(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	if got, want := stream.Position(), 3*FrameDuration; got != want {
		t.Errorf("Position() = %v, want %v", got, want)
	}
}
