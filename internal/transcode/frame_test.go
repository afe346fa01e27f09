package transcode_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/cpike5/discordbot-sub005/internal/transcode"
	"github.com/google/go-cmp/cmp"
)

func TestFrameReader(t *testing.T) {
	var buf bytes.Buffer
	frames := [][]byte{
		{0xde, 0xad},
		{0xbe},
		{0xca, 0xfe, 0xba, 0xbe},
	}
	for _, f := range frames {
		if err := transcode.WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	r := transcode.NewFrameReader(&buf)
	var got [][]byte
	for {
		frame, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		got = append(got, frame)
	}

	if diff := cmp.Diff(frames, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameReaderTruncated(t *testing.T) {
	// Length prefix promises 4 bytes, only 2 present.
	r := transcode.NewFrameReader(bytes.NewReader([]byte{0x04, 0x00, 0xaa, 0xbb}))
	if _, err := r.ReadFrame(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestParseFilter(t *testing.T) {
	for _, f := range transcode.Filters() {
		got, err := transcode.ParseFilter(string(f))
		if err != nil {
			t.Errorf("ParseFilter(%q) returned error: %v", f, err)
		}
		if got != f {
			t.Errorf("ParseFilter(%q) = %q", f, got)
		}
		if f.Chain() == "" {
			t.Errorf("filter %q has an empty ffmpeg chain", f)
		}
	}

	if _, err := transcode.ParseFilter("chipmunk"); err == nil {
		t.Error("expected error for unknown filter")
	}

	if f, err := transcode.ParseFilter(""); err != nil || f != transcode.FilterNone {
		t.Errorf("ParseFilter(\"\") = (%q, %v), want (none, nil)", f, err)
	}
}
