package vox_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cpike5/discordbot-sub005/internal/clips"
	"github.com/cpike5/discordbot-sub005/internal/vox"
	"github.com/google/go-cmp/cmp"
)

type mapProvider map[string]map[string][]byte

func (p mapProvider) Assets(_ context.Context) ([]clips.Asset, error) {
	var assets []clips.Asset
	for group, tokens := range p {
		for token, pcm := range tokens {
			assets = append(assets, clips.Asset{
				Group: group,
				Token: token,
				Open: func(context.Context) (io.ReadCloser, error) {
					return io.NopCloser(bytes.NewReader(pcm)), nil
				},
			})
		}
	}
	return assets, nil
}

func testEngine(t *testing.T, groups mapProvider) *vox.Engine {
	t.Helper()
	lib, err := clips.Load(t.Context(), groups)
	if err != nil {
		t.Fatalf("load library: %v", err)
	}
	return vox.NewEngine(lib)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		message string
		want    []string
	}{
		{"Warning, containment breach!", []string{"warning", "containment", "breach"}},
		{"  a   b\tc  ", []string{"a", "b", "c"}},
		{"...", nil},
		{"", nil},
		{"UP-TIME 100%", []string{"uptime", "100"}},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			got := vox.Tokenize(tc.message)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tc.message, diff)
			}
		})
	}
}

func TestConcatenateEmptyMessage(t *testing.T) {
	engine := testEngine(t, mapProvider{"vox": {"alpha": {0x01}}})

	_, err := engine.Concatenate("", "vox", 50)
	if !errors.Is(err, vox.ErrNoClipsMatched) {
		t.Fatalf("expected ErrNoClipsMatched, got %v", err)
	}
}

func TestConcatenateAllMatch(t *testing.T) {
	engine := testEngine(t, mapProvider{"vox": {
		"a": {0x01, 0x01},
		"b": {0x02, 0x02},
		"c": {0x03, 0x03},
	}})

	result, err := engine.Concatenate("a b c", "vox", 20)
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}

	if got := result.Matched(); got != 3 {
		t.Errorf("Matched() = %d, want 3", got)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", result.Skipped)
	}
	if got := result.MatchPercent(); got != 100 {
		t.Errorf("MatchPercent() = %v, want 100", got)
	}
}

func TestConcatenateDropsUnmatchedWords(t *testing.T) {
	engine := testEngine(t, mapProvider{"vox": {
		"warning": {0x01},
		"breach":  {0x02},
	}})

	result, err := engine.Concatenate("warning reactor breach", "vox", 50)
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}

	if got := result.Matched(); got != 2 {
		t.Errorf("Matched() = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"reactor"}, result.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
	if want := float64(2) / 3 * 100; result.MatchPercent() != want {
		t.Errorf("MatchPercent() = %v, want %v", result.MatchPercent(), want)
	}
}

func TestConcatenateSingleClipPassthrough(t *testing.T) {
	raw := []byte{0x10, 0x20, 0x30, 0x40}
	engine := testEngine(t, mapProvider{"vox": {"alpha": raw}})

	result, err := engine.Concatenate("alpha missing words", "vox", 100)
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}

	// A lone match must pass through byte-identical, with no silence.
	if !bytes.Equal(result.PCM, raw) {
		t.Errorf("single-clip output = %v, want %v", result.PCM, raw)
	}
}

func TestConcatenateGapMath(t *testing.T) {
	clipA := []byte{0xaa, 0xaa}
	clipB := []byte{0xbb, 0xbb}
	engine := testEngine(t, mapProvider{"vox": {"a": clipA, "b": clipB}})

	result, err := engine.Concatenate("a b", "vox", 100)
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}

	// 100ms at 48kHz/16-bit/stereo = 19,200 bytes of silence.
	const silence = 19200
	if want := len(clipA) + silence + len(clipB); len(result.PCM) != want {
		t.Fatalf("joined length = %d, want %d", len(result.PCM), want)
	}

	if !bytes.Equal(result.PCM[:2], clipA) {
		t.Error("output does not start with first clip")
	}
	if !bytes.Equal(result.PCM[len(result.PCM)-2:], clipB) {
		t.Error("output does not end with second clip")
	}
	for i, b := range result.PCM[2 : 2+silence] {
		if b != 0 {
			t.Fatalf("gap byte %d is %#x, want zero", i, b)
		}
	}
}

func TestConcatenateGapValidation(t *testing.T) {
	engine := testEngine(t, mapProvider{"vox": {"a": {0x01}}})

	for _, gapMs := range []int{0, 19, 201, -5, 10000} {
		_, err := engine.Concatenate("a", "vox", gapMs)
		var gapErr *vox.InvalidGapError
		if !errors.As(err, &gapErr) {
			t.Errorf("gapMs=%d: expected InvalidGapError, got %v", gapMs, err)
			continue
		}
		if gapErr.GapMs != gapMs {
			t.Errorf("gapMs=%d: error reports %d", gapMs, gapErr.GapMs)
		}
	}

	// Bounds are inclusive.
	for _, gapMs := range []int{20, 200} {
		if _, err := engine.Concatenate("a", "vox", gapMs); err != nil {
			t.Errorf("gapMs=%d: unexpected error %v", gapMs, err)
		}
	}
}

func TestConcatenateUnknownGroup(t *testing.T) {
	engine := testEngine(t, mapProvider{"vox": {"a": {0x01}}})

	if _, err := engine.Concatenate("a", "hev", 50); err == nil {
		t.Fatal("expected error for unknown group")
	}
}
