// Package vox builds announcement audio by substituting message words with
// pre-recorded clips and joining them into a single PCM blob.
package vox

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cpike5/discordbot-sub005/internal/clips"
	"github.com/cpike5/discordbot-sub005/internal/transcode"
)

// Gap bounds in milliseconds. Out-of-range values are rejected, not clamped.
const (
	GapMsMin = 20
	GapMsMax = 200
)

// ErrNoClipsMatched indicates no word in the message resolved to a clip.
var ErrNoClipsMatched = errors.New("no words in the message matched a clip")

// InvalidGapError indicates a gap setting outside the accepted range.
type InvalidGapError struct {
	GapMs int
}

func (e *InvalidGapError) Error() string {
	return fmt.Sprintf("gap of %dms is outside the accepted range [%d, %d]", e.GapMs, GapMsMin, GapMsMax)
}

var _ error = (*InvalidGapError)(nil)

// Result is the outcome of one concatenation: the matched clips in message
// order, the words that were dropped, and the joined PCM blob.
type Result struct {
	Clips   []clips.Clip
	Skipped []string
	GapMs   int

	// PCM is the joined s16le 48 kHz stereo blob. For a single matched
	// clip this is the clip's bytes untouched, with no silence injected.
	PCM []byte
}

// Matched returns the number of words that resolved to clips.
func (r *Result) Matched() int {
	return len(r.Clips)
}

// MatchPercent returns the share of message words that matched, in [0, 100].
func (r *Result) MatchPercent() float64 {
	total := len(r.Clips) + len(r.Skipped)
	if total == 0 {
		return 0
	}
	return float64(len(r.Clips)) / float64(total) * 100
}

// Duration returns the play time of the joined blob.
func (r *Result) Duration() time.Duration {
	return transcode.PCMDuration(len(r.PCM))
}

// Engine resolves message words against a clip library and joins the
// matched clips. Stateless beyond the immutable library; safe for
// concurrent use.
type Engine struct {
	library *clips.Library
}

func NewEngine(library *clips.Library) *Engine {
	return &Engine{library: library}
}

// Tokenize splits a message into lowercase clip tokens, preserving word
// order. Punctuation is stripped since clip names never contain it.
func Tokenize(message string) []string {
	fields := strings.Fields(strings.ToLower(message))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		token := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, f)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Concatenate resolves each word of message against the named clip group
// and joins the matches with gapMs of silence between consecutive clips.
// Unmatched words are dropped and reported in the result. Returns
// ErrNoClipsMatched when nothing resolves, and InvalidGapError before any
// processing when the gap is out of range.
func (e *Engine) Concatenate(message, group string, gapMs int) (*Result, error) {
	if gapMs < GapMsMin || gapMs > GapMsMax {
		return nil, &InvalidGapError{GapMs: gapMs}
	}
	if !e.library.HasGroup(group) {
		return nil, fmt.Errorf("unknown clip group %q", group)
	}

	result := &Result{GapMs: gapMs}
	for _, token := range Tokenize(message) {
		clip, ok := e.library.Lookup(group, token)
		if !ok {
			result.Skipped = append(result.Skipped, token)
			continue
		}
		result.Clips = append(result.Clips, clip)
	}

	if len(result.Clips) == 0 {
		return nil, ErrNoClipsMatched
	}

	// A lone clip passes through untouched: no join step, no gap before
	// or after it.
	if len(result.Clips) == 1 {
		result.PCM = result.Clips[0].PCM
		return result, nil
	}

	result.PCM = join(result.Clips, gapMs)
	return result, nil
}

// join concatenates clip PCM with gapMs of silence between each pair.
func join(matched []clips.Clip, gapMs int) []byte {
	gap := make([]byte, silenceBytes(gapMs))

	total := len(gap) * (len(matched) - 1)
	for _, c := range matched {
		total += len(c.PCM)
	}

	out := make([]byte, 0, total)
	for i, c := range matched {
		if i > 0 {
			out = append(out, gap...)
		}
		out = append(out, c.PCM...)
	}
	return out
}

// silenceBytes returns the PCM byte count for gapMs of silence at the
// fixed output format.
func silenceBytes(gapMs int) int {
	return gapMs * transcode.SampleRate * transcode.Channels * transcode.BytesPerSample / 1000
}
