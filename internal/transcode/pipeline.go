package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/jonas747/ogg"
)

// Source describes the input audio for one transcode.
// Exactly one of Path or Open must be set.
type Source struct {
	// Path is a local file path handed to FFmpeg directly.
	Path string

	// Open returns a fresh byte stream of the source. It may be called
	// more than once: the unfiltered fallback re-reads the input.
	Open func(ctx context.Context) (io.ReadCloser, error)

	// PCM marks the input as raw s16le 48 kHz stereo (pre-mixed VOX
	// output) rather than a container format.
	PCM bool
}

// FileSource returns a Source backed by a local file path.
func FileSource(path string) Source {
	return Source{Path: path}
}

// BytesSource returns a re-openable in-memory Source.
func BytesSource(b []byte) Source {
	return Source{
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		},
	}
}

// PCMSource returns a re-openable in-memory Source of raw PCM bytes.
func PCMSource(b []byte) Source {
	s := BytesSource(b)
	s.PCM = true
	return s
}

// Pipeline runs the external transcoder. Safe for concurrent use; each
// Transcode call spawns its own process.
type Pipeline struct {
	ffmpegPath     string
	startupTimeout time.Duration

	// encode is the spawn implementation; swapped in tests.
	encode func(ctx context.Context, src Source, filter Filter) (*FrameStream, error)
}

// NewPipeline returns a Pipeline that invokes ffmpegPath for each transcode.
// startupTimeout bounds the wait for the first audio packet.
func NewPipeline(ffmpegPath string, startupTimeout time.Duration) *Pipeline {
	p := &Pipeline{
		ffmpegPath:     ffmpegPath,
		startupTimeout: startupTimeout,
	}
	p.encode = p.spawn
	return p
}

// Probe verifies the transcoder binary is installed and runnable.
// A failure here is a configuration error, not a per-request one.
func (p *Pipeline) Probe(ctx context.Context) error {
	if err := exec.CommandContext(ctx, p.ffmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("transcoder binary %q unavailable: %w", p.ffmpegPath, err)
	}
	return nil
}

// Transcode produces an Opus frame stream from src. If a filter is requested
// and the filtered process fails to produce audio, the transcode is retried
// once without the filter; the returned stream reports FellBack in that case.
// PCM sources reject filters.
func (p *Pipeline) Transcode(ctx context.Context, src Source, filter Filter) (*FrameStream, error) {
	if src.Path == "" && src.Open == nil {
		return nil, errors.New("transcode: source has neither path nor reader")
	}
	if src.PCM && filter != FilterNone {
		return nil, ErrFilterNotAllowed
	}

	stream, err := p.encode(ctx, src, filter)
	if err == nil || filter == FilterNone {
		return stream, err
	}
	if ctx.Err() != nil {
		return nil, err
	}

	// Filter failure: fall back to unfiltered playback rather than failing
	// the whole request. Surfaced to the operator, not silently absorbed.
	slog.Warn("filtered transcode failed, retrying without filter",
		"filter", filter, "error", err)

	stream, retryErr := p.encode(ctx, src, FilterNone)
	if retryErr != nil {
		return nil, retryErr
	}
	stream.FellBack = true
	return stream, nil
}

// buildArgs assembles the FFmpeg argument list for one invocation.
// The output side is fixed: ogg/opus, 48 kHz, stereo, 20ms frames.
func buildArgs(src Source, filter Filter) []string {
	var args []string
	switch {
	case src.PCM:
		args = append(args, "-f", "s16le", "-ar", "48000", "-ac", "2", "-i", "pipe:0")
	case src.Path != "":
		args = append(args, "-i", src.Path)
	default:
		args = append(args, "-i", "pipe:0")
	}

	if chain := filter.Chain(); chain != "" {
		args = append(args, "-af", chain)
	}

	args = append(args,
		"-vn",
		"-map", "0:a",
		"-acodec", "libopus",
		"-f", "ogg",
		"-vbr", "on",
		"-compression_level", "10",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", "64000",
		"-application", "audio",
		"-frame_duration", "20",
		"-packet_loss", "1",
		"-threads", "0",
		"pipe:1",
	)
	return args
}

// spawn starts FFmpeg and blocks until it produces its first audio packet,
// the startup window elapses, or the process dies. After a successful
// return, frames flow through the returned stream as they are decoded.
func (p *Pipeline) spawn(ctx context.Context, src Source, filter Filter) (*FrameStream, error) {
	cmd := exec.CommandContext(ctx, p.ffmpegPath, buildArgs(src, filter)...)

	var stdin io.Closer
	if src.Path == "" {
		in, err := src.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open transcode source: %w", err)
		}
		cmd.Stdin = in
		stdin = in
	}

	stderr := &tailBuffer{max: 2048}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		closeQuiet(stdin)
		return nil, fmt.Errorf("pipe transcoder stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		closeQuiet(stdin)
		return nil, fmt.Errorf("start transcoder: %w", err)
	}

	pr, pw := io.Pipe()
	first := make(chan error, 1)

	go func() {
		defer pw.Close()
		defer cmd.Wait()

		decoder := ogg.NewPacketDecoder(ogg.NewDecoder(stdout))

		// The first 2 OGG packets are opus metadata, not audio.
		skip := 2
		sentFirst := false
		for {
			packet, _, err := decoder.Decode()
			if err != nil {
				if !sentFirst {
					first <- &ProcessError{Filter: filter, Stderr: stderr.String(), Err: err}
					return
				}
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					pw.CloseWithError(err)
				}
				return
			}
			if skip > 0 {
				skip--
				continue
			}
			if !sentFirst {
				sentFirst = true
				first <- nil
			}
			if err := WriteFrame(pw, packet); err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(p.startupTimeout)
	defer timer.Stop()

	select {
	case err := <-first:
		if err != nil {
			_ = cmd.Process.Kill()
			closeQuiet(stdin)
			return nil, err
		}
	case <-timer.C:
		_ = cmd.Process.Kill()
		closeQuiet(stdin)
		return nil, fmt.Errorf("%w (%s)", ErrTranscodeTimeout, p.startupTimeout)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		closeQuiet(stdin)
		return nil, ctx.Err()
	}

	return newFrameStream(pr, cmd, stdin, filter), nil
}

func closeQuiet(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

// tailBuffer keeps the last max bytes written to it. Used to capture the
// useful end of FFmpeg's stderr without unbounded growth.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(bytes.TrimSpace(t.buf))
}
