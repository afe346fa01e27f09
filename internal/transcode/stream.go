package transcode

import (
	"errors"
	"io"
	"os/exec"
	"time"
)

// FrameStream is a lazy, finite, non-restartable sequence of Opus frames
// produced by one transcoder invocation. It must be closed to reap the
// underlying process.
type FrameStream struct {
	// Filter is the filter actually applied. After a fallback this is
	// FilterNone even though one was requested.
	Filter Filter

	// FellBack reports that the requested filter failed and the stream
	// was produced by the unfiltered retry.
	FellBack bool

	rc     io.ReadCloser
	fr     *FrameReader
	cmd    *exec.Cmd
	stdin  io.Closer
	frames int
}

func newFrameStream(rc io.ReadCloser, cmd *exec.Cmd, stdin io.Closer, filter Filter) *FrameStream {
	return &FrameStream{
		Filter: filter,
		rc:     rc,
		fr:     NewFrameReader(rc),
		cmd:    cmd,
		stdin:  stdin,
	}
}

// Next returns the next Opus frame. Returns io.EOF when the stream is done.
func (s *FrameStream) Next() ([]byte, error) {
	frame, err := s.fr.ReadFrame()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	s.frames++
	return frame, nil
}

// Position returns the play time of the frames read so far.
func (s *FrameStream) Position() time.Duration {
	return time.Duration(s.frames) * FrameDuration
}

// Close stops the stream and kills the transcoder if it is still running.
// Safe to call after EOF.
func (s *FrameStream) Close() error {
	err := s.rc.Close()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	return err
}
