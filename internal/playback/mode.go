package playback

import "fmt"

// Mode controls what Enqueue does when the guild is already playing.
type Mode string

const (
	// ModeQueue appends behind pending requests.
	ModeQueue Mode = "queue"

	// ModeReplace drops pending requests and cuts off the current play.
	ModeReplace Mode = "replace"
)

// ParseMode maps a config or command string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeQueue, ModeReplace:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown playback mode %q", s)
	}
}
