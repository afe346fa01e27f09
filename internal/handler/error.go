package handler

import "fmt"

// SoundNotFoundError indicates the requested sound has not been uploaded
// for the guild.
type SoundNotFoundError struct {
	GuildID string
	Name    string
}

func (e *SoundNotFoundError) Error() string {
	return fmt.Sprintf("no sound named %q exists for guild %s", e.Name, e.GuildID)
}

var _ error = (*SoundNotFoundError)(nil)

// UserError is an error whose message is safe and useful to show to the
// user who issued the command. Anything else gets a generic reply.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

var _ error = (*UserError)(nil)

func userErrorf(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}
