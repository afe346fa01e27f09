// Package playback serializes audio playback per guild. Each guild gets a
// single player goroutine that drains a request queue frame by frame into
// the guild's voice session; concurrent requests never interleave audio.
package playback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cpike5/discordbot-sub005/internal/notify"
	"github.com/cpike5/discordbot-sub005/internal/transcode"
	"github.com/cpike5/discordbot-sub005/internal/voice"
)

// ErrQueueCancelled marks a play cut short by Stop or replace-mode
// preemption. It is an expected outcome, not a failure.
var ErrQueueCancelled = errors.New("playback cancelled")

// Request is one unit of playback work.
type Request struct {
	ID          string
	Name        string
	Source      transcode.Source
	Filter      transcode.Filter
	RequestedBy string
	EnqueuedAt  time.Time

	// DurationMs is the source duration when known, 0 otherwise.
	DurationMs int64
}

// FrameStream is the frame-at-a-time view the player consumes.
// *transcode.FrameStream satisfies it.
type FrameStream interface {
	Next() ([]byte, error)
	Position() time.Duration
	Close() error
}

// Transcoder turns a request's source into a frame stream.
type Transcoder interface {
	Transcode(ctx context.Context, src transcode.Source, filter transcode.Filter) (FrameStream, error)
}

// PipelineTranscoder adapts *transcode.Pipeline to the Transcoder interface.
type PipelineTranscoder struct {
	Pipeline *transcode.Pipeline
}

func (p PipelineTranscoder) Transcode(ctx context.Context, src transcode.Source, filter transcode.Filter) (FrameStream, error) {
	return p.Pipeline.Transcode(ctx, src, filter)
}

// Status is a point-in-time snapshot of one guild's player.
type Status struct {
	Mode    Mode
	Current *notify.QueueItem
	Pending []notify.QueueItem
}

// Engine owns one player per guild.
type Engine struct {
	sessions         *voice.Manager
	transcoder       Transcoder
	notifier         notify.Notifier
	defaultMode      Mode
	progressInterval time.Duration

	mu      sync.Mutex
	players map[string]*guildPlayer
}

// NewEngine returns an Engine that plays through sessions managed by sessions.
// progressInterval bounds how often progress events are emitted per play.
func NewEngine(sessions *voice.Manager, tc Transcoder, notifier notify.Notifier, defaultMode Mode, progressInterval time.Duration) *Engine {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Engine{
		sessions:         sessions,
		transcoder:       tc,
		notifier:         notifier,
		defaultMode:      defaultMode,
		progressInterval: progressInterval,
		players:          make(map[string]*guildPlayer),
	}
}

func (e *Engine) player(guildID string) *guildPlayer {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[guildID]
	if !ok {
		p = &guildPlayer{guildID: guildID, mode: e.defaultMode}
		e.players[guildID] = p
	}
	return p
}

// Enqueue submits a request for the guild. The guild must already have a
// voice session; Enqueue never joins a channel itself. In replace mode the
// pending queue is dropped and the current play is cut off first.
func (e *Engine) Enqueue(guildID string, req Request) error {
	if _, ok := e.sessions.GetSession(guildID); !ok {
		return voice.ErrNotConnected
	}

	p := e.player(guildID)
	p.mu.Lock()
	if p.mode == ModeReplace {
		if dropped := len(p.queue); dropped > 0 {
			slog.Info("replace mode dropped pending requests", "guild_id", guildID, "dropped", dropped)
		}
		p.queue = p.queue[:0]
		if p.cancel != nil {
			p.cancel()
		}
	}
	p.queue = append(p.queue, req)
	snapshot := p.pendingLocked()
	start := !p.running
	if start {
		p.running = true
	}
	p.mu.Unlock()

	e.notifier.QueueUpdated(guildID, snapshot)
	if start {
		go e.run(p)
	}
	return nil
}

// Stop cuts off the current play and clears the guild's queue. Stopping an
// idle guild is a no-op returning success.
func (e *Engine) Stop(guildID string) error {
	p := e.player(guildID)
	p.mu.Lock()
	cleared := len(p.queue) > 0 || p.cancel != nil
	p.queue = p.queue[:0]
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	if cleared {
		e.notifier.QueueUpdated(guildID, nil)
	}
	return nil
}

// SetMode switches the guild between queue and replace behavior. The change
// applies to subsequent Enqueue calls; in-flight playback is untouched.
func (e *Engine) SetMode(guildID string, mode Mode) {
	p := e.player(guildID)
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
}

// Status reports the guild's mode, the request playing now, and the pending
// queue in play order.
func (e *Engine) Status(guildID string) Status {
	p := e.player(guildID)
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{Mode: p.mode, Pending: p.pendingLocked()}
	if p.current != nil {
		item := queueItem(*p.current)
		st.Current = &item
	}
	return st
}

// StopAll stops every guild's playback. Used during shutdown.
func (e *Engine) StopAll() {
	e.mu.Lock()
	guilds := make([]string, 0, len(e.players))
	for g := range e.players {
		guilds = append(guilds, g)
	}
	e.mu.Unlock()
	for _, g := range guilds {
		if err := e.Stop(g); err != nil {
			slog.Error("stop failed during shutdown", "guild_id", g, "error", err)
		}
	}
}

// run drains the guild's queue until it is empty or the session dies.
func (e *Engine) run(p *guildPlayer) {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.running = false
			p.mu.Unlock()
			return
		}
		req := p.queue[0]
		p.queue = append(p.queue[:0], p.queue[1:]...)
		p.current = &req
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		snapshot := p.pendingLocked()
		p.mu.Unlock()

		e.notifier.QueueUpdated(p.guildID, snapshot)
		err := e.playOne(ctx, p.guildID, req)
		cancel()

		p.mu.Lock()
		p.current = nil
		p.cancel = nil
		p.mu.Unlock()

		switch {
		case err == nil, errors.Is(err, ErrQueueCancelled):
			// Finished, or cut off by Stop/replace. Keep draining.
		case errors.Is(err, voice.ErrStreamWrite):
			// The voice connection is wedged. Tear the session down and
			// fail everything still queued; retrying into a dead stream
			// only hangs the player.
			e.teardown(p, err)
			return
		default:
			slog.Error("playback request failed",
				"guild_id", p.guildID, "request_id", req.ID, "name", req.Name, "error", err)
		}
	}
}

func (e *Engine) teardown(p *guildPlayer, cause error) {
	p.mu.Lock()
	dropped := len(p.queue)
	p.queue = p.queue[:0]
	p.running = false
	p.mu.Unlock()

	slog.Error("voice stream write failed, closing session",
		"guild_id", p.guildID, "dropped", dropped, "error", cause)
	if err := e.sessions.CloseSession(p.guildID); err != nil && !errors.Is(err, voice.ErrNotConnected) {
		slog.Error("session close after stream failure", "guild_id", p.guildID, "error", err)
	}
	e.notifier.QueueUpdated(p.guildID, nil)
}

// playOne streams a single request's frames into the guild's output stream.
func (e *Engine) playOne(ctx context.Context, guildID string, req Request) error {
	sess, ok := e.sessions.GetSession(guildID)
	if !ok {
		return voice.ErrNotConnected
	}

	stream, err := e.transcoder.Transcode(ctx, req.Source, req.Filter)
	if err != nil {
		if ctx.Err() != nil {
			return ErrQueueCancelled
		}
		return err
	}
	defer stream.Close()

	e.notifier.PlaybackStarted(guildID, req.Name)
	defer e.notifier.PlaybackFinished(guildID)

	out := sess.Output()
	lastProgress := time.Now()
	for {
		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ErrQueueCancelled
			}
			return err
		}
		if err := out.WriteFrame(ctx, frame); err != nil {
			if ctx.Err() != nil {
				return ErrQueueCancelled
			}
			return err
		}
		sess.Touch()

		if e.progressInterval > 0 && time.Since(lastProgress) >= e.progressInterval {
			e.notifier.PlaybackProgress(guildID, stream.Position().Milliseconds(), req.DurationMs)
			lastProgress = time.Now()
		}
	}
}

// guildPlayer is the per-guild queue state. All fields are guarded by mu.
type guildPlayer struct {
	guildID string

	mu      sync.Mutex
	mode    Mode
	queue   []Request
	current *Request
	cancel  context.CancelFunc
	running bool
}

func (p *guildPlayer) pendingLocked() []notify.QueueItem {
	if len(p.queue) == 0 {
		return nil
	}
	items := make([]notify.QueueItem, len(p.queue))
	for i, req := range p.queue {
		items[i] = queueItem(req)
	}
	return items
}

func queueItem(req Request) notify.QueueItem {
	return notify.QueueItem{
		ID:          req.ID,
		Name:        req.Name,
		RequestedBy: req.RequestedBy,
		EnqueuedAt:  req.EnqueuedAt,
	}
}
