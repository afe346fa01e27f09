// Package voice owns per-guild voice sessions: joining channels, the
// persistent output stream each session transmits on, and teardown.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cpike5/discordbot-sub005/internal/notify"
)

// Dialer establishes platform voice connections. The discordgo adapter
// implements it in production.
type Dialer interface {
	Dial(ctx context.Context, guildID, channelID string) (Conn, error)
}

// Info is a read-only snapshot of an active session, for the query surface
// and the idle sweep.
type Info struct {
	GuildID      string
	ChannelID    string
	Status       Status
	LastActivity time.Time
}

// Manager owns the guild -> session registry. At most one session exists
// per guild; creation and teardown for a given guild are serialized while
// different guilds proceed in parallel. Lookups never take the write lock.
type Manager struct {
	dialer       Dialer
	notifier     notify.Notifier
	stallTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

func NewManager(dialer Dialer, notifier notify.Notifier, stallTimeout time.Duration) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Manager{
		dialer:       dialer,
		notifier:     notifier,
		stallTimeout: stallTimeout,
		sessions:     make(map[string]*Session),
		locks:        make(map[string]*sync.Mutex),
	}
}

// guildLock returns the mutex serializing create/close for one guild.
func (m *Manager) guildLock(guildID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[guildID] = l
	}
	return l
}

// EnsureSession returns the guild's session, joining the channel and
// allocating the session's one persistent output stream if none exists.
// Idempotent: an existing connected session is returned unchanged, even if
// channelID differs — switching channels requires an explicit CloseSession
// first.
func (m *Manager) EnsureSession(ctx context.Context, guildID, channelID string) (*Session, error) {
	lock := m.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	// Only a Connected session satisfies the idempotent return. Anything
	// else still registered is mid-teardown; dial fresh and replace it.
	if s, ok := m.GetSession(guildID); ok && s.Status() == StatusConnected {
		if s.ChannelID != channelID {
			slog.Warn("session already connected to a different channel",
				"guildID", guildID, "connected", s.ChannelID, "requested", channelID)
		}
		return s, nil
	}

	s := &Session{GuildID: guildID, ChannelID: channelID}
	s.setStatus(StatusConnecting)

	conn, err := m.dialer.Dial(ctx, guildID, channelID)
	if err != nil {
		return nil, &ConnectionError{GuildID: guildID, ChannelID: channelID, Err: err}
	}

	if err := conn.Speaking(true); err != nil {
		if derr := conn.Disconnect(); derr != nil {
			slog.Warn("failed to disconnect after speaking error", "guildID", guildID, "error", derr)
		}
		return nil, &ConnectionError{GuildID: guildID, ChannelID: channelID, Err: fmt.Errorf("set speaking state: %w", err)}
	}

	// The one output stream for the life of this session.
	s.conn = conn
	s.out = newOutputStream(conn.OpusSend(), m.stallTimeout)
	s.setStatus(StatusConnected)
	s.Touch()

	m.mu.Lock()
	m.sessions[guildID] = s
	m.mu.Unlock()

	m.notifier.AudioConnected(guildID, channelID)
	slog.Info("voice session established", "guildID", guildID, "channelID", channelID)
	return s, nil
}

// GetSession returns the guild's session, if any. Lock-free for writers
// of other guilds; takes only the registry read lock.
func (m *Manager) GetSession(guildID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// CloseSession releases the guild's output stream and tears the connection
// down. Returns ErrNotConnected if the guild has no session.
func (m *Manager) CloseSession(guildID string) error {
	lock := m.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	s, ok := m.GetSession(guildID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, guildID)
	}

	s.setStatus(StatusClosing)

	// Release the output stream before tearing the connection down.
	if err := s.conn.Speaking(false); err != nil {
		slog.Warn("failed to stop speaking", "guildID", guildID, "error", err)
	}
	err := s.conn.Disconnect()

	m.mu.Lock()
	delete(m.sessions, guildID)
	m.mu.Unlock()

	m.notifier.AudioDisconnected(guildID, s.ChannelID)
	slog.Info("voice session closed", "guildID", guildID, "channelID", s.ChannelID)

	if err != nil {
		return fmt.Errorf("disconnect voice session for guild %s: %w", guildID, err)
	}
	return nil
}

// Active returns snapshots of all live sessions.
func (m *Manager) Active() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, Info{
			GuildID:      s.GuildID,
			ChannelID:    s.ChannelID,
			Status:       s.Status(),
			LastActivity: s.LastActivity(),
		})
	}
	return infos
}
