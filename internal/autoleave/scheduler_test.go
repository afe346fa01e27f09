package autoleave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cpike5/discordbot-sub005/internal/voice"
)

type fakeConn struct{}

func (fakeConn) Speaking(bool) error     { return nil }
func (fakeConn) Disconnect() error       { return nil }
func (fakeConn) OpusSend() chan<- []byte { return make(chan []byte, 16) }

type fakeDialer struct{}

func (fakeDialer) Dial(context.Context, string, string) (voice.Conn, error) {
	return fakeConn{}, nil
}

type fakeOccupancy struct {
	mu     sync.Mutex
	counts map[string]int
	errs   map[string]error
}

func (o *fakeOccupancy) set(guildID string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[guildID] = n
}

func (o *fakeOccupancy) fail(guildID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.errs == nil {
		o.errs = map[string]error{}
	}
	o.errs[guildID] = err
}

func (o *fakeOccupancy) Occupancy(guildID, _ string) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.errs[guildID]; err != nil {
		return 0, err
	}
	return o.counts[guildID], nil
}

type stopRecorder struct {
	mu      sync.Mutex
	stopped []string
}

func (r *stopRecorder) Stop(guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, guildID)
	return nil
}

func connect(t *testing.T, m *voice.Manager, guildID string) {
	t.Helper()
	if _, err := m.EnsureSession(context.Background(), guildID, "channel"); err != nil {
		t.Fatalf("EnsureSession(%s): %v", guildID, err)
	}
}

func TestSweepEvictsOnceEmptyPastTimeout(t *testing.T) {
	sessions := voice.NewManager(fakeDialer{}, nil, time.Second)
	occ := &fakeOccupancy{}
	stops := &stopRecorder{}
	s := NewScheduler(sessions, occ, stops, time.Minute, time.Millisecond)

	connect(t, sessions, "g")
	occ.set("g", 0)

	// The first empty observation only starts the clock.
	s.sweep(context.Background())
	if _, ok := sessions.GetSession("g"); !ok {
		t.Fatal("evicted on the first empty observation")
	}

	time.Sleep(5 * time.Millisecond)
	s.sweep(context.Background())
	if _, ok := sessions.GetSession("g"); ok {
		t.Fatal("still connected after the channel sat empty past the timeout")
	}
	if len(stops.stopped) != 1 || stops.stopped[0] != "g" {
		t.Errorf("playback stops = %v, want [g]", stops.stopped)
	}
}

func TestSweepResetsClockWhenChannelRefills(t *testing.T) {
	sessions := voice.NewManager(fakeDialer{}, nil, time.Second)
	occ := &fakeOccupancy{}
	s := NewScheduler(sessions, occ, nil, time.Minute, time.Millisecond)

	connect(t, sessions, "g")

	occ.set("g", 0)
	s.sweep(context.Background())
	time.Sleep(5 * time.Millisecond)

	occ.set("g", 2)
	s.sweep(context.Background())

	occ.set("g", 0)
	s.sweep(context.Background())

	// The refill reset the empty clock, so this sweep starts it over.
	if _, ok := sessions.GetSession("g"); !ok {
		t.Fatal("evicted despite the channel refilling in between")
	}
}

func TestZeroIdleTimeoutExemptsFromTeardown(t *testing.T) {
	sessions := voice.NewManager(fakeDialer{}, nil, time.Second)
	occ := &fakeOccupancy{}
	s := NewScheduler(sessions, occ, nil, time.Minute, 0)

	connect(t, sessions, "g")
	occ.set("g", 0)

	for range 10 {
		s.sweep(context.Background())
		time.Sleep(time.Millisecond)
	}
	if _, ok := sessions.GetSession("g"); !ok {
		t.Fatal("session with auto-leave disabled was evicted despite empty channel")
	}
}

func TestOccupiedChannelIsNeverEvicted(t *testing.T) {
	sessions := voice.NewManager(fakeDialer{}, nil, time.Second)
	occ := &fakeOccupancy{}
	s := NewScheduler(sessions, occ, nil, time.Minute, time.Millisecond)

	connect(t, sessions, "g")
	occ.set("g", 3)

	for range 5 {
		s.sweep(context.Background())
		time.Sleep(time.Millisecond)
	}
	if _, ok := sessions.GetSession("g"); !ok {
		t.Fatal("occupied channel was evicted")
	}
}

func TestSweepIsolatesGuilds(t *testing.T) {
	sessions := voice.NewManager(fakeDialer{}, nil, time.Second)
	occ := &fakeOccupancy{}
	s := NewScheduler(sessions, occ, nil, time.Minute, time.Millisecond)

	connect(t, sessions, "empty")
	connect(t, sessions, "busy")
	connect(t, sessions, "broken")
	occ.set("empty", 0)
	occ.set("busy", 4)
	occ.fail("broken", errors.New("state lookup failed"))

	s.sweep(context.Background())
	time.Sleep(5 * time.Millisecond)
	s.sweep(context.Background())

	if _, ok := sessions.GetSession("empty"); ok {
		t.Error("empty guild survived")
	}
	if _, ok := sessions.GetSession("busy"); !ok {
		t.Error("busy guild was evicted")
	}
	if _, ok := sessions.GetSession("broken"); !ok {
		t.Error("guild with failing occupancy lookup was evicted")
	}
}
