package notify

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/killchain/internal/game"
	"github.com/Seednode/killchain/internal/store"
)

var testTime = time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)

type push struct {
	endpoint     string
	notification Notification
}

// fakePusher records pushes and fails permanently for chosen endpoints.
type fakePusher struct {
	mu     sync.Mutex
	pushes []push
	gone   map[string]bool
	seen   chan push
}

func newFakePusher() *fakePusher {
	return &fakePusher{
		gone: make(map[string]bool),
		seen: make(chan push, 32),
	}
}

func (f *fakePusher) Push(_ context.Context, endpoint string, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gone[endpoint] {
		return ErrEndpointGone
	}

	p := push{endpoint: endpoint, notification: n}
	f.pushes = append(f.pushes, p)
	f.seen <- p
	return nil
}

func (f *fakePusher) next(t *testing.T) push {
	t.Helper()
	select {
	case p := <-f.seen:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no push delivered")
		return push{}
	}
}

func handshakeSession(t *testing.T, code string) *game.Session {
	t.Helper()

	s := game.NewSession(code, "a", true, testTime)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.AddPlayer(id, "Player "+id, "", testTime); err != nil {
			t.Fatalf("AddPlayer: %v", err)
		}
		if _, err := s.AddWeapon("Weapon "+id, ""); err != nil {
			t.Fatalf("AddWeapon: %v", err)
		}
	}
	if err := s.Start(rand.New(rand.NewSource(1)), testTime); err != nil {
		t.Fatalf("Start: %v", err)
	}

	return s
}

// TestDispatcherPendingKillFlow drives a full handshake through the
// store and checks the three notification transitions: victim notified
// on request, killer notified of rejection, killer handed the next
// target after a confirmed kill.
func TestDispatcherPendingKillFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := store.NewMemory()
	s := handshakeSession(t, "GAME01")
	if err := m.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The engine decides targets; read the chain to know who hunts whom.
	killerID := "a"
	victimID, _ := s.ResolveLiveTarget(killerID)

	pusher := newFakePusher()
	d := NewDispatcher(m, pusher)
	d.Register(killerID, "killer-phone")
	d.Register(victimID, "victim-phone")

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, "GAME01")
	}()

	update := func(fn func(*game.Session) error) {
		t.Helper()
		if _, err := m.Update(ctx, "GAME01", fn); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	update(func(s *game.Session) error {
		return s.RequestKill(killerID, victimID, testTime)
	})

	got := pusher.next(t)
	if got.endpoint != "victim-phone" || got.notification.Type != TypePendingKill {
		t.Fatalf("expected pendingKill push to victim, got %+v", got)
	}

	update(func(s *game.Session) error {
		return s.RejectKill(victimID)
	})

	got = pusher.next(t)
	if got.endpoint != "killer-phone" || got.notification.Type != TypeKillRejected {
		t.Fatalf("expected killRejected push to killer, got %+v", got)
	}

	update(func(s *game.Session) error {
		return s.RequestKill(killerID, victimID, testTime)
	})
	pusher.next(t) // second pendingKill to the victim

	update(func(s *game.Session) error {
		_, err := s.ConfirmDeath(victimID, testTime)
		return err
	})

	got = pusher.next(t)
	if got.endpoint != "killer-phone" || got.notification.Type != TypeNewTarget {
		t.Fatalf("expected newTarget push to killer, got %+v", got)
	}

	// The body names the freshly resolved target, not the dead one.
	final, _ := m.Load(ctx, "GAME01")
	nextID, _ := final.Session.ResolveLiveTarget(killerID)
	wantName := final.Session.Players[nextID].Name
	if got.notification.Body != "Your new target is "+wantName {
		t.Errorf("unexpected body %q, want mention of %q", got.notification.Body, wantName)
	}

	cancel()
	m.Delete(context.Background(), "GAME01")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

// TestDispatcherPrunesGoneEndpoints verifies a permanently invalid
// endpoint is dropped after the first failed push while healthy ones
// survive.
func TestDispatcherPrunesGoneEndpoints(t *testing.T) {
	pusher := newFakePusher()
	pusher.gone["dead-endpoint"] = true

	d := NewDispatcher(store.NewMemory(), pusher)
	d.Register("victim", "dead-endpoint")
	d.Register("victim", "live-endpoint")

	prev := handshakeSession(t, "GAME01")
	next := prev.Clone()
	if err := next.RequestKill("a", mustTarget(t, next, "a"), testTime); err != nil {
		t.Fatalf("RequestKill: %v", err)
	}

	// Route the pending-kill push at our registered player id.
	victimID, _ := next.ResolveLiveTarget("a")
	pk := next.PendingKills[victimID]
	delete(next.PendingKills, victimID)
	next.PendingKills["victim"] = pk

	d.observe(context.Background(), prev, next)

	endpoints := d.Endpoints("victim")
	if len(endpoints) != 1 || endpoints[0] != "live-endpoint" {
		t.Errorf("expected only live-endpoint to survive, got %v", endpoints)
	}
}

func mustTarget(t *testing.T, s *game.Session, playerID string) string {
	t.Helper()
	target, _ := s.ResolveLiveTarget(playerID)
	if target == "" {
		t.Fatalf("no target for %s", playerID)
	}
	return target
}
