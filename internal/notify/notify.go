// Package notify is the out-of-band push dispatcher. It never sits on
// the kill path: the engine only makes pending-kill creation and
// resolution observable as store mutations, and the dispatcher reacts
// to those by pushing to every delivery endpoint registered for the
// affected player, pruning endpoints the transport reports as
// permanently dead.
package notify

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Seednode/killchain/internal/game"
	"github.com/Seednode/killchain/internal/store"
)

// Notification kinds, carried so clients can deep-link the right screen.
const (
	TypePendingKill  = "pendingKill"
	TypeKillRejected = "killRejected"
	TypeNewTarget    = "newTarget"
)

// ErrEndpointGone is returned by a Pusher when the transport reports an
// endpoint as permanently invalid; the dispatcher prunes it.
var ErrEndpointGone = errors.New("delivery endpoint permanently invalid")

// Notification is one push message.
type Notification struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Code  string `json:"code"`
}

// Pusher delivers a notification to a single endpoint. Implementations
// wrap whatever transport is in use; the in-repo implementation logs.
type Pusher interface {
	Push(ctx context.Context, endpoint string, n Notification) error
}

// LogPusher writes notifications to the process log. It stands in for a
// real push transport during development and in tests of everything
// around the dispatcher.
type LogPusher struct{}

func (LogPusher) Push(_ context.Context, endpoint string, n Notification) error {
	log.Printf("NOTIFY: %s -> %s: %s (%s)", n.Type, endpoint, n.Title, n.Body)
	return nil
}

// Dispatcher watches sessions and pushes on pending-kill transitions.
type Dispatcher struct {
	store  store.Store
	pusher Pusher

	mu        sync.Mutex
	endpoints map[string]map[string]struct{} // player id -> endpoint set
}

func NewDispatcher(st store.Store, pusher Pusher) *Dispatcher {
	return &Dispatcher{
		store:     st,
		pusher:    pusher,
		endpoints: make(map[string]map[string]struct{}),
	}
}

// Register adds a delivery endpoint for a player. Registering the same
// endpoint twice is a no-op.
func (d *Dispatcher) Register(playerID, endpoint string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.endpoints[playerID] == nil {
		d.endpoints[playerID] = make(map[string]struct{})
	}
	d.endpoints[playerID][endpoint] = struct{}{}
}

// Unregister removes a delivery endpoint for a player.
func (d *Dispatcher) Unregister(playerID, endpoint string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.endpoints[playerID], endpoint)
}

// Endpoints returns the registered endpoints for a player.
func (d *Dispatcher) Endpoints(playerID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.endpoints[playerID]))
	for e := range d.endpoints[playerID] {
		out = append(out, e)
	}
	return out
}

// Run watches one session until the watch closes or ctx is canceled,
// diffing consecutive snapshots for pending-kill transitions.
func (d *Dispatcher) Run(ctx context.Context, code string) error {
	ch, cancel, err := d.store.Watch(ctx, code)
	if err != nil {
		return err
	}
	defer cancel()

	var prev *game.Session
	for snapshot := range ch {
		d.observe(ctx, prev, snapshot.Session)
		prev = snapshot.Session
	}

	return ctx.Err()
}

// observe compares two consecutive snapshots. A pending kill appearing
// notifies the victim; one disappearing notifies the killer with either
// the freshly resolved next target (victim confirmed) or a rejection
// (victim disputed).
func (d *Dispatcher) observe(ctx context.Context, prev, next *game.Session) {
	if prev == nil || next == nil {
		return
	}

	for victimID, pending := range next.PendingKills {
		if _, existed := prev.PendingKills[victimID]; existed {
			continue
		}

		d.sendToPlayer(ctx, victimID, Notification{
			Type:  TypePendingKill,
			Title: "You have been eliminated?",
			Body:  pending.KillerName + " claims to have eliminated you",
			Code:  next.Code,
		})
	}

	for victimID, pending := range prev.PendingKills {
		if _, still := next.PendingKills[victimID]; still {
			continue
		}
		if pending.KillerID == "" {
			continue
		}

		if next.IsDead(victimID) {
			targetID, _ := next.ResolveLiveTarget(pending.KillerID)
			targetName := "???"
			if target, ok := next.Players[targetID]; ok {
				targetName = target.Name
			}

			d.sendToPlayer(ctx, pending.KillerID, Notification{
				Type:  TypeNewTarget,
				Title: "New mission",
				Body:  "Your new target is " + targetName,
				Code:  next.Code,
			})
		} else {
			d.sendToPlayer(ctx, pending.KillerID, Notification{
				Type:  TypeKillRejected,
				Title: "Kill rejected",
				Body:  "Your target has disputed the kill",
				Code:  next.Code,
			})
		}
	}
}

// sendToPlayer pushes to every endpoint registered for the player and
// prunes the ones the transport reports as gone.
func (d *Dispatcher) sendToPlayer(ctx context.Context, playerID string, n Notification) {
	for _, endpoint := range d.Endpoints(playerID) {
		err := d.pusher.Push(ctx, endpoint, n)
		switch {
		case err == nil:
		case errors.Is(err, ErrEndpointGone):
			d.Unregister(playerID, endpoint)
		default:
			// Transient failure; the endpoint stays registered.
			log.Printf("NOTIFY: push to %s failed: %v", playerID, err)
		}
	}
}
