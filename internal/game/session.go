// Package game implements the assassin kill-chain engine.
//
// Each player is secretly assigned one target and one weapon, arranged so
// that the assignments form a single directed cycle over every player in
// the session. Killing your target (or, once they are dead, whoever they
// would have killed, inherited down the chain) removes them from play;
// the last player standing wins.
//
// The engine is a pure library: every operation mutates a *Session that
// the caller owns, and the storage layer is responsible for applying the
// mutation transactionally. Nothing in this package touches the network.
package game

import (
	"slices"
	"sort"
	"time"
)

// Status is the session lifecycle state.
type Status string

const (
	// StatusForming allows roster and weapon-pool mutation.
	StatusForming Status = "forming"
	// StatusActive freezes the roster; only eliminations and mission
	// queries are legal.
	StatusActive Status = "active"
	// StatusFinished is terminal; only read queries are legal.
	StatusFinished Status = "finished"
)

// MinPlayers is the smallest roster a game can start with. A two-player
// cycle degenerates into mutual assassination, so three is the floor.
const MinPlayers = 3

// MaxPhotoBytes caps the opaque base64 photo blob stored per player.
const MaxPhotoBytes = 256 << 10

// Player is a roster entry. The ID is stable for the session lifetime:
// either the connecting user's identity or a generated id for guests
// added by the host.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Photo    string    `json:"photo,omitempty"`
	Guest    bool      `json:"guest,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Weapon is a weapon-pool entry. SuggestedBy records provenance when the
// weapon entered the pool through the suggestion workflow.
type Weapon struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SuggestedBy string `json:"suggestedBy,omitempty"`
}

// Suggestion is a weapon proposed by a non-host player, awaiting the
// host's approval. Suggestions are keyed by their own id, never by name,
// so two players may propose the same name until one is resolved.
type Suggestion struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SuggestedBy     string    `json:"suggestedBy"`
	SuggestedByName string    `json:"suggestedByName"`
	SuggestedAt     time.Time `json:"suggestedAt"`
}

// Assignment is one link of the kill chain: the killer's target and the
// weapon they must use. Built once at game start and never mutated;
// target inheritance is computed on read.
type Assignment struct {
	TargetID string `json:"targetId"`
	WeaponID string `json:"weaponId"`
}

// KillRecord is one entry of the append-only kill log. KillerID may be
// empty when no living player resolved to the victim at report time.
type KillRecord struct {
	KillerID string    `json:"killerId,omitempty"`
	VictimID string    `json:"victimId"`
	WeaponID string    `json:"weaponId,omitempty"`
	Time     time.Time `json:"time"`
}

// PendingKill is an unconfirmed elimination, keyed by victim id on the
// session. It is resolved either by the victim confirming (elimination
// applied) or rejecting (discarded, chain unchanged).
type PendingKill struct {
	KillerID    string    `json:"killerId"`
	KillerName  string    `json:"killerName"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Session is the aggregate root for one game. It is the serialization
// contract with the store: marshaling and unmarshaling a Session must
// round-trip the assignment, eliminated set, and kill log exactly.
type Session struct {
	Code         string                 `json:"code"`
	HostID       string                 `json:"hostId"`
	Status       Status                 `json:"status"`
	ConfirmKills bool                   `json:"confirmKills,omitempty"`
	Players      map[string]Player      `json:"players"`
	Weapons      []Weapon               `json:"weapons"`
	Suggestions  map[string]Suggestion  `json:"suggestions,omitempty"`
	Assignments  map[string]Assignment  `json:"assignments,omitempty"`
	Killed       []string               `json:"killedPlayers,omitempty"`
	KillLog      []KillRecord           `json:"killOrder,omitempty"`
	PendingKills map[string]PendingKill `json:"pendingKills,omitempty"`
	WinnerID     string                 `json:"winnerId,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	StartedAt    time.Time              `json:"startedAt,omitzero"`
	FinishedAt   time.Time              `json:"finishedAt,omitzero"`
}

// NewSession returns an empty session in the forming state. confirmKills
// selects the request/confirm handshake policy for the session's whole
// lifetime; it cannot be changed after creation.
func NewSession(code, hostID string, confirmKills bool, now time.Time) *Session {
	return &Session{
		Code:         code,
		HostID:       hostID,
		Status:       StatusForming,
		ConfirmKills: confirmKills,
		Players:      make(map[string]Player),
		CreatedAt:    now,
	}
}

// Clone returns a deep copy. The store hands clones to the engine so a
// failed operation never leaves a half-mutated snapshot visible.
func (s *Session) Clone() *Session {
	c := *s

	c.Players = make(map[string]Player, len(s.Players))
	for id, p := range s.Players {
		c.Players[id] = p
	}

	c.Weapons = slices.Clone(s.Weapons)
	c.Killed = slices.Clone(s.Killed)
	c.KillLog = slices.Clone(s.KillLog)

	if s.Suggestions != nil {
		c.Suggestions = make(map[string]Suggestion, len(s.Suggestions))
		for id, sg := range s.Suggestions {
			c.Suggestions[id] = sg
		}
	}

	if s.Assignments != nil {
		c.Assignments = make(map[string]Assignment, len(s.Assignments))
		for id, a := range s.Assignments {
			c.Assignments[id] = a
		}
	}

	if s.PendingKills != nil {
		c.PendingKills = make(map[string]PendingKill, len(s.PendingKills))
		for id, pk := range s.PendingKills {
			c.PendingKills[id] = pk
		}
	}

	return &c
}

// IsDead reports whether the player id is in the eliminated set.
func (s *Session) IsDead(playerID string) bool {
	return slices.Contains(s.Killed, playerID)
}

// AlivePlayers returns living roster entries, ordered by join time.
func (s *Session) AlivePlayers() []Player {
	alive := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !s.IsDead(p.ID) {
			alive = append(alive, p)
		}
	}
	sortPlayers(alive)
	return alive
}

// DeadPlayers returns eliminated roster entries in elimination order.
func (s *Session) DeadPlayers() []Player {
	dead := make([]Player, 0, len(s.Killed))
	for _, id := range s.Killed {
		if p, ok := s.Players[id]; ok {
			dead = append(dead, p)
		}
	}
	return dead
}

// Winner returns the winning player once the session is finished.
func (s *Session) Winner() (Player, bool) {
	if s.Status != StatusFinished || s.WinnerID == "" {
		return Player{}, false
	}
	p, ok := s.Players[s.WinnerID]
	return p, ok
}

func sortPlayers(players []Player) {
	sort.Slice(players, func(i, j int) bool {
		if !players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].JoinedAt.Before(players[j].JoinedAt)
		}
		return players[i].ID < players[j].ID
	})
}
