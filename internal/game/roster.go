package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultWeapons is the built-in starter pool the host can deal from
// instead of collecting suggestions.
var DefaultWeapons = []string{
	"Kitchen knife",
	"Frying pan",
	"Pillow",
	"Rope",
	"Poison",
	"Scissors",
	"Hammer",
	"Lamp",
	"USB cable",
	"Heavy book",
	"Slipper",
	"Umbrella",
	"Necktie",
	"Wet sock",
	"Coffee mug",
	"TV remote",
	"Tennis ball",
	"Spatula",
	"Metal ruler",
	"Wine bottle",
}

// AddPlayer adds a roster entry while the session is forming. An empty
// id marks a guest added by the host and gets a generated id. Names are
// trimmed and must be unique case-insensitively within the roster.
func (s *Session) AddPlayer(id, name, photo string, now time.Time) (Player, error) {
	if s.Status != StatusForming {
		return Player{}, ErrWrongState
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, validationError("player name must not be empty")
	}

	if len(photo) > MaxPhotoBytes {
		return Player{}, validationError(fmt.Sprintf("photo exceeds %d bytes", MaxPhotoBytes))
	}

	for _, p := range s.Players {
		if p.ID != id && strings.EqualFold(p.Name, name) {
			return Player{}, validationError(fmt.Sprintf("the name %q is already taken", name))
		}
	}

	guest := id == ""
	if guest {
		id = uuid.NewString()
	}

	player := Player{
		ID:       id,
		Name:     name,
		Photo:    photo,
		Guest:    guest,
		JoinedAt: now,
	}

	// Rejoining with the same id updates the entry in place.
	if existing, ok := s.Players[id]; ok {
		player.JoinedAt = existing.JoinedAt
	}

	s.Players[id] = player

	return player, nil
}

// RemovePlayer drops a roster entry while the session is forming.
// Removing an id that is not on the roster is a no-op.
func (s *Session) RemovePlayer(id string) error {
	if s.Status != StatusForming {
		return ErrWrongState
	}

	delete(s.Players, id)

	return nil
}

// AddWeapon appends to the weapon pool while the session is forming.
// Names are trimmed and must be unique case-insensitively.
func (s *Session) AddWeapon(name, suggestedBy string) (Weapon, error) {
	if s.Status != StatusForming {
		return Weapon{}, ErrWrongState
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Weapon{}, validationError("weapon name must not be empty")
	}

	for _, w := range s.Weapons {
		if strings.EqualFold(w.Name, name) {
			return Weapon{}, validationError(fmt.Sprintf("the weapon %q is already in the pool", name))
		}
	}

	weapon := Weapon{
		ID:          uuid.NewString(),
		Name:        name,
		SuggestedBy: suggestedBy,
	}

	s.Weapons = append(s.Weapons, weapon)

	return weapon, nil
}

// RemoveWeapon drops a weapon from the pool while the session is
// forming. Unknown ids are a no-op.
func (s *Session) RemoveWeapon(id string) error {
	if s.Status != StatusForming {
		return ErrWrongState
	}

	for i, w := range s.Weapons {
		if w.ID == id {
			s.Weapons = append(s.Weapons[:i], s.Weapons[i+1:]...)
			break
		}
	}

	return nil
}

// SuggestWeapon records a weapon proposal from a non-host player.
// Suggestions are independent of each other and of the pool until the
// host resolves them, so duplicate names may coexist here.
func (s *Session) SuggestWeapon(byPlayer, name string, now time.Time) (Suggestion, error) {
	if s.Status != StatusForming {
		return Suggestion{}, ErrWrongState
	}

	player, ok := s.Players[byPlayer]
	if !ok {
		return Suggestion{}, ErrUnknownPlayer
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Suggestion{}, validationError("weapon name must not be empty")
	}

	suggestion := Suggestion{
		ID:              uuid.NewString(),
		Name:            name,
		SuggestedBy:     player.ID,
		SuggestedByName: player.Name,
		SuggestedAt:     now,
	}

	if s.Suggestions == nil {
		s.Suggestions = make(map[string]Suggestion)
	}
	s.Suggestions[suggestion.ID] = suggestion

	return suggestion, nil
}

// ApproveSuggestion moves a suggestion into the weapon pool under the
// suggested name. The usual duplicate check applies, so approving the
// second of two same-named suggestions fails cleanly.
func (s *Session) ApproveSuggestion(id string) (Weapon, error) {
	if s.Status != StatusForming {
		return Weapon{}, ErrWrongState
	}

	suggestion, ok := s.Suggestions[id]
	if !ok {
		return Weapon{}, validationError("suggestion not found")
	}

	weapon, err := s.AddWeapon(suggestion.Name, suggestion.SuggestedBy)
	if err != nil {
		return Weapon{}, err
	}

	delete(s.Suggestions, id)

	return weapon, nil
}

// RejectSuggestion discards a suggestion with no other side effect.
// Unknown ids are a no-op.
func (s *Session) RejectSuggestion(id string) error {
	if s.Status != StatusForming {
		return ErrWrongState
	}

	delete(s.Suggestions, id)

	return nil
}
