package game

import (
	"fmt"
	"math/rand"
	"time"
)

// BuildAssignment arranges players into a single random kill cycle and
// deals each killer one weapon. Players and weapons are shuffled
// independently, then player i targets player i+1 (mod n) and carries
// weapon i. By construction every player has exactly one target, is
// targeted by exactly one killer, and the chain is one cycle of length
// n rather than disjoint sub-cycles.
func BuildAssignment(rng *rand.Rand, players []Player, weapons []Weapon) (map[string]Assignment, error) {
	if err := validateSetup(len(players), len(weapons)); err != nil {
		return nil, err
	}

	shuffled := Shuffle(rng, players)
	dealt := Shuffle(rng, weapons)

	assignments := make(map[string]Assignment, len(shuffled))
	for i, killer := range shuffled {
		target := shuffled[(i+1)%len(shuffled)]
		assignments[killer.ID] = Assignment{
			TargetID: target.ID,
			WeaponID: dealt[i].ID,
		}
	}

	return assignments, nil
}

// Start validates the setup, builds the assignment cycle, and moves the
// session to the active state. The weapon pool and roster are frozen
// from this point on.
func (s *Session) Start(rng *rand.Rand, now time.Time) error {
	if s.Status != StatusForming {
		return ErrWrongState
	}

	// Sorted roster order keeps game starts reproducible under a seeded
	// rand source; the shuffle supplies all the randomness.
	players := s.roster()

	assignments, err := BuildAssignment(rng, players, s.Weapons)
	if err != nil {
		return err
	}

	s.Assignments = assignments
	s.Killed = nil
	s.KillLog = nil
	s.PendingKills = nil
	s.WinnerID = ""
	s.Status = StatusActive
	s.StartedAt = now

	return nil
}

func validateSetup(playerCount, weaponCount int) error {
	var problems []string

	if playerCount < MinPlayers {
		problems = append(problems, fmt.Sprintf("insufficient players: need at least %d, have %d", MinPlayers, playerCount))
	}

	if weaponCount < playerCount {
		problems = append(problems, fmt.Sprintf("insufficient weapons: need at least %d, have %d", playerCount, weaponCount))
	}

	if len(problems) > 0 {
		return validationError(problems...)
	}

	return nil
}

// roster returns all players sorted by join time.
func (s *Session) roster() []Player {
	players := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p)
	}
	sortPlayers(players)
	return players
}
