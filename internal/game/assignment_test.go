package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"
)

func testPlayers(n int) []Player {
	players := make([]Player, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, Player{
			ID:   fmt.Sprintf("player-%02d", i),
			Name: fmt.Sprintf("Player %02d", i),
		})
	}
	return players
}

func testWeapons(n int) []Weapon {
	weapons := make([]Weapon, 0, n)
	for i := 0; i < n; i++ {
		weapons = append(weapons, Weapon{
			ID:   fmt.Sprintf("weapon-%02d", i),
			Name: fmt.Sprintf("Weapon %02d", i),
		})
	}
	return weapons
}

// TestBuildAssignmentSingleCycle verifies the core chain property for
// every roster size from 3 to 50: following the chain from any player
// returns to that player in exactly n steps, with no fixed points and
// no shorter sub-cycle.
func TestBuildAssignmentSingleCycle(t *testing.T) {
	for n := 3; n <= 50; n++ {
		players := testPlayers(n)
		weapons := testWeapons(n + 2)

		assignments, err := BuildAssignment(rand.New(rand.NewSource(int64(n))), players, weapons)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}

		if len(assignments) != n {
			t.Fatalf("n=%d: expected %d entries, got %d", n, n, len(assignments))
		}

		for _, start := range players {
			current := start.ID
			for step := 1; step <= n; step++ {
				next, ok := assignments[current]
				if !ok {
					t.Fatalf("n=%d: no assignment for %s", n, current)
				}
				if next.TargetID == current {
					t.Fatalf("n=%d: %s targets themself", n, current)
				}
				current = next.TargetID
				if current == start.ID && step != n {
					t.Fatalf("n=%d: cycle from %s closed after %d steps", n, start.ID, step)
				}
			}
			if current != start.ID {
				t.Fatalf("n=%d: cycle from %s did not close after %d steps", n, start.ID, n)
			}
		}
	}
}

// TestBuildAssignmentDistinctWeapons verifies every entry carries a
// distinct weapon from the pool.
func TestBuildAssignmentDistinctWeapons(t *testing.T) {
	players := testPlayers(8)
	weapons := testWeapons(10)

	assignments, err := BuildAssignment(rand.New(rand.NewSource(3)), players, weapons)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]string)
	for killer, a := range assignments {
		if a.WeaponID == "" {
			t.Errorf("%s has no weapon", killer)
		}
		if prev, ok := seen[a.WeaponID]; ok {
			t.Errorf("weapon %s dealt to both %s and %s", a.WeaponID, prev, killer)
		}
		seen[a.WeaponID] = killer
	}
}

// TestBuildAssignmentValidation verifies setup deficits surface as a
// single aggregated validation error naming every unmet condition.
func TestBuildAssignmentValidation(t *testing.T) {
	tests := []struct {
		name    string
		players int
		weapons int
		want    []string
	}{
		{"too few players", 2, 5, []string{"players"}},
		{"too few weapons", 3, 2, []string{"weapons"}},
		{"both deficits", 2, 1, []string{"players", "weapons"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildAssignment(rand.New(rand.NewSource(1)), testPlayers(tt.players), testWeapons(tt.weapons))

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			if len(verr.Problems) != len(tt.want) {
				t.Fatalf("expected %d problems, got %v", len(tt.want), verr.Problems)
			}

			for i, substr := range tt.want {
				if !strings.Contains(verr.Problems[i], substr) {
					t.Errorf("problem %d = %q, expected mention of %q", i, verr.Problems[i], substr)
				}
			}
		})
	}
}

// TestStartThreePlayerRotation verifies a started 3-player game forms
// exactly one full rotation over A, B, and C, in either direction.
func TestStartThreePlayerRotation(t *testing.T) {
	now := time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)
	s := NewSession("GAME01", "a", false, now)

	for i, id := range []string{"a", "b", "c"} {
		if _, err := s.AddPlayer(id, strings.ToUpper(id), "", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
	}
	for _, name := range []string{"Rope", "Poison", "Spatula"} {
		if _, err := s.AddWeapon(name, ""); err != nil {
			t.Fatalf("AddWeapon(%s): %v", name, err)
		}
	}

	if err := s.Start(rand.New(rand.NewSource(9)), now); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if s.Status != StatusActive {
		t.Fatalf("expected active status, got %s", s.Status)
	}

	forward := s.Assignments["a"].TargetID == "b" &&
		s.Assignments["b"].TargetID == "c" &&
		s.Assignments["c"].TargetID == "a"
	backward := s.Assignments["a"].TargetID == "c" &&
		s.Assignments["c"].TargetID == "b" &&
		s.Assignments["b"].TargetID == "a"

	if forward == backward {
		t.Fatalf("expected exactly one rotation direction, got %v", s.Assignments)
	}

	seen := make(map[string]bool)
	for _, a := range s.Assignments {
		if seen[a.WeaponID] {
			t.Errorf("weapon %s dealt twice", a.WeaponID)
		}
		seen[a.WeaponID] = true
	}
}

// TestStartRequiresFormingState verifies a second start attempt fails.
func TestStartRequiresFormingState(t *testing.T) {
	s := activeSession(t, "a", "b", "c")

	if err := s.Start(rand.New(rand.NewSource(1)), time.Now()); !errors.Is(err, ErrWrongState) {
		t.Errorf("expected ErrWrongState, got %v", err)
	}
}
