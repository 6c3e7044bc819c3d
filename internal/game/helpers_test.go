package game

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)

// chainSession builds an active session whose kill chain follows ids in
// order (ids[0] -> ids[1] -> ... -> ids[0]), with each killer dealt the
// weapon sharing their index. Tests that depend on a specific chain
// layout use this instead of fighting the shuffle.
func chainSession(t *testing.T, ids ...string) *Session {
	t.Helper()

	s := newFormingSession(t, ids...)

	if err := s.Start(rand.New(rand.NewSource(1)), testTime); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Overwrite the shuffled chain with the requested layout.
	s.Assignments = make(map[string]Assignment, len(ids))
	for i, id := range ids {
		s.Assignments[id] = Assignment{
			TargetID: ids[(i+1)%len(ids)],
			WeaponID: s.Weapons[i].ID,
		}
	}

	return s
}

// activeSession builds an active session over ids with a seeded random
// chain, for tests that only need a well-formed game in progress.
func activeSession(t *testing.T, ids ...string) *Session {
	t.Helper()

	s := newFormingSession(t, ids...)

	if err := s.Start(rand.New(rand.NewSource(1)), testTime); err != nil {
		t.Fatalf("Start: %v", err)
	}

	return s
}

func newFormingSession(t *testing.T, ids ...string) *Session {
	t.Helper()

	s := NewSession("GAME01", ids[0], false, testTime)

	for i, id := range ids {
		if _, err := s.AddPlayer(id, strings.ToUpper(id), "", testTime.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
		if _, err := s.AddWeapon(fmt.Sprintf("Weapon %02d", i), ""); err != nil {
			t.Fatalf("AddWeapon: %v", err)
		}
	}

	return s
}
