package game

import (
	"errors"
	"testing"
)

// TestResolveLiveTargetInheritance covers the four-player chain
// A->B->C->D->A with B eliminated: A inherits B's target C, while C
// still holds their original target D.
func TestResolveLiveTargetInheritance(t *testing.T) {
	s := chainSession(t, "a", "b", "c", "d")
	s.Killed = []string{"b"}

	target, inherited := s.ResolveLiveTarget("a")
	if target != "c" || !inherited {
		t.Errorf("a: expected (c, inherited), got (%s, %v)", target, inherited)
	}

	target, inherited = s.ResolveLiveTarget("c")
	if target != "d" || inherited {
		t.Errorf("c: expected (d, original), got (%s, %v)", target, inherited)
	}
}

// TestResolveLiveTargetTerminates walks resolution for every player
// against every subset of eliminated opponents. The visited guard must
// make every resolution return, even around a fully eliminated cycle.
func TestResolveLiveTargetTerminates(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	s := chainSession(t, ids...)

	for mask := 0; mask < 1<<len(ids); mask++ {
		for i, resolver := range ids {
			if mask&(1<<i) != 0 {
				continue // never eliminate the resolving player
			}

			s.Killed = nil
			for j, id := range ids {
				if mask&(1<<j) != 0 {
					s.Killed = append(s.Killed, id)
				}
			}

			target, _ := s.ResolveLiveTarget(resolver)
			if target == "" {
				t.Fatalf("mask=%05b resolver=%s: no target resolved", mask, resolver)
			}
		}
	}
}

// TestResolveLiveTargetAllEliminated verifies the walk comes back around
// to the original assignment when no living target remains, instead of
// looping forever.
func TestResolveLiveTargetAllEliminated(t *testing.T) {
	s := chainSession(t, "a", "b", "c")
	s.Killed = []string{"b", "c"}

	target, _ := s.ResolveLiveTarget("a")
	if target != s.Assignments["a"].TargetID {
		t.Errorf("expected fallback to original target %s, got %s", s.Assignments["a"].TargetID, target)
	}
}

// TestResolveLiveTargetUnknownPlayer verifies resolution for an id with
// no assignment entry returns empty.
func TestResolveLiveTargetUnknownPlayer(t *testing.T) {
	s := chainSession(t, "a", "b", "c")

	if target, _ := s.ResolveLiveTarget("nobody"); target != "" {
		t.Errorf("expected empty target, got %s", target)
	}
}

// TestMissionKeepsOriginalWeapon verifies the weapon never transfers
// down the chain: after inheriting a new target, the killer still
// carries their originally dealt weapon.
func TestMissionKeepsOriginalWeapon(t *testing.T) {
	s := chainSession(t, "a", "b", "c", "d")

	before, err := s.Mission("a")
	if err != nil {
		t.Fatalf("Mission: %v", err)
	}

	s.Killed = []string{"b"}

	after, err := s.Mission("a")
	if err != nil {
		t.Fatalf("Mission: %v", err)
	}

	if !after.Inherited || after.Target.ID != "c" {
		t.Fatalf("expected inherited target c, got %+v", after)
	}

	if after.Weapon.ID != before.Weapon.ID {
		t.Errorf("weapon changed from %s to %s on inheritance", before.Weapon.ID, after.Weapon.ID)
	}
}

// TestMissionStateGating verifies missions are only readable while the
// game is active.
func TestMissionStateGating(t *testing.T) {
	s := newFormingSession(t, "a", "b", "c")

	if _, err := s.Mission("a"); !errors.Is(err, ErrWrongState) {
		t.Errorf("forming: expected ErrWrongState, got %v", err)
	}

	s = chainSession(t, "a", "b", "c")
	if _, err := s.Mission("nobody"); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
}
