package game

// Mission is what a player sees when they check their assignment: the
// current live target, the weapon they must use, and whether the target
// was inherited down the chain from a dead player. The weapon is always
// the killer's originally dealt weapon; weapons never transfer along
// the chain.
type Mission struct {
	Target    Player
	Weapon    Weapon
	Inherited bool
}

// ResolveLiveTarget follows the assignment chain from forPlayer past
// eliminated players and returns the first living target, along with
// whether that differs from the original assignment.
//
// The visited guard is what makes resolution total: once every other
// player is dead the chain loops through the full cycle back around to
// forPlayer's own id, and without the guard the walk would never
// terminate. When the walk does come all the way around, the original
// target id is returned and the caller must treat a resolution to a
// dead player (or to forPlayer itself) as "no living target remains" —
// the game is already over at that point.
func (s *Session) ResolveLiveTarget(forPlayer string) (targetID string, inherited bool) {
	assignment, ok := s.Assignments[forPlayer]
	if !ok {
		return "", false
	}

	targetID = assignment.TargetID
	visited := map[string]bool{forPlayer: true}

	for s.IsDead(targetID) && !visited[targetID] {
		visited[targetID] = true

		next, ok := s.Assignments[targetID]
		if !ok {
			break
		}
		targetID = next.TargetID
	}

	return targetID, targetID != assignment.TargetID
}

// Mission returns the caller's current mission. Only legal while the
// session is active.
func (s *Session) Mission(playerID string) (Mission, error) {
	if s.Status != StatusActive {
		return Mission{}, ErrWrongState
	}

	assignment, ok := s.Assignments[playerID]
	if !ok {
		return Mission{}, ErrUnknownPlayer
	}

	targetID, inherited := s.ResolveLiveTarget(playerID)

	return Mission{
		Target:    s.Players[targetID],
		Weapon:    s.weaponByID(assignment.WeaponID),
		Inherited: inherited,
	}, nil
}

func (s *Session) weaponByID(id string) Weapon {
	for _, w := range s.Weapons {
		if w.ID == id {
			return w
		}
	}
	return Weapon{}
}
