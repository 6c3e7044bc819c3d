package game

import "time"

// KillResult describes a successfully applied elimination.
type KillResult struct {
	Victim   Player
	Record   KillRecord
	Alive    []Player
	GameOver bool
	Winner   *Player
}

// ReportKill applies a direct-report elimination: any participant with
// knowledge of the victim's death may report it. The killer is
// attributed by finding the living player whose current live target is
// the victim, using the eliminated set as it stood before this kill.
// When no living player resolves to the victim (out-of-order reports
// racing each other), the kill is recorded unattributed rather than
// rejected.
func (s *Session) ReportKill(victimID string, now time.Time) (KillResult, error) {
	if s.Status != StatusActive {
		return KillResult{}, ErrWrongState
	}

	killerID := s.attributeKiller(victimID)

	return s.applyKill(killerID, victimID, now)
}

// RequestKill opens a pending kill: the assigned killer claims to have
// eliminated their current live target, and the victim must confirm or
// reject it. At most one pending kill may exist per victim.
func (s *Session) RequestKill(byPlayer, victimID string, now time.Time) error {
	if s.Status != StatusActive {
		return ErrWrongState
	}

	if _, ok := s.Players[victimID]; !ok {
		return ErrUnknownPlayer
	}

	if s.IsDead(victimID) {
		return ErrAlreadyEliminated
	}

	if target, _ := s.ResolveLiveTarget(byPlayer); target != victimID {
		return ErrNotYourTarget
	}

	if _, ok := s.PendingKills[victimID]; ok {
		return ErrDuplicatePending
	}

	if s.PendingKills == nil {
		s.PendingKills = make(map[string]PendingKill)
	}

	s.PendingKills[victimID] = PendingKill{
		KillerID:    byPlayer,
		KillerName:  s.Players[byPlayer].Name,
		RequestedAt: now,
	}

	return nil
}

// ConfirmDeath is called by the victim of a pending kill to accept it,
// applying the same effects as a direct report but attributed to the
// requesting killer.
func (s *Session) ConfirmDeath(byPlayer string, now time.Time) (KillResult, error) {
	if s.Status != StatusActive {
		return KillResult{}, ErrWrongState
	}

	pending, ok := s.PendingKills[byPlayer]
	if !ok {
		return KillResult{}, ErrNoPendingKill
	}

	result, err := s.applyKill(pending.KillerID, byPlayer, now)
	if err != nil {
		return KillResult{}, err
	}

	return result, nil
}

// RejectKill is called by the victim of a pending kill to dispute it.
// The pending record is discarded and nothing else changes; the killer
// is free to request again.
func (s *Session) RejectKill(byPlayer string) error {
	if s.Status != StatusActive {
		return ErrWrongState
	}

	if _, ok := s.PendingKills[byPlayer]; !ok {
		return ErrNoPendingKill
	}

	delete(s.PendingKills, byPlayer)

	return nil
}

// attributeKiller reverse-searches the assignment for the living player
// whose live target is the victim. In a well-formed single cycle the
// living predecessor is unique, so the first match is the only match.
func (s *Session) attributeKiller(victimID string) string {
	for killerID := range s.Assignments {
		if killerID == victimID || s.IsDead(killerID) {
			continue
		}
		if target, _ := s.ResolveLiveTarget(killerID); target == victimID {
			return killerID
		}
	}
	return ""
}

func (s *Session) applyKill(killerID, victimID string, now time.Time) (KillResult, error) {
	victim, ok := s.Players[victimID]
	if !ok {
		return KillResult{}, ErrUnknownPlayer
	}

	if s.IsDead(victimID) {
		return KillResult{}, ErrAlreadyEliminated
	}

	record := KillRecord{
		KillerID: killerID,
		VictimID: victimID,
		Time:     now,
	}
	if assignment, ok := s.Assignments[killerID]; ok {
		record.WeaponID = assignment.WeaponID
	}

	s.Killed = append(s.Killed, victimID)
	s.KillLog = append(s.KillLog, record)
	delete(s.PendingKills, victimID)

	result := KillResult{
		Victim: victim,
		Record: record,
		Alive:  s.AlivePlayers(),
	}

	if len(result.Alive) == 1 {
		winner := result.Alive[0]
		s.Status = StatusFinished
		s.WinnerID = winner.ID
		s.FinishedAt = now
		result.GameOver = true
		result.Winner = &winner
	}

	return result, nil
}
