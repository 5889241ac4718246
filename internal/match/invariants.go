package match

import "math"

// checkInvariants verifies the committed state. Any failure is a logic
// defect, reported with a full state dump.
func checkInvariants(pre, s *Snapshot) error {
	if s.Clock < pre.Clock {
		return newStateCorruption(s, "clock went backwards: %v -> %v", pre.Clock, s.Clock)
	}

	b := &s.Ball
	if b.Possessor < NoPlayer || b.Possessor >= NumPlayers {
		return newStateCorruption(s, "possessor index %d out of range", b.Possessor)
	}
	if !b.Pos.IsFinite() || !b.Vel.IsFinite() {
		return newStateCorruption(s, "ball state is not finite")
	}

	holders := 0
	for i := range s.Players {
		pl := &s.Players[i]
		if !pl.Pos.IsFinite() || !pl.Vel.IsFinite() {
			return newStateCorruption(s, "player %d state is not finite", i)
		}
		if pl.Stamina < 0 || pl.Stamina > 1 || math.IsNaN(pl.Stamina) {
			return newStateCorruption(s, "player %d stamina %v outside [0, 1]", i, pl.Stamina)
		}
		if pl.Intent == IntentInPossession {
			holders++
			if i != b.Possessor {
				return newStateCorruption(s, "player %d is in possession but the ball belongs to %d", i, b.Possessor)
			}
		}
	}
	if b.Possessor >= 0 && s.Players[b.Possessor].Intent != IntentInPossession {
		return newStateCorruption(s, "possessor %d has intent %s", b.Possessor, s.Players[b.Possessor].Intent)
	}
	if holders > 1 {
		return newStateCorruption(s, "%d players in possession", holders)
	}
	return nil
}
