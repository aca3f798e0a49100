package engine

// applyTick advances every running countdown by elapsedMs. Ticks come from
// the room's own timer, never from clients, so disconnects cannot pause or
// reset match time.
func applyTick(s *State, elapsedMs int) ([]Event, error) {
	if s.Terminal() || elapsedMs <= 0 {
		return nil, nil
	}

	var events []Event

	// Vote windows run regardless of phase.
	for _, team := range s.Teams {
		if vote := team.QuitVote; vote != nil {
			vote.RemainingMs -= elapsedMs
			if vote.RemainingMs <= 0 {
				events = append(events, checkQuitVote(s, team, true)...)
				if s.Terminal() {
					return events, nil
				}
			}
		}
	}

	switch s.Phase {
	case PhasePreMatch:
		s.PreMatchMs -= elapsedMs
		if s.PreMatchMs <= 0 {
			s.PreMatchMs = 0
			// Presence never resolved; the match must not leak.
			events = append(events, endMatch(s, EndPresenceTimeout)...)
		}

	case PhaseStrategy:
		s.Strategy.RemainingMs -= elapsedMs
		if s.Strategy.RemainingMs <= 0 {
			s.Strategy.RemainingMs = 0
			// Deadline: unconfirmed teams are auto-confirmed with their
			// current proposals.
			for _, team := range s.Teams {
				team.Ready = true
			}
			events = append(events, startMatch(s)...)
		} else {
			events = append(events, Event{
				Type:    EvtStrategyTimeUpdate,
				Payload: StrategyTimeUpdatePayload{RemainingMs: s.Strategy.RemainingMs},
			})
		}

	case PhaseActive:
		events = append(events, driveAI(s, elapsedMs)...)
		if s.Terminal() || s.Phase != PhaseActive {
			break
		}
		s.GameClockMs -= elapsedMs
		s.RelayClockMs -= elapsedMs
		if s.GameClockMs <= 0 {
			s.GameClockMs = 0
			// Hard stop, even mid-slot.
			events = append(events, endMatch(s, EndClockExpired)...)
			break
		}
		if s.RelayClockMs <= 0 {
			s.RelayClockMs = 0
			events = append(events, closeRound(s)...)
			break
		}
		events = append(events, Event{
			Type:    EvtClockUpdate,
			Payload: ClockUpdatePayload{GameClockMs: s.GameClockMs, RelayClockMs: s.RelayClockMs},
		})

	case PhaseBreak, PhaseHalftime:
		s.BreakMs -= elapsedMs
		if s.BreakMs <= 0 {
			s.BreakMs = 0
			events = append(events, openRound(s, s.Round+1)...)
		}
	}

	return events, nil
}
