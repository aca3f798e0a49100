package engine

// Ability validation never trusts client-held usage flags; budgets live in
// the authoritative team state and are consumed monotonically.

func applyAnchorCallIn(s *State, cmd Command) ([]Event, error) {
	// Call-ins are scheduled during pauses for the upcoming round.
	if s.Phase != PhaseStrategy && s.Phase != PhaseBreak && s.Phase != PhaseHalftime {
		return nil, ErrWrongPhase
	}
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	igl := team.IGL()
	if igl == nil || igl.ID != cmd.UserID {
		return nil, ErrNotIGL
	}
	if cmd.Half != s.Half {
		return nil, ErrStaleHalf
	}
	if team.CallInUsed(s.Half) {
		return nil, ErrBudgetExhausted
	}
	anchor := team.Anchor()
	if anchor == nil {
		return nil, ErrNotAnchor
	}
	if SlotOf(cmd.Slot) == 0 || cmd.Slot == anchor.Slot {
		return nil, ErrIllegalSlot
	}
	// During strategy the live proposal, not the last committed assignment,
	// says who holds the target slot.
	assignments := team.SlotAssignments
	if s.Strategy != nil {
		if prop, ok := s.Strategy.Proposals[team.Side]; ok {
			assignments = prop
		}
	}
	benchedID, ok := assignments[cmd.Slot]
	if !ok {
		return nil, ErrIllegalSlot
	}

	team.markCallInUsed(s.Half)
	team.PendingCallIn = &CallIn{TargetSlot: cmd.Slot, BenchedID: benchedID}

	return []Event{
		{
			Type: EvtDoubleCallInActivated,
			Payload: DoubleCallInActivatedPayload{
				TeamID:     team.ID,
				AnchorID:   anchor.ID,
				TargetSlot: cmd.Slot,
				BenchedID:  benchedID,
				Round:      s.Round + 1,
			},
		},
		{
			Type:     EvtDoubleCallInSuccess,
			Audience: Audience{UserID: cmd.UserID},
			Payload:  DoubleCallInSuccessPayload{TargetSlot: cmd.Slot, Half: s.Half},
		},
	}, nil
}

func applyAnchorSolo(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseActive {
		return nil, ErrWrongPhase
	}
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	anchor := team.Anchor()
	if anchor == nil || anchor.ID != cmd.UserID {
		return nil, ErrNotAnchor
	}
	if team.AnchorSoloUsed {
		return nil, ErrBudgetExhausted
	}
	if s.Round < s.Rules.AnchorSoloMinRound {
		return nil, ErrRoundLocked
	}
	if team.RelayComplete {
		return nil, ErrWrongPhase
	}

	team.AnchorSoloUsed = true
	team.AnchorSoloActive = true

	events := []Event{}
	current := team.ActivePlayer()
	if current != nil && current.ID != anchor.ID {
		// The anchor takes over mid-slot with a fresh question; slot
		// progress is preserved.
		current.IsActive = false
		current.CurrentQuestion = nil
		anchor.IsActive = true
		op := SlotOrder[team.CurrentSlot-1]
		q := nextQuestion(s, op)
		anchor.CurrentQuestion = &q
		events = append(events,
			Event{
				Type: EvtSlotChange,
				Payload: SlotChangePayload{
					TeamID:    team.ID,
					Slot:      team.CurrentSlot,
					Operation: op,
					PlayerID:  anchor.ID,
				},
			},
			Event{
				Type:     EvtQuestionUpdate,
				Audience: Audience{Team: team.Side},
				Payload:  QuestionUpdatePayload{TeamID: team.ID, UserID: anchor.ID, Question: q},
			},
		)
	}
	return events, nil
}

func applyIGLTimeout(s *State, cmd Command) ([]Event, error) {
	// Timeouts extend the pause the team is already in.
	if s.Phase != PhaseBreak && s.Phase != PhaseHalftime {
		return nil, ErrWrongPhase
	}
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	igl := team.IGL()
	if igl == nil || igl.ID != cmd.UserID {
		return nil, ErrNotIGL
	}
	if team.TimeoutsUsed >= s.Rules.TimeoutsPerMatch {
		return nil, ErrBudgetExhausted
	}

	team.TimeoutsUsed++
	s.BreakMs += s.Rules.TimeoutExtensionMs

	return []Event{{
		Type: EvtTimeoutCalled,
		Payload: TimeoutCalledPayload{
			TeamID:             team.ID,
			NewBreakDurationMs: s.BreakMs,
			ExtensionMs:        s.Rules.TimeoutExtensionMs,
			TimeoutsRemaining:  s.Rules.TimeoutsPerMatch - team.TimeoutsUsed,
		},
	}}, nil
}
