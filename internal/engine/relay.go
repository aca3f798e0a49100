package engine

import (
	"strconv"
	"strings"
)

const (
	basePoints     = 100
	streakBonus    = 10
	maxStreakBonus = 50
)

func pointsFor(streak int) int {
	bonus := streakBonus * (streak - 1)
	if bonus > maxStreakBonus {
		bonus = maxStreakBonus
	}
	if bonus < 0 {
		bonus = 0
	}
	return basePoints + bonus
}

func applySubmitAnswer(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseActive {
		return nil, ErrWrongPhase
	}
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	player := team.ActivePlayer()
	if player == nil || player.ID != cmd.UserID {
		return nil, ErrNotActivePlayer
	}
	question := player.CurrentQuestion
	if question == nil {
		return nil, ErrNotActivePlayer
	}

	// Every submission resolves the outstanding question so the relay
	// cannot stall on a wrong answer.
	correct := false
	if n, err := strconv.Atoi(strings.TrimSpace(cmd.Answer)); err == nil {
		correct = n == question.Answer
	}

	player.Total++
	points := 0
	if correct {
		player.Streak++
		if player.Streak > player.MaxStreak {
			player.MaxStreak = player.Streak
		}
		team.CurrentStreak++
		points = pointsFor(player.Streak)
		player.Correct++
		player.Score += points
		team.Score += points
	} else {
		player.Streak = 0
		team.CurrentStreak = 0
	}

	events := []Event{
		{
			Type:     EvtAnswerResult,
			Audience: Audience{UserID: cmd.UserID},
			Payload: AnswerResultPayload{
				UserID:  cmd.UserID,
				Correct: correct,
				Points:  points,
				Streak:  player.Streak,
				Answer:  cmd.Answer,
			},
		},
		{
			Type:     EvtTeammateAnswer,
			Audience: Audience{Team: team.Side, ExcludeUserID: cmd.UserID},
			Payload: TeammateAnswerPayload{
				TeamID:   team.ID,
				UserID:   cmd.UserID,
				UserName: player.Name,
				Correct:  correct,
				Points:   points,
			},
		},
	}

	team.QuestionsInSlot++
	if team.QuestionsInSlot >= s.Rules.QuestionsPerSlot {
		events = append(events, advanceSlot(s, team)...)
	} else {
		// Draw from the team's current slot, not the player's own: an anchor
		// covering another slot answers that slot's operation.
		q := nextQuestion(s, SlotOrder[team.CurrentSlot-1])
		player.CurrentQuestion = &q
		events = append(events, Event{
			Type:     EvtQuestionUpdate,
			Audience: Audience{Team: team.Side},
			Payload:  QuestionUpdatePayload{TeamID: team.ID, UserID: player.ID, Question: q},
		})
	}

	// A team finishing its relay can close the round.
	if team.RelayComplete && s.Teams[team.Side.Opponent()].RelayComplete {
		events = append(events, closeRound(s)...)
	}
	return events, nil
}

// advanceSlot moves the team to its next relay slot in the same atomic
// update that reset questionsInSlot, reassigning the active player.
func advanceSlot(s *State, team *Team) []Event {
	prev := team.ActivePlayer()
	if prev != nil {
		prev.IsActive = false
		prev.IsComplete = true
		prev.CurrentQuestion = nil
	}

	team.QuestionsInSlot = 0
	team.CurrentSlot++

	if team.CurrentSlot > len(SlotOrder) {
		team.CurrentSlot = len(SlotOrder)
		team.RelayComplete = true
		return []Event{{
			Type: EvtSlotChange,
			Payload: SlotChangePayload{
				TeamID:        team.ID,
				Slot:          team.CurrentSlot,
				RelayComplete: true,
			},
		}}
	}

	op := SlotOrder[team.CurrentSlot-1]
	next := playerForSlot(team, op)
	if next == nil {
		// No one can cover the slot; treat the relay as complete rather
		// than leaving the team with no active player.
		team.RelayComplete = true
		return []Event{{
			Type: EvtSlotChange,
			Payload: SlotChangePayload{
				TeamID:        team.ID,
				Slot:          team.CurrentSlot,
				RelayComplete: true,
			},
		}}
	}

	next.IsActive = true
	q := nextQuestion(s, op)
	next.CurrentQuestion = &q

	events := []Event{{
		// Broadcast to everyone (opponent panels render it read-only),
		// tagged with the owning team.
		Type: EvtSlotChange,
		Payload: SlotChangePayload{
			TeamID:    team.ID,
			Slot:      team.CurrentSlot,
			Operation: op,
			PlayerID:  next.ID,
		},
	}}
	// No hand-off when the same player keeps the clock (anchor solo).
	if prev == nil || prev.ID != next.ID {
		events = append(events, Event{
			Type:     EvtHandoffCountdown,
			Audience: Audience{Team: team.Side},
			Payload: HandoffCountdownPayload{
				TeamID:     team.ID,
				PlayerID:   next.ID,
				DurationMs: s.Rules.HandoffMs,
			},
		})
	}
	events = append(events, Event{
		Type:     EvtQuestionUpdate,
		Audience: Audience{Team: team.Side},
		Payload:  QuestionUpdatePayload{TeamID: team.ID, UserID: next.ID, Question: q},
	})
	return events
}

// playerForSlot resolves who is on the clock for a slot, honoring an active
// anchor solo or call-in before the regular assignment.
func playerForSlot(team *Team, op Operation) *Player {
	anchor := team.Anchor()
	if team.AnchorSoloActive && anchor != nil {
		return anchor
	}
	if ci := team.ActiveCallIn; ci != nil && ci.TargetSlot == op && anchor != nil {
		return anchor
	}
	pid, ok := team.SlotAssignments[op]
	if !ok {
		return nil
	}
	p := team.Players[pid]
	if p != nil && p.Benched && anchor != nil {
		return anchor
	}
	return p
}

// openRound resets both relays and puts slot 1 on the clock.
func openRound(s *State, round int) []Event {
	s.Phase = PhaseActive
	s.Round = round
	if round > s.Rules.RoundsPerHalf {
		s.Half = 2
	}
	s.RelayClockMs = s.Rules.RelayClockMs

	events := []Event{{
		Type: EvtRoundStart,
		Payload: RoundStartPayload{
			Round:        s.Round,
			Half:         s.Half,
			RelayClockMs: s.RelayClockMs,
		},
	}}

	for _, team := range s.Teams {
		team.CurrentSlot = 1
		team.QuestionsInSlot = 0
		team.RelayComplete = false
		team.AnchorSoloActive = false

		// Promote a call-in scheduled for this round.
		team.ActiveCallIn = nil
		for _, p := range team.Players {
			p.IsActive = false
			p.IsComplete = false
			p.Benched = false
			p.CurrentQuestion = nil
		}
		if team.PendingCallIn != nil {
			team.ActiveCallIn = team.PendingCallIn
			team.PendingCallIn = nil
			if benched, ok := team.Players[team.ActiveCallIn.BenchedID]; ok {
				benched.Benched = true
			}
		}

		op := SlotOrder[0]
		if first := playerForSlot(team, op); first != nil {
			first.IsActive = true
			q := nextQuestion(s, op)
			first.CurrentQuestion = &q
			events = append(events, Event{
				Type:     EvtQuestionUpdate,
				Audience: Audience{Team: team.Side},
				Payload:  QuestionUpdatePayload{TeamID: team.ID, UserID: first.ID, Question: q},
			})
		}
	}
	return events
}

// closeRound freezes scoring and decides what comes after the round:
// tactical break, halftime, or the end of the match.
func closeRound(s *State) []Event {
	for _, team := range s.Teams {
		if p := team.ActivePlayer(); p != nil {
			p.IsActive = false
			p.CurrentQuestion = nil
		}
	}

	switch {
	case s.Round >= s.TotalRounds():
		return endMatch(s, EndRoundsComplete)
	case s.Round == s.Rules.RoundsPerHalf:
		s.Phase = PhaseHalftime
		// Halftime schedules the first round of half 2, so half-scoped
		// budgets flip here rather than at the next round open.
		s.Half = 2
		s.BreakMs = s.Rules.HalftimeMs
		return []Event{{
			Type: EvtHalftime,
			Payload: HalftimePayload{
				HalftimeMs: s.BreakMs,
				HomeScore:  s.Teams[SideHome].Score,
				AwayScore:  s.Teams[SideAway].Score,
			},
		}}
	default:
		s.Phase = PhaseBreak
		s.BreakMs = s.Rules.BreakMs
		return []Event{{
			Type:    EvtRoundBreak,
			Payload: RoundBreakPayload{Round: s.Round, BreakMs: s.BreakMs},
		}}
	}
}

// endMatch drives the match to its terminal state exactly once.
func endMatch(s *State, reason EndReason) []Event {
	if s.Terminal() {
		return nil
	}
	s.Phase = PhasePostMatch
	s.EndReason = reason
	s.Strategy = nil

	home, away := s.Teams[SideHome], s.Teams[SideAway]
	for _, team := range s.Teams {
		if p := team.ActivePlayer(); p != nil {
			p.IsActive = false
			p.CurrentQuestion = nil
		}
		team.QuitVote = nil
	}

	switch {
	case home.Score > away.Score:
		s.Winner = SideHome
	case away.Score > home.Score:
		s.Winner = SideAway
	default:
		s.Draw = true
	}

	payload := MatchEndPayload{
		Reason:    reason,
		Draw:      s.Draw,
		HomeScore: home.Score,
		AwayScore: away.Score,
	}
	if s.Winner != "" {
		payload.WinnerTeamID = s.Teams[s.Winner].ID
	}
	return []Event{{Type: EvtMatchEnd, Payload: payload}}
}

// forfeitMatch ends the match with the forfeiting team's opponent as winner,
// overriding the score comparison.
func forfeitMatch(s *State, forfeiting Side) []Event {
	if s.Terminal() {
		return nil
	}
	winner := forfeiting.Opponent()
	events := endMatch(s, EndForfeit)
	if len(events) == 0 {
		return nil
	}
	s.Winner = winner
	s.Draw = false
	payload := events[0].Payload.(MatchEndPayload)
	payload.WinnerTeamID = s.Teams[winner].ID
	payload.Draw = false
	events[0].Payload = payload

	return append([]Event{{
		Type: EvtTeamForfeit,
		Payload: TeamForfeitPayload{
			TeamID:       s.Teams[forfeiting].ID,
			WinnerTeamID: s.Teams[winner].ID,
		},
	}}, events...)
}
