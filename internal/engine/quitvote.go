package engine

// Quit-vote lifecycle: none -> active -> resolved(quit|stay) -> none.
//
// Majority arithmetic: the denominator is the full team size and abstentions
// count as stay. A vote resolves quit only when yes votes strictly exceed
// half the roster; everything else resolves stay at the deadline or once all
// members have voted.

func applyInitiateQuitVote(s *State, cmd Command) ([]Event, error) {
	if s.Phase == PhasePreMatch {
		return nil, ErrWrongPhase
	}
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if team.LeaderID != cmd.UserID {
		return nil, ErrNotLeader
	}
	if team.QuitVote != nil {
		return nil, ErrVoteInProgress
	}

	initiator := team.Players[cmd.UserID]
	team.QuitVote = &QuitVote{
		InitiatorID:   initiator.ID,
		InitiatorName: initiator.Name,
		Votes:         map[string]VoteChoice{initiator.ID: VoteYes},
		RemainingMs:   s.Rules.QuitVoteMs,
	}

	events := []Event{{
		Type:     EvtQuitVoteStarted,
		Audience: Audience{Team: team.Side},
		Payload: QuitVoteStartedPayload{
			TeamID:        team.ID,
			InitiatorID:   initiator.ID,
			InitiatorName: initiator.Name,
			ExpiresInMs:   s.Rules.QuitVoteMs,
		},
	}}
	// A solo roster's initiator vote is already a majority.
	events = append(events, checkQuitVote(s, team, false)...)
	return events, nil
}

func applyCastQuitVote(s *State, cmd Command) ([]Event, error) {
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	vote := team.QuitVote
	if vote == nil {
		return nil, ErrNoVoteActive
	}
	if _, voted := vote.Votes[cmd.UserID]; voted {
		return nil, nil // one vote per member; repeats are silently ignored
	}
	choice := cmd.Vote
	if choice != VoteYes {
		choice = VoteNo
	}
	vote.Votes[cmd.UserID] = choice

	yes, no := tallyVotes(vote)
	events := []Event{{
		Type:     EvtQuitVoteUpdate,
		Audience: Audience{Team: team.Side},
		Payload: QuitVoteUpdatePayload{
			TeamID:   team.ID,
			YesVotes: yes,
			NoVotes:  no,
			TeamSize: len(team.Players),
		},
	}}
	events = append(events, checkQuitVote(s, team, false)...)
	return events, nil
}

func tallyVotes(vote *QuitVote) (yes, no int) {
	for _, v := range vote.Votes {
		if v == VoteYes {
			yes++
		} else {
			no++
		}
	}
	return yes, no
}

// checkQuitVote resolves the vote if a verdict is reachable. With deadline
// set, an undecided vote resolves stay.
func checkQuitVote(s *State, team *Team, deadline bool) []Event {
	vote := team.QuitVote
	if vote == nil {
		return nil
	}
	yes, _ := tallyVotes(vote)
	size := len(team.Players)

	if yes*2 > size {
		team.QuitVote = nil
		events := []Event{{
			Type:     EvtQuitVoteResult,
			Audience: Audience{Team: team.Side},
			Payload:  QuitVoteResultPayload{TeamID: team.ID, Result: VoteQuit},
		}}
		return append(events, forfeitMatch(s, team.Side)...)
	}

	if deadline || len(vote.Votes) == size {
		team.QuitVote = nil
		return []Event{{
			Type:     EvtQuitVoteResult,
			Audience: Audience{Team: team.Side},
			Payload:  QuitVoteResultPayload{TeamID: team.ID, Result: VoteStay},
		}}
	}
	return nil
}
