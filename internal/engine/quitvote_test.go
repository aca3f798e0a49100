package engine

import (
	"errors"
	"testing"
)

func TestOnlyLeaderInitiatesQuitVote(t *testing.T) {
	s := newActiveState(t)

	_, err := Apply(s, Command{Type: CmdInitiateQuitVote, UserID: "h2"})
	if !errors.Is(err, ErrNotLeader) {
		t.Fatalf("want ErrNotLeader, got %v", err)
	}

	events := mustApply(t, s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	if !ContainsEvent(events, EvtQuitVoteStarted) {
		t.Fatalf("expected quit_vote_started, got %+v", events)
	}
	for _, ev := range events {
		if ev.Type == EvtQuitVoteStarted && ev.Audience.Team != SideHome {
			t.Fatalf("quit_vote_started must stay team-scoped, got %+v", ev.Audience)
		}
	}

	vote := s.Teams[SideHome].QuitVote
	if vote == nil || vote.Votes["h1"] != VoteYes {
		t.Fatalf("initiator should be seeded as a yes vote: %+v", vote)
	}

	_, err = Apply(s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	if !errors.Is(err, ErrVoteInProgress) {
		t.Fatalf("want ErrVoteInProgress, got %v", err)
	}
}

func TestDuplicateVoteIsIgnored(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h2", Vote: VoteYes})

	events := mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h2", Vote: VoteYes})
	if len(events) != 0 {
		t.Fatalf("repeat vote should be a no-op, got %+v", events)
	}
	yes, _ := tallyVotes(s.Teams[SideHome].QuitVote)
	if yes != 2 {
		t.Fatalf("tally changed by duplicate vote: yes=%d", yes)
	}
}

func TestStrictMajorityResolvesQuitImmediately(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h2", Vote: VoteYes})

	// Third yes out of five: strictly more than half, no need to wait
	// for the timer.
	events := mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h3", Vote: VoteYes})
	if !ContainsEvent(events, EvtQuitVoteResult) {
		t.Fatalf("expected quit_vote_result, got %+v", events)
	}
	if !ContainsEvent(events, EvtTeamForfeit) || !ContainsEvent(events, EvtMatchEnd) {
		t.Fatalf("forfeit must end the match for everyone, got %+v", events)
	}
	for _, ev := range events {
		if ev.Type == EvtTeamForfeit && ev.Audience != (Audience{}) {
			t.Fatalf("team_forfeit goes to all participants, got %+v", ev.Audience)
		}
	}

	if s.Phase != PhasePostMatch || s.Winner != SideAway || s.EndReason != EndForfeit {
		t.Fatalf("forfeit outcome wrong: phase=%v winner=%v reason=%v", s.Phase, s.Winner, s.EndReason)
	}
}

func TestForfeitWinnerOverridesScore(t *testing.T) {
	s := newActiveState(t)
	// The forfeiting team is ahead on points; the opponent still wins.
	s.Teams[SideHome].Score = 900
	mustApply(t, s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h2", Vote: VoteYes})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h3", Vote: VoteYes})

	if s.Winner != SideAway || s.Draw {
		t.Fatalf("forfeit must hand the win to the opponent, got %v", s.Winner)
	}
}

func TestVoteResolvesStayWhenAllVotedWithoutMajority(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h2", Vote: VoteNo})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h3", Vote: VoteNo})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h4", Vote: VoteNo})

	events := mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h5", Vote: VoteNo})
	found := false
	for _, ev := range events {
		if ev.Type == EvtQuitVoteResult {
			found = true
			if ev.Payload.(QuitVoteResultPayload).Result != VoteStay {
				t.Fatalf("want stay, got %+v", ev.Payload)
			}
		}
	}
	if !found {
		t.Fatalf("expected quit_vote_result, got %+v", events)
	}
	if s.Phase != PhaseActive {
		t.Fatalf("stay must not end the match, got %v", s.Phase)
	}

	// Vote state is cleared; a new vote may start later.
	if s.Teams[SideHome].QuitVote != nil {
		t.Fatalf("vote state not cleared after stay")
	}
	if _, err := Apply(s, Command{Type: CmdInitiateQuitVote, UserID: "h1"}); err != nil {
		t.Fatalf("new vote should be allowed after stay: %v", err)
	}
}

func TestVoteTimeoutResolvesStayWithAbstentions(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	mustApply(t, s, Command{Type: CmdCastQuitVote, UserID: "h2", Vote: VoteYes})
	// 2 yes of 5 with three abstentions: abstaining counts toward stay.

	events := mustApply(t, s, Command{Type: CmdTick, ElapsedMs: s.Rules.QuitVoteMs})
	found := false
	for _, ev := range events {
		if ev.Type == EvtQuitVoteResult {
			found = true
			if ev.Payload.(QuitVoteResultPayload).Result != VoteStay {
				t.Fatalf("abstentions at deadline resolve stay, got %+v", ev.Payload)
			}
		}
	}
	if !found {
		t.Fatalf("expected quit_vote_result at deadline, got %+v", events)
	}
	if s.Phase == PhasePostMatch {
		t.Fatalf("stay must not end the match")
	}
}

func TestOpponentCannotVoteOnHomeQuitVote(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})

	_, err := Apply(s, Command{Type: CmdCastQuitVote, UserID: "a2", Vote: VoteYes})
	if !errors.Is(err, ErrNoVoteActive) {
		t.Fatalf("want ErrNoVoteActive for opponent, got %v", err)
	}
}

func TestQuitVoteRejectedInPreMatch(t *testing.T) {
	s := NewState("m1", testSetup(), 7)
	_, err := Apply(s, Command{Type: CmdInitiateQuitVote, UserID: "h1"})
	if !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("want ErrWrongPhase, got %v", err)
	}
}
