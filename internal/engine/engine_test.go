package engine

import (
	"errors"
	"strconv"
	"testing"
)

func testSetup() MatchSetup {
	return MatchSetup{
		Home: TeamSetup{
			ID: "team-home", Name: "Prime Factors", Tag: "PRM", LeaderID: "h1",
			Players: []PlayerSetup{
				{ID: "h1", Name: "Hana", Slot: OpAddition, IsIGL: true},
				{ID: "h2", Name: "Hugo", Slot: OpSubtraction},
				{ID: "h3", Name: "Holly", Slot: OpMultiplication},
				{ID: "h4", Name: "Hiro", Slot: OpDivision},
				{ID: "h5", Name: "Heath", Slot: OpMixed, IsAnchor: true},
			},
		},
		Away: TeamSetup{
			ID: "team-away", Name: "Long Division", Tag: "DIV", LeaderID: "a1",
			Players: []PlayerSetup{
				{ID: "a1", Name: "Ava", Slot: OpAddition, IsIGL: true},
				{ID: "a2", Name: "Axel", Slot: OpSubtraction},
				{ID: "a3", Name: "Alba", Slot: OpMultiplication},
				{ID: "a4", Name: "Amir", Slot: OpDivision},
				{ID: "a5", Name: "Anya", Slot: OpMixed, IsAnchor: true},
			},
		},
	}
}

var allPlayers = []string{"h1", "h2", "h3", "h4", "h5", "a1", "a2", "a3", "a4", "a5"}

func mustApply(t *testing.T, s *State, cmd Command) []Event {
	t.Helper()
	events, err := Apply(s, cmd)
	if err != nil {
		t.Fatalf("Apply(%s): unexpected err %v", cmd.Type, err)
	}
	return events
}

func connectAll(t *testing.T, s *State) {
	t.Helper()
	for _, id := range allPlayers {
		mustApply(t, s, Command{Type: CmdPlayerConnected, UserID: id})
	}
}

func newStrategyState(t *testing.T) *State {
	t.Helper()
	s := NewState("m1", testSetup(), 7)
	connectAll(t, s)
	if s.Phase != PhaseStrategy {
		t.Fatalf("want strategy after full presence, got %v", s.Phase)
	}
	return s
}

func newActiveState(t *testing.T) *State {
	t.Helper()
	s := newStrategyState(t)
	mustApply(t, s, Command{Type: CmdConfirmSlots, UserID: "h1"})
	mustApply(t, s, Command{Type: CmdConfirmSlots, UserID: "a1"})
	if s.Phase != PhaseActive {
		t.Fatalf("want active after both confirms, got %v", s.Phase)
	}
	return s
}

// answerAs submits an answer for the given player; correct controls whether
// it matches the outstanding question.
func answerAs(t *testing.T, s *State, userID string, correct bool) []Event {
	t.Helper()
	team, ok := s.TeamOf(userID)
	if !ok {
		t.Fatalf("unknown player %s", userID)
	}
	q := team.Players[userID].CurrentQuestion
	if q == nil {
		t.Fatalf("player %s has no question", userID)
	}
	answer := q.Answer
	if !correct {
		answer++
	}
	return mustApply(t, s, Command{Type: CmdSubmitAnswer, UserID: userID, Answer: strconv.Itoa(answer)})
}

// completeRelay answers correctly for a team until its relay is done,
// returning every event emitted along the way.
func completeRelay(t *testing.T, s *State, side Side) []Event {
	t.Helper()
	team := s.Teams[side]
	var events []Event
	for !team.RelayComplete && s.Phase == PhaseActive {
		p := team.ActivePlayer()
		if p == nil {
			t.Fatalf("no active player on %s mid-relay (slot %d)", side, team.CurrentSlot)
		}
		events = append(events, answerAs(t, s, p.ID, true)...)
	}
	return events
}

func TestPreMatchIsBarrierUntilFullPresence(t *testing.T) {
	s := NewState("m1", testSetup(), 7)
	for _, id := range allPlayers[:9] {
		mustApply(t, s, Command{Type: CmdPlayerConnected, UserID: id})
	}
	if s.Phase != PhasePreMatch {
		t.Fatalf("9/10 connected: want pre_match, got %v", s.Phase)
	}

	events := mustApply(t, s, Command{Type: CmdPlayerConnected, UserID: "a5"})
	if s.Phase != PhaseStrategy {
		t.Fatalf("10/10 connected: want strategy, got %v", s.Phase)
	}
	if !ContainsEvent(events, EvtStrategyPhaseStart) {
		t.Fatalf("expected strategy_phase_start, got %+v", events)
	}
}

func TestAIMatchReleasesBarrierEarly(t *testing.T) {
	setup := testSetup()
	setup.AIMatch = true
	// Two AI fill-ins on home, casual mode.
	setup.Home.Players[3].IsAI = true
	setup.Home.Players[4].IsAI = true

	s := NewState("m1", setup, 7)
	_, err := Apply(s, Command{Type: CmdPlayerConnected, UserID: "h1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Phase != PhaseStrategy {
		t.Fatalf("AI match: want strategy on first connect, got %v", s.Phase)
	}
}

func TestStrategyPhaseStartIsTeamScoped(t *testing.T) {
	s := NewState("m1", testSetup(), 7)
	var events []Event
	for _, id := range allPlayers {
		evs := mustApply(t, s, Command{Type: CmdPlayerConnected, UserID: id})
		events = append(events, evs...)
	}

	var audiences []Side
	for _, ev := range events {
		if ev.Type == EvtStrategyPhaseStart {
			audiences = append(audiences, ev.Audience.Team)
		}
	}
	if len(audiences) != 2 || audiences[0] == audiences[1] {
		t.Fatalf("want one team-scoped strategy_phase_start per team, got %v", audiences)
	}
}

func TestIllegalActionsPerPhase(t *testing.T) {
	cases := []struct {
		name    string
		prep    func(t *testing.T) *State
		cmd     Command
		wantErr error
	}{
		{
			name:    "answer before match start",
			prep:    newStrategyState,
			cmd:     Command{Type: CmdSubmitAnswer, UserID: "h1", Answer: "42"},
			wantErr: ErrWrongPhase,
		},
		{
			name:    "slot reassignment outside strategy",
			prep:    newActiveState,
			cmd:     Command{Type: CmdUpdateSlotAssignment, UserID: "h1", PlayerID: "h2", Slot: OpDivision},
			wantErr: ErrWrongPhase,
		},
		{
			name:    "confirm by non-IGL",
			prep:    newStrategyState,
			cmd:     Command{Type: CmdConfirmSlots, UserID: "h2"},
			wantErr: ErrNotIGL,
		},
		{
			name:    "timeout outside break",
			prep:    newActiveState,
			cmd:     Command{Type: CmdIGLTimeout, UserID: "h1"},
			wantErr: ErrWrongPhase,
		},
		{
			name:    "typing from benched teammate",
			prep:    newActiveState,
			cmd:     Command{Type: CmdTypingUpdate, UserID: "h3", Input: "12"},
			wantErr: ErrNotActivePlayer,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.prep(t)
			before := s.Teams[SideHome].Score
			_, err := Apply(s, tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if s.Teams[SideHome].Score != before {
				t.Fatalf("rejected command mutated state")
			}
		})
	}
}

func TestStrategyReassignAndConfirmFlow(t *testing.T) {
	s := newStrategyState(t)

	// IGL moves Holly onto division; Hiro inherits multiplication.
	events := mustApply(t, s, Command{Type: CmdUpdateSlotAssignment, UserID: "h1", PlayerID: "h3", Slot: OpDivision})
	if !ContainsEvent(events, EvtSlotAssignmentsUpdated) {
		t.Fatalf("expected slot_assignments_updated")
	}
	prop := s.Strategy.Proposals[SideHome]
	if prop[OpDivision] != "h3" || prop[OpMultiplication] != "h4" {
		t.Fatalf("swap not applied: %+v", prop)
	}

	events = mustApply(t, s, Command{Type: CmdConfirmSlots, UserID: "h1"})
	if !ContainsEvent(events, EvtTeamReady) {
		t.Fatalf("expected team_ready")
	}
	if !s.Teams[SideHome].Ready {
		t.Fatalf("home not marked ready")
	}

	events = mustApply(t, s, Command{Type: CmdConfirmSlots, UserID: "a1"})
	if !ContainsEvent(events, EvtMatchStart) {
		t.Fatalf("expected match_start once both teams ready")
	}
	for side, team := range s.Teams {
		if team.CurrentSlot != 1 {
			t.Fatalf("%s currentSlot: want 1, got %d", side, team.CurrentSlot)
		}
	}
	if s.Teams[SideHome].SlotAssignments[OpDivision] != "h3" {
		t.Fatalf("confirmed proposal not committed")
	}
	if s.Teams[SideHome].Players["h3"].Slot != OpDivision {
		t.Fatalf("player slot not updated from proposal")
	}
}

func TestConfirmSlotsIsIdempotent(t *testing.T) {
	s := newStrategyState(t)
	mustApply(t, s, Command{Type: CmdConfirmSlots, UserID: "h1"})
	events := mustApply(t, s, Command{Type: CmdConfirmSlots, UserID: "h1"})
	if len(events) != 0 {
		t.Fatalf("second confirm should be a no-op, got %+v", events)
	}
}

func TestCommandsRejectedAfterPostMatch(t *testing.T) {
	s := newActiveState(t)
	s.GameClockMs = 100
	mustApply(t, s, Command{Type: CmdTick, ElapsedMs: 1000})
	if s.Phase != PhasePostMatch {
		t.Fatalf("want post_match, got %v", s.Phase)
	}

	_, err := Apply(s, Command{Type: CmdSubmitAnswer, UserID: "h1", Answer: "1"})
	if !errors.Is(err, ErrMatchCompleted) {
		t.Fatalf("want ErrMatchCompleted, got %v", err)
	}

	// Ticks and presence churn during the grace period stay silent.
	events := mustApply(t, s, Command{Type: CmdTick, ElapsedMs: 1000})
	if len(events) != 0 {
		t.Fatalf("tick after post_match emitted events: %+v", events)
	}
}
