package engine

type EventType string

const (
	EvtStrategyPhaseStart     EventType = "strategy_phase_start"
	EvtStrategyTimeUpdate     EventType = "strategy_time_update"
	EvtSlotAssignmentsUpdated EventType = "slot_assignments_updated"
	EvtTeamReady              EventType = "team_ready"
	EvtMatchStart             EventType = "match_start"
	EvtQuestionUpdate         EventType = "question_update"
	EvtTypingUpdate           EventType = "typing_update"
	EvtAnswerResult           EventType = "answer_result"
	EvtTeammateAnswer         EventType = "teammate_answer"
	EvtSlotChange             EventType = "slot_change"
	EvtHandoffCountdown       EventType = "handoff_countdown"
	EvtRoundBreak             EventType = "round_break"
	EvtTimeoutCalled          EventType = "timeout_called"
	EvtHalftime               EventType = "halftime"
	EvtDoubleCallInActivated  EventType = "double_callin_activated"
	EvtDoubleCallInSuccess    EventType = "double_callin_success"
	EvtRoundStart             EventType = "round_start"
	EvtClockUpdate            EventType = "clock_update"
	EvtMatchEnd               EventType = "match_end"
	EvtQuitVoteStarted        EventType = "quit_vote_started"
	EvtQuitVoteUpdate         EventType = "quit_vote_update"
	EvtQuitVoteResult         EventType = "quit_vote_result"
	EvtTeamForfeit            EventType = "team_forfeit"
)

// Audience restricts delivery of an event. The zero value means every client
// in the match room. Team narrows to one team's clients; UserID narrows to a
// single user; ExcludeUserID drops one user from a team-wide delivery.
type Audience struct {
	Team          Side
	UserID        string
	ExcludeUserID string
}

// Event is a discrete occurrence to fan out, distinct from the passive
// match_state snapshots the room sends after every mutation.
type Event struct {
	Type     EventType
	Audience Audience
	Payload  any
}

type StrategyPhaseStartPayload struct {
	RemainingMs      int                  `json:"remainingMs"`
	OwnProposal      map[Operation]string `json:"ownProposal"`
	OpponentProposal map[Operation]string `json:"opponentProposal"`
}

type StrategyTimeUpdatePayload struct {
	RemainingMs int `json:"remainingMs"`
}

type SlotAssignmentsPayload struct {
	TeamID      string               `json:"teamId"`
	Assignments map[Operation]string `json:"assignments"`
}

type TeamReadyPayload struct {
	TeamID string `json:"teamId"`
}

type MatchStartPayload struct {
	GameClockMs  int `json:"gameClockMs"`
	RelayClockMs int `json:"relayClockMs"`
}

type QuestionUpdatePayload struct {
	TeamID   string   `json:"teamId"`
	UserID   string   `json:"userId"`
	Question Question `json:"question"`
}

type TypingUpdatePayload struct {
	TeamID       string `json:"teamId"`
	UserID       string `json:"userId"`
	CurrentInput string `json:"currentInput"`
}

type AnswerResultPayload struct {
	UserID  string `json:"userId"`
	Correct bool   `json:"correct"`
	Points  int    `json:"points"`
	Streak  int    `json:"streak"`
	Answer  string `json:"answer"`
}

type TeammateAnswerPayload struct {
	TeamID   string `json:"teamId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Correct  bool   `json:"correct"`
	Points   int    `json:"points"`
}

type SlotChangePayload struct {
	TeamID        string    `json:"teamId"`
	Slot          int       `json:"slot"`
	Operation     Operation `json:"operation,omitempty"`
	PlayerID      string    `json:"playerId,omitempty"`
	RelayComplete bool      `json:"relayComplete,omitempty"`
}

type HandoffCountdownPayload struct {
	TeamID     string `json:"teamId"`
	PlayerID   string `json:"playerId"`
	DurationMs int    `json:"durationMs"`
}

type RoundBreakPayload struct {
	Round   int `json:"round"`
	BreakMs int `json:"breakMs"`
}

type TimeoutCalledPayload struct {
	TeamID string `json:"teamId"`
	// Both forms are sent so clients can apply whichever they track.
	NewBreakDurationMs int `json:"newBreakDurationMs"`
	ExtensionMs        int `json:"extensionMs"`
	TimeoutsRemaining  int `json:"timeoutsRemaining"`
}

type HalftimePayload struct {
	HalftimeMs int `json:"halftimeMs"`
	HomeScore  int `json:"homeScore"`
	AwayScore  int `json:"awayScore"`
}

type DoubleCallInActivatedPayload struct {
	TeamID     string    `json:"teamId"`
	AnchorID   string    `json:"anchorId"`
	TargetSlot Operation `json:"targetSlot"`
	BenchedID  string    `json:"benchedId"`
	Round      int       `json:"round"`
}

type DoubleCallInSuccessPayload struct {
	TargetSlot Operation `json:"targetSlot"`
	Half       int       `json:"half"`
}

type RoundStartPayload struct {
	Round        int `json:"round"`
	Half         int `json:"half"`
	RelayClockMs int `json:"relayClockMs"`
}

type ClockUpdatePayload struct {
	GameClockMs  int `json:"gameClockMs"`
	RelayClockMs int `json:"relayClockMs"`
}

type MatchEndPayload struct {
	Reason       EndReason `json:"reason"`
	WinnerTeamID string    `json:"winnerTeamId,omitempty"`
	Draw         bool      `json:"draw,omitempty"`
	HomeScore    int       `json:"homeScore"`
	AwayScore    int       `json:"awayScore"`
}

type QuitVoteStartedPayload struct {
	TeamID        string `json:"teamId"`
	InitiatorID   string `json:"initiatorId"`
	InitiatorName string `json:"initiatorName"`
	ExpiresInMs   int    `json:"expiresInMs"`
}

type QuitVoteUpdatePayload struct {
	TeamID   string `json:"teamId"`
	YesVotes int    `json:"yesVotes"`
	NoVotes  int    `json:"noVotes"`
	TeamSize int    `json:"teamSize"`
}

type QuitVoteResultPayload struct {
	TeamID string     `json:"teamId"`
	Result VoteResult `json:"result"`
}

type TeamForfeitPayload struct {
	TeamID       string `json:"teamId"`
	WinnerTeamID string `json:"winnerTeamId"`
}

// ContainsEvent reports whether events holds an event of the given type.
func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
