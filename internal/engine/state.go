package engine

import (
	"math/rand"
)

type Phase string

const (
	PhasePreMatch  Phase = "pre_match"
	PhaseStrategy  Phase = "strategy"
	PhaseActive    Phase = "active"
	PhaseBreak     Phase = "break"
	PhaseHalftime  Phase = "halftime"
	PhasePostMatch Phase = "post_match"
)

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func (s Side) Opponent() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

type Operation string

const (
	OpAddition       Operation = "addition"
	OpSubtraction    Operation = "subtraction"
	OpMultiplication Operation = "multiplication"
	OpDivision       Operation = "division"
	OpMixed          Operation = "mixed"
)

// SlotOrder is the fixed relay order each team progresses through per round.
var SlotOrder = [5]Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision, OpMixed}

// SlotOf returns the 1-based slot index for an operation, 0 if unknown.
func SlotOf(op Operation) int {
	for i, o := range SlotOrder {
		if o == op {
			return i + 1
		}
	}
	return 0
}

type Question struct {
	Prompt    string    `json:"prompt"`
	Operation Operation `json:"operation"`
	Answer    int       `json:"-"`
}

type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Level      int       `json:"level"`
	Frame      string    `json:"frame,omitempty"`
	Slot       Operation `json:"slot"`
	Score      int       `json:"score"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Streak     int       `json:"streak"`
	MaxStreak  int       `json:"maxStreak"`
	IsActive   bool      `json:"isActive"`
	IsComplete bool      `json:"isComplete"`
	IsIGL      bool      `json:"isIgl"`
	IsAnchor   bool      `json:"isAnchor"`
	IsAI       bool      `json:"isAi,omitempty"`
	Connected  bool      `json:"connected"`
	Benched    bool      `json:"benched,omitempty"`

	CurrentQuestion *Question `json:"currentQuestion,omitempty"`

	aiDelayMs int
}

type VoteChoice string

const (
	VoteYes VoteChoice = "yes"
	VoteNo  VoteChoice = "no"
)

type VoteResult string

const (
	VoteQuit VoteResult = "quit"
	VoteStay VoteResult = "stay"
)

// QuitVote is team-scoped and ephemeral; nil when no vote is running.
type QuitVote struct {
	InitiatorID   string                `json:"initiatorId"`
	InitiatorName string                `json:"initiatorName"`
	Votes         map[string]VoteChoice `json:"votes"`
	RemainingMs   int                   `json:"remainingMs"`
}

// CallIn records a pending or active Double Call-In: the anchor covers
// TargetSlot for one round, benching BenchedID.
type CallIn struct {
	TargetSlot Operation `json:"targetSlot"`
	BenchedID  string    `json:"benchedId"`
}

type Team struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Tag      string `json:"tag,omitempty"`
	Side     Side   `json:"side"`
	LeaderID string `json:"leaderId"`

	Score         int `json:"score"`
	CurrentStreak int `json:"currentStreak"`

	SlotAssignments map[Operation]string `json:"slotAssignments"`
	CurrentSlot     int                  `json:"currentSlot"`
	QuestionsInSlot int                  `json:"questionsInSlot"`
	RelayComplete   bool                 `json:"relayComplete"`

	TimeoutsUsed     int       `json:"timeoutsUsed"`
	CallInUsedHalf1  bool      `json:"callInUsedHalf1"`
	CallInUsedHalf2  bool      `json:"callInUsedHalf2"`
	AnchorSoloUsed   bool      `json:"anchorSoloUsed"`
	AnchorSoloActive bool      `json:"anchorSoloActive"`
	PendingCallIn    *CallIn   `json:"pendingCallIn,omitempty"`
	ActiveCallIn     *CallIn   `json:"activeCallIn,omitempty"`
	QuitVote         *QuitVote `json:"quitVote,omitempty"`

	Ready bool `json:"ready"`

	Players map[string]*Player `json:"players"`
}

// IGL returns the team's in-game leader, nil if unassigned.
func (t *Team) IGL() *Player {
	for _, p := range t.Players {
		if p.IsIGL {
			return p
		}
	}
	return nil
}

// Anchor returns the team's anchor, nil if unassigned.
func (t *Team) Anchor() *Player {
	for _, p := range t.Players {
		if p.IsAnchor {
			return p
		}
	}
	return nil
}

// ActivePlayer returns the player currently on the clock, nil outside the
// active phase or during a scheduling transition.
func (t *Team) ActivePlayer() *Player {
	for _, p := range t.Players {
		if p.IsActive {
			return p
		}
	}
	return nil
}

// CallInUsed reports whether the Double Call-In budget for the given half is spent.
func (t *Team) CallInUsed(half int) bool {
	if half == 1 {
		return t.CallInUsedHalf1
	}
	return t.CallInUsedHalf2
}

func (t *Team) markCallInUsed(half int) {
	if half == 1 {
		t.CallInUsedHalf1 = true
	} else {
		t.CallInUsedHalf2 = true
	}
}

// StrategyState holds per-team slot proposals during the strategy phase.
// Replaced entirely once both teams confirm or the timer elapses.
type StrategyState struct {
	RemainingMs int                           `json:"remainingMs"`
	Proposals   map[Side]map[Operation]string `json:"proposals"`
}

type EndReason string

const (
	EndClockExpired    EndReason = "clock_expired"
	EndRoundsComplete  EndReason = "rounds_complete"
	EndForfeit         EndReason = "forfeit"
	EndPresenceTimeout EndReason = "presence_timeout"
)

type Rules struct {
	RoundsPerHalf      int `json:"roundsPerHalf"`
	QuestionsPerSlot   int `json:"questionsPerSlot"`
	GameClockMs        int `json:"gameClockMs"`
	RelayClockMs       int `json:"relayClockMs"`
	BreakMs            int `json:"breakMs"`
	HalftimeMs         int `json:"halftimeMs"`
	StrategyMs         int `json:"strategyMs"`
	QuitVoteMs         int `json:"quitVoteMs"`
	PreMatchMs         int `json:"preMatchMs"`
	HandoffMs          int `json:"handoffMs"`
	TimeoutExtensionMs int `json:"timeoutExtensionMs"`
	TimeoutsPerMatch   int `json:"timeoutsPerMatch"`
	AnchorSoloMinRound int `json:"anchorSoloMinRound"`
}

func DefaultRules() Rules {
	return Rules{
		RoundsPerHalf:      2,
		QuestionsPerSlot:   5,
		GameClockMs:        10 * 60 * 1000,
		RelayClockMs:       2 * 60 * 1000,
		BreakMs:            20 * 1000,
		HalftimeMs:         60 * 1000,
		StrategyMs:         60 * 1000,
		QuitVoteMs:         30 * 1000,
		PreMatchMs:         120 * 1000,
		HandoffMs:          3 * 1000,
		TimeoutExtensionMs: 30 * 1000,
		TimeoutsPerMatch:   2,
		AnchorSoloMinRound: 4,
	}
}

// State is the authoritative representation of one match. Owned exclusively
// by the match's room actor; Apply is the only mutation path.
type State struct {
	MatchID string `json:"matchId"`
	Phase   Phase  `json:"phase"`
	Round   int    `json:"round"` // 1..2*RoundsPerHalf, numbered across halves
	Half    int    `json:"half"`  // 1 or 2

	GameClockMs  int `json:"gameClockMs"`
	RelayClockMs int `json:"relayClockMs"`
	BreakMs      int `json:"breakMs"`    // remaining break/halftime countdown
	PreMatchMs   int `json:"preMatchMs"` // remaining pre-match presence budget

	Teams map[Side]*Team `json:"teams"`

	Strategy *StrategyState `json:"strategy,omitempty"`

	AIMatch bool `json:"aiMatch"`

	Winner    Side      `json:"winner,omitempty"` // empty on draw or before post_match
	Draw      bool      `json:"draw,omitempty"`
	EndReason EndReason `json:"endReason,omitempty"`

	Rules Rules `json:"rules"`

	rng *rand.Rand
}

// PlayerSetup and friends carry the matchmaking hand-off payload.
type PlayerSetup struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Level    int       `json:"level"`
	Frame    string    `json:"frame"`
	Slot     Operation `json:"slot"`
	IsIGL    bool      `json:"isIgl"`
	IsAnchor bool      `json:"isAnchor"`
	IsAI     bool      `json:"isAi"`
}

type TeamSetup struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Tag      string        `json:"tag"`
	LeaderID string        `json:"leaderId"`
	Players  []PlayerSetup `json:"players"`
}

type MatchSetup struct {
	Home    TeamSetup `json:"home"`
	Away    TeamSetup `json:"away"`
	AIMatch bool      `json:"aiMatch"`
	Rules   *Rules    `json:"rules,omitempty"`
}

// NewState builds the pre_match state for an assigned match. The seed makes
// question generation reproducible in tests.
func NewState(matchID string, setup MatchSetup, seed int64) *State {
	rules := DefaultRules()
	if setup.Rules != nil {
		rules = *setup.Rules
	}

	s := &State{
		MatchID:      matchID,
		Phase:        PhasePreMatch,
		Round:        0,
		Half:         1,
		GameClockMs:  rules.GameClockMs,
		RelayClockMs: rules.RelayClockMs,
		PreMatchMs:   rules.PreMatchMs,
		AIMatch:      setup.AIMatch,
		Rules:        rules,
		Teams: map[Side]*Team{
			SideHome: newTeam(setup.Home, SideHome),
			SideAway: newTeam(setup.Away, SideAway),
		},
		rng: rand.New(rand.NewSource(seed)),
	}
	return s
}

func newTeam(setup TeamSetup, side Side) *Team {
	t := &Team{
		ID:              setup.ID,
		Name:            setup.Name,
		Tag:             setup.Tag,
		Side:            side,
		LeaderID:        setup.LeaderID,
		CurrentSlot:     1,
		SlotAssignments: make(map[Operation]string, len(SlotOrder)),
		Players:         make(map[string]*Player, len(setup.Players)),
	}
	for _, ps := range setup.Players {
		p := &Player{
			ID:        ps.ID,
			Name:      ps.Name,
			Level:     ps.Level,
			Frame:     ps.Frame,
			Slot:      ps.Slot,
			IsIGL:     ps.IsIGL,
			IsAnchor:  ps.IsAnchor,
			IsAI:      ps.IsAI,
			Connected: ps.IsAI, // AI seats count as present at the barrier
		}
		t.Players[p.ID] = p
		if p.Slot != "" {
			t.SlotAssignments[p.Slot] = p.ID
		}
	}
	return t
}

// TeamOf finds the team a user belongs to.
func (s *State) TeamOf(userID string) (*Team, bool) {
	for _, t := range s.Teams {
		if _, ok := t.Players[userID]; ok {
			return t, true
		}
	}
	return nil, false
}

// Terminal reports whether the match has reached its single terminal state.
func (s *State) Terminal() bool { return s.Phase == PhasePostMatch }

// TotalRounds is the number of rounds across both halves.
func (s *State) TotalRounds() int { return 2 * s.Rules.RoundsPerHalf }

func (s *State) allConnected() bool {
	for _, t := range s.Teams {
		for _, p := range t.Players {
			if !p.Connected && !p.IsAI {
				return false
			}
		}
	}
	return true
}
