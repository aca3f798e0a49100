package engine

import (
	"errors"
)

var ErrWrongPhase = errors.New("action not legal in current phase")
var ErrMatchCompleted = errors.New("match already completed")
var ErrUnknownPlayer = errors.New("player not in this match")
var ErrNotIGL = errors.New("requires the in-game leader")
var ErrNotAnchor = errors.New("requires the anchor")
var ErrNotLeader = errors.New("requires the team leader")
var ErrNotActivePlayer = errors.New("player is not on the clock")
var ErrIllegalSlot = errors.New("illegal slot for this action")
var ErrBudgetExhausted = errors.New("ability budget exhausted")
var ErrStaleHalf = errors.New("half does not match authoritative state")
var ErrRoundLocked = errors.New("ability not available this round")
var ErrVoteInProgress = errors.New("quit vote already active")
var ErrNoVoteActive = errors.New("no quit vote active")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdPlayerConnected      CommandType = "PlayerConnected"
	CmdPlayerDisconnected   CommandType = "PlayerDisconnected"
	CmdUpdateSlotAssignment CommandType = "UpdateSlotAssignment"
	CmdConfirmSlots         CommandType = "ConfirmSlots"
	CmdSubmitAnswer         CommandType = "SubmitAnswer"
	CmdTypingUpdate         CommandType = "TypingUpdate"
	CmdAnchorCallIn         CommandType = "AnchorCallIn"
	CmdAnchorSolo           CommandType = "AnchorSolo"
	CmdIGLTimeout           CommandType = "IGLTimeout"
	CmdInitiateQuitVote     CommandType = "InitiateQuitVote"
	CmdCastQuitVote         CommandType = "CastQuitVote"
	CmdTick                 CommandType = "Tick"
)

type Command struct {
	Type      CommandType
	UserID    string
	PlayerID  string     // UpdateSlotAssignment target
	Slot      Operation  // UpdateSlotAssignment new slot / AnchorCallIn target slot
	Answer    string     // SubmitAnswer
	Input     string     // TypingUpdate
	Half      int        // AnchorCallIn client-claimed half, checked against state
	Vote      VoteChoice // CastQuitVote
	ElapsedMs int        // Tick
}

// Apply validates cmd against the current state, mutates the state on success
// and returns the discrete events to broadcast. On error the state is
// untouched; nothing may be broadcast except an error echo to the sender.
func Apply(s *State, cmd Command) ([]Event, error) {
	if s.Terminal() {
		switch cmd.Type {
		case CmdTick, CmdPlayerConnected, CmdPlayerDisconnected:
			// Terminal state is idempotent: ticks and presence churn during
			// the grace period are no-ops, not errors.
			return nil, nil
		default:
			return nil, ErrMatchCompleted
		}
	}

	switch cmd.Type {
	case CmdPlayerConnected:
		return applyConnected(s, cmd)
	case CmdPlayerDisconnected:
		return applyDisconnected(s, cmd)
	case CmdUpdateSlotAssignment:
		return applyUpdateSlotAssignment(s, cmd)
	case CmdConfirmSlots:
		return applyConfirmSlots(s, cmd)
	case CmdSubmitAnswer:
		return applySubmitAnswer(s, cmd)
	case CmdTypingUpdate:
		return applyTypingUpdate(s, cmd)
	case CmdAnchorCallIn:
		return applyAnchorCallIn(s, cmd)
	case CmdAnchorSolo:
		return applyAnchorSolo(s, cmd)
	case CmdIGLTimeout:
		return applyIGLTimeout(s, cmd)
	case CmdInitiateQuitVote:
		return applyInitiateQuitVote(s, cmd)
	case CmdCastQuitVote:
		return applyCastQuitVote(s, cmd)
	case CmdTick:
		return applyTick(s, cmd.ElapsedMs)
	default:
		return nil, ErrUnsupportedCommand
	}
}

func applyConnected(s *State, cmd Command) ([]Event, error) {
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		// Spectators hold no seat; nothing to record.
		return nil, nil
	}
	team.Players[cmd.UserID].Connected = true

	// pre_match is a barrier: full presence (or AI fill) releases it.
	if s.Phase == PhasePreMatch && (s.AIMatch || s.allConnected()) {
		return beginStrategy(s), nil
	}
	return nil, nil
}

func applyDisconnected(s *State, cmd Command) ([]Event, error) {
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, nil
	}
	// Clocks keep running; the seat stays assigned for reconnection.
	team.Players[cmd.UserID].Connected = false
	return nil, nil
}

func beginStrategy(s *State) []Event {
	s.Phase = PhaseStrategy
	s.Strategy = &StrategyState{
		RemainingMs: s.Rules.StrategyMs,
		Proposals:   make(map[Side]map[Operation]string, 2),
	}
	for side, t := range s.Teams {
		prop := make(map[Operation]string, len(SlotOrder))
		for op, pid := range t.SlotAssignments {
			prop[op] = pid
		}
		s.Strategy.Proposals[side] = prop
	}

	events := make([]Event, 0, 2)
	for side := range s.Teams {
		events = append(events, Event{
			Type:     EvtStrategyPhaseStart,
			Audience: Audience{Team: side},
			Payload: StrategyPhaseStartPayload{
				RemainingMs:      s.Strategy.RemainingMs,
				OwnProposal:      s.Strategy.Proposals[side],
				OpponentProposal: s.Strategy.Proposals[side.Opponent()],
			},
		})
	}
	return events
}

func applyUpdateSlotAssignment(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseStrategy {
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
	target, ok := team.Players[cmd.PlayerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if SlotOf(cmd.Slot) == 0 {
		return nil, ErrIllegalSlot
	}

	prop := s.Strategy.Proposals[team.Side]

	// Swap: whoever held the target slot inherits the moved player's old slot.
	oldSlot := slotHeldBy(prop, target.ID)
	if displaced, held := prop[cmd.Slot]; held && displaced != target.ID && oldSlot != "" {
		prop[oldSlot] = displaced
	} else if oldSlot != "" {
		delete(prop, oldSlot)
	}
	prop[cmd.Slot] = target.ID

	return []Event{{
		Type:     EvtSlotAssignmentsUpdated,
		Audience: Audience{Team: team.Side},
		Payload: SlotAssignmentsPayload{
			TeamID:      team.ID,
			Assignments: prop,
		},
	}}, nil
}

func slotHeldBy(assignments map[Operation]string, playerID string) Operation {
	for op, pid := range assignments {
		if pid == playerID {
			return op
		}
	}
	return ""
}

func applyConfirmSlots(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseStrategy {
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
	if team.Ready {
		return nil, nil // confirm is idempotent
	}
	team.Ready = true

	events := []Event{{
		Type:    EvtTeamReady,
		Payload: TeamReadyPayload{TeamID: team.ID},
	}}

	if s.Teams[team.Side.Opponent()].Ready {
		events = append(events, startMatch(s)...)
	}
	return events, nil
}

// startMatch commits the strategy proposals and opens round 1.
func startMatch(s *State) []Event {
	for side, t := range s.Teams {
		if s.Strategy == nil {
			break
		}
		if prop, ok := s.Strategy.Proposals[side]; ok {
			t.SlotAssignments = prop
			for op, pid := range prop {
				if p, ok := t.Players[pid]; ok {
					p.Slot = op
				}
			}
		}
	}
	s.Strategy = nil

	events := []Event{{
		Type: EvtMatchStart,
		Payload: MatchStartPayload{
			GameClockMs:  s.GameClockMs,
			RelayClockMs: s.Rules.RelayClockMs,
		},
	}}
	events = append(events, openRound(s, 1)...)
	return events
}

func applyTypingUpdate(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseActive {
		return nil, ErrWrongPhase
	}
	team, ok := s.TeamOf(cmd.UserID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	active := team.ActivePlayer()
	if active == nil || active.ID != cmd.UserID {
		return nil, ErrNotActivePlayer
	}

	// Transient: mirrored to teammates, never stored.
	return []Event{{
		Type:     EvtTypingUpdate,
		Audience: Audience{Team: team.Side, ExcludeUserID: cmd.UserID},
		Payload: TypingUpdatePayload{
			TeamID:       team.ID,
			UserID:       cmd.UserID,
			CurrentInput: cmd.Input,
		},
	}}, nil
}
