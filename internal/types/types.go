package types

import (
	"encoding/json"

	"github.com/mathrush/arena-backend/internal/engine"
)

// Client -> Server command names.
const (
	MsgJoinTeamMatch        = "join_team_match"
	MsgLeaveMatch           = "leave_match"
	MsgSubmitAnswer         = "submit_answer"
	MsgTypingUpdate         = "typing_update"
	MsgUpdateSlotAssignment = "update_slot_assignment"
	MsgConfirmSlots         = "confirm_slots"
	MsgAnchorCallIn         = "anchor_callin"
	MsgAnchorSolo           = "anchor_solo"
	MsgIGLTimeout           = "igl_timeout"
	MsgInitiateQuitVote     = "initiate_quit_vote"
	MsgCastQuitVote         = "cast_quit_vote"
)

// Server -> Client framing that is not a discrete engine event.
const (
	MsgMatchState = "match_state"
	MsgError      = "error"
)

type ClientMessage struct {
	Type         string `json:"type"`
	MatchID      string `json:"matchId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Answer       string `json:"answer,omitempty"`
	CurrentInput string `json:"currentInput,omitempty"`
	PlayerID     string `json:"playerId,omitempty"`
	NewSlot      string `json:"newSlot,omitempty"`
	TargetSlot   string `json:"targetSlot,omitempty"`
	Half         int    `json:"half,omitempty"`
	Vote         string `json:"vote,omitempty"`
}

// ServerMessage is the single wire envelope: either a match_state snapshot
// (State set), a discrete event (Data set), or an error echo.
type ServerMessage struct {
	Type    string          `json:"type"`
	Version int             `json:"version,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
	Data    any             `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ToCommand maps a client message onto an engine command. The boolean is
// false for unknown or session-level message types.
func ToCommand(m ClientMessage, userID string) (engine.Command, bool) {
	switch m.Type {
	case MsgSubmitAnswer:
		return engine.Command{Type: engine.CmdSubmitAnswer, UserID: userID, Answer: m.Answer}, true
	case MsgTypingUpdate:
		return engine.Command{Type: engine.CmdTypingUpdate, UserID: userID, Input: m.CurrentInput}, true
	case MsgUpdateSlotAssignment:
		return engine.Command{
			Type:     engine.CmdUpdateSlotAssignment,
			UserID:   userID,
			PlayerID: m.PlayerID,
			Slot:     engine.Operation(m.NewSlot),
		}, true
	case MsgConfirmSlots:
		return engine.Command{Type: engine.CmdConfirmSlots, UserID: userID}, true
	case MsgAnchorCallIn:
		return engine.Command{
			Type:   engine.CmdAnchorCallIn,
			UserID: userID,
			Slot:   engine.Operation(m.TargetSlot),
			Half:   m.Half,
		}, true
	case MsgAnchorSolo:
		return engine.Command{Type: engine.CmdAnchorSolo, UserID: userID}, true
	case MsgIGLTimeout:
		return engine.Command{Type: engine.CmdIGLTimeout, UserID: userID}, true
	case MsgInitiateQuitVote:
		return engine.Command{Type: engine.CmdInitiateQuitVote, UserID: userID}, true
	case MsgCastQuitVote:
		return engine.Command{Type: engine.CmdCastQuitVote, UserID: userID, Vote: engine.VoteChoice(m.Vote)}, true
	default:
		return engine.Command{}, false
	}
}
