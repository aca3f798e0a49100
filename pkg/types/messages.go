package types

// Client -> Server
// join_team_match:
//   matchId: string
//   userId: string        // resolved by the auth layer upstream
//
// leave_match: {}
//
// submit_answer:
//   answer: string
//
// typing_update (transient):
//   currentInput: string
//
// update_slot_assignment (strategy phase, IGL only):
//   playerId: string
//   newSlot: "addition" | "subtraction" | "multiplication" | "division" | "mixed"
//
// confirm_slots: {}      // IGL only
//
// anchor_callin (IGL only, once per half):
//   targetSlot: operation
//   half: 1 | 2          // must match authoritative state
//
// anchor_solo: {}        // anchor only, once per match, round-gated
//
// igl_timeout: {}        // IGL only, break phase, 2 per match
//
// initiate_quit_vote: {} // team leader only
//
// cast_quit_vote:
//   vote: "yes" | "no"

// Server -> Client
// match_state (full snapshot, also sent on every join/reconnect):
//   version: number
//   state: { matchId, phase, round, half, gameClockMs, relayClockMs, teams, ... }
//
// Discrete events, each { type, data }:
//   strategy_phase_start    (team-scoped: own proposal editable, opponent read-only)
//   strategy_time_update
//   slot_assignments_updated (team-scoped)
//   team_ready
//   match_start
//   question_update         (team-scoped)
//   typing_update           (team-scoped)
//   answer_result           (answering player only)
//   teammate_answer         (team-scoped, sender excluded)
//   slot_change             (room-wide, teamId tagged)
//   handoff_countdown       (team-scoped)
//   round_break
//   timeout_called          (carries newBreakDurationMs and extensionMs)
//   halftime
//   double_callin_activated
//   double_callin_success   (invoking IGL only)
//   round_start
//   clock_update
//   match_end
//   quit_vote_started       (team-scoped)
//   quit_vote_update        (team-scoped)
//   quit_vote_result        (team-scoped)
//   team_forfeit            (room-wide)
//
// error:
//   error: string           // echoed to the offending client only
