package room

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mathrush/arena-backend/internal/engine"
	"github.com/mathrush/arena-backend/internal/types"
)

type Msg interface{ isRoomMsg() }

// FromClient carries a validated-for-shape command from one session. The
// engine does the semantic validation.
type FromClient struct {
	SessionID string
	Cmd       engine.Command
}

func (FromClient) isRoomMsg() {}

type Join struct {
	SessionID string
	UserID    string
	Outbox    chan []byte // pre-marshaled server messages
}

func (Join) isRoomMsg() {}

type Leave struct{ SessionID string }

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// View reflects room internals for tests and admin inspection without
// leaking live pointers; the snapshot is marshaled inside the room loop.
type View struct {
	Version     int
	NumSessions int
	Phase       engine.Phase
	Snapshot    json.RawMessage
}

type session struct {
	userID string
	side   engine.Side // empty for spectators
	outbox chan []byte
}

// Summary is handed to the results sink once the match reaches post_match.
type Summary struct {
	MatchID      string
	Reason       engine.EndReason
	WinnerTeamID string
	Draw         bool
	FinishedAt   time.Time
	Teams        []TeamSummary
}

type TeamSummary struct {
	TeamID  string
	Name    string
	Score   int
	Won     bool
	Players []PlayerSummary
}

type PlayerSummary struct {
	ID        string
	Name      string
	Score     int
	Correct   int
	Total     int
	MaxStreak int
}

type Options struct {
	TickInterval time.Duration // defaults to 1s
	Seed         int64
	Logger       *zap.Logger
	OnFinish     func(Summary) // invoked once, off the room goroutine
}

// Room is the single-writer coordinator for one match: a lone goroutine
// consumes the inbox, so commands are FIFO and per-match state never sees
// concurrent mutation.
type Room struct {
	matchID  string
	inbox    chan Msg
	state    *engine.State
	version  int
	sessions map[string]*session
	finished bool
	onFinish func(Summary)
	log      *zap.Logger
	ticker   *time.Ticker
	tickMs   int
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, matchID string, setup engine.MatchSetup, opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)

	tick := opts.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r := &Room{
		matchID:  matchID,
		inbox:    make(chan Msg, 64),
		state:    engine.NewState(matchID, setup, seed),
		sessions: make(map[string]*session),
		onFinish: opts.OnFinish,
		log:      logger.With(zap.String("match_id", matchID)),
		ticker:   time.NewTicker(tick),
		tickMs:   int(tick / time.Millisecond),
		ctx:      ctx,
		cancel:   cancel,
	}
	go r.loop()
	return r
}

// Inbox exposes the message channel to the WS layer and tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room loop has shut down. Senders must select on it
// or they can block forever on a dead inbox.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case <-r.ticker.C:
			r.apply("", engine.Command{Type: engine.CmdTick, ElapsedMs: r.tickMs})

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				if sess, ok := r.sessions[msg.SessionID]; ok {
					r.apply(msg.SessionID, engine.Command{Type: engine.CmdPlayerDisconnected, UserID: sess.userID})
					delete(r.sessions, msg.SessionID)
					close(sess.outbox)
				}

			case FromClient:
				r.apply(msg.SessionID, msg.Cmd)

			case GetState:
				snap, _ := json.Marshal(r.state)
				msg.Reply <- View{
					Version:     r.version,
					NumSessions: len(r.sessions),
					Phase:       r.state.Phase,
					Snapshot:    snap,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	sess := &session{userID: msg.UserID, outbox: msg.Outbox}
	if team, ok := r.state.TeamOf(msg.UserID); ok {
		sess.side = team.Side
	}
	r.sessions[msg.SessionID] = sess

	r.apply(msg.SessionID, engine.Command{Type: engine.CmdPlayerConnected, UserID: msg.UserID})

	// Reconnect resumes from a snapshot, no history replay.
	r.sendTo(sess, r.snapshotMessage())
}

// apply runs one command through the engine. Validation failures echo an
// error event to the originating session only; successes broadcast the
// discrete events followed by a fresh snapshot.
func (r *Room) apply(sessionID string, cmd engine.Command) {
	events, err := engine.Apply(r.state, cmd)
	if err != nil {
		if sess, ok := r.sessions[sessionID]; ok {
			payload, _ := json.Marshal(types.ServerMessage{Type: types.MsgError, Error: err.Error()})
			r.sendTo(sess, payload)
		}
		if cmd.Type != engine.CmdTick {
			r.log.Debug("command rejected",
				zap.String("cmd", string(cmd.Type)),
				zap.String("user_id", cmd.UserID),
				zap.String("phase", string(r.state.Phase)),
				zap.Error(err))
		}
		return
	}
	if len(events) == 0 && cmd.Type == engine.CmdTick {
		return
	}

	for _, ev := range events {
		payload, err := json.Marshal(types.ServerMessage{Type: string(ev.Type), Data: ev.Payload})
		if err != nil {
			r.log.Error("marshal event", zap.String("event", string(ev.Type)), zap.Error(err))
			continue
		}
		r.broadcast(ev.Audience, payload)
	}

	r.version++
	r.broadcast(engine.Audience{}, r.snapshotMessage())

	if engine.ContainsEvent(events, engine.EvtMatchEnd) {
		r.finish()
	}
}

func (r *Room) snapshotMessage() []byte {
	raw, err := json.Marshal(r.state)
	if err != nil {
		r.log.Error("marshal state", zap.Error(err))
		return nil
	}
	payload, _ := json.Marshal(types.ServerMessage{
		Type:    types.MsgMatchState,
		Version: r.version,
		State:   raw,
	})
	return payload
}

func (r *Room) broadcast(aud engine.Audience, payload []byte) {
	if payload == nil {
		return
	}
	for id, sess := range r.sessions {
		if !audienceMatches(aud, sess) {
			continue
		}
		select {
		case sess.outbox <- payload:
		default:
			// Slow or stuck client: drop it rather than stall the match.
			r.log.Warn("dropping slow client", zap.String("session_id", id), zap.String("user_id", sess.userID))
			close(sess.outbox)
			delete(r.sessions, id)
		}
	}
}

func audienceMatches(aud engine.Audience, sess *session) bool {
	if aud.UserID != "" {
		return sess.userID == aud.UserID
	}
	if aud.Team != "" && sess.side != aud.Team {
		return false
	}
	if aud.ExcludeUserID != "" && sess.userID == aud.ExcludeUserID {
		return false
	}
	return true
}

func (r *Room) sendTo(sess *session, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case sess.outbox <- payload:
	default:
	}
}

func (r *Room) finish() {
	if r.finished {
		return
	}
	r.finished = true
	r.log.Info("match finished",
		zap.String("reason", string(r.state.EndReason)),
		zap.Int("home_score", r.state.Teams[engine.SideHome].Score),
		zap.Int("away_score", r.state.Teams[engine.SideAway].Score))

	if r.onFinish != nil {
		summary := r.summarize()
		go r.onFinish(summary)
	}
}

func (r *Room) summarize() Summary {
	s := r.state
	sum := Summary{
		MatchID:    s.MatchID,
		Reason:     s.EndReason,
		Draw:       s.Draw,
		FinishedAt: time.Now(),
	}
	if s.Winner != "" {
		sum.WinnerTeamID = s.Teams[s.Winner].ID
	}
	for _, side := range []engine.Side{engine.SideHome, engine.SideAway} {
		team := s.Teams[side]
		ts := TeamSummary{
			TeamID: team.ID,
			Name:   team.Name,
			Score:  team.Score,
			Won:    s.Winner == side,
		}
		for _, p := range team.Players {
			ts.Players = append(ts.Players, PlayerSummary{
				ID:        p.ID,
				Name:      p.Name,
				Score:     p.Score,
				Correct:   p.Correct,
				Total:     p.Total,
				MaxStreak: p.MaxStreak,
			})
		}
		sum.Teams = append(sum.Teams, ts)
	}
	return sum
}

func (r *Room) shutdown() {
	r.ticker.Stop()
	for id, sess := range r.sessions {
		close(sess.outbox)
		delete(r.sessions, id)
	}
	r.cancel()
}
