package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mathrush/arena-backend/internal/hub"
	"github.com/mathrush/arena-backend/internal/room"
	"github.com/mathrush/arena-backend/internal/types"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 3 * time.Second
	outboxSize   = 32
)

// Handler upgrades the connection and binds it to a match room. The first
// client message must be join_team_match; everything after is forwarded to
// the room as engine commands.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		join, err := readJoin(r.Context(), conn)
		if err != nil {
			writeError(r.Context(), conn, "expected join_team_match")
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{MatchID: join.MatchID, Reply: reply}
		rm := <-reply
		if rm == nil {
			writeError(r.Context(), conn, "match not found")
			return
		}

		sessionID := randID(8)
		out := make(chan []byte, outboxSize)
		log = log.With(
			zap.String("match_id", join.MatchID),
			zap.String("user_id", join.UserID),
			zap.String("session_id", sessionID),
		)
		log.Info("session joined")

		// The room can be torn down while this session is still connected, so
		// every send to its inbox must also watch Done.
		select {
		case rm.Inbox() <- room.Join{SessionID: sessionID, UserID: join.UserID, Outbox: out}:
		case <-rm.Done():
			writeError(r.Context(), conn, "match is over")
			return
		}
		defer func() {
			select {
			case rm.Inbox() <- room.Leave{SessionID: sessionID}:
			case <-rm.Done():
			}
			log.Info("session left")
		}()

		// Writer goroutine: drains the room outbox onto the socket.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for payload := range out {
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Typing mirrors are cosmetic; cap them so one keyboard cannot
		// flood the room actor.
		typingLimiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 5)

		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			if cm.Type == types.MsgLeaveMatch {
				return
			}
			if cm.Type == types.MsgTypingUpdate && !typingLimiter.Allow() {
				continue
			}

			cmd, ok := types.ToCommand(cm, join.UserID)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			select {
			case rm.Inbox() <- room.FromClient{SessionID: sessionID, Cmd: cmd}:
			case <-rm.Done():
				return
			}
		}
	}
}

func readJoin(ctx context.Context, conn *websocket.Conn) (types.ClientMessage, error) {
	readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, data, err := conn.Read(readCtx)
	if err != nil {
		return types.ClientMessage{}, err
	}
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return types.ClientMessage{}, err
	}
	if cm.Type != types.MsgJoinTeamMatch || cm.MatchID == "" || cm.UserID == "" {
		return types.ClientMessage{}, errBadJoin
	}
	return cm, nil
}

var errBadJoin = jsonError("bad join message")

type jsonError string

func (e jsonError) Error() string { return string(e) }

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: types.MsgError, Error: msg})
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(writeCtx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
