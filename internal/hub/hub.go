package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mathrush/arena-backend/internal/engine"
	"github.com/mathrush/arena-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateMatch struct {
	MatchID string
	Setup   engine.MatchSetup
	Reply   chan *room.Room
}

type GetRoom struct {
	MatchID string
	Reply   chan *room.Room
}

type RemoveMatch struct {
	MatchID string
}

type ShutdownHub struct{}

func (CreateMatch) isHubMsg() {}
func (GetRoom) isHubMsg()     {}
func (RemoveMatch) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// ResultSink receives the final summary of a match. Implementations must be
// safe to call off the hub goroutine.
type ResultSink interface {
	Save(ctx context.Context, summary room.Summary) error
}

type Options struct {
	Logger      *zap.Logger
	Sink        ResultSink
	GracePeriod time.Duration // room retention after post_match
	RoomTick    time.Duration
}

// Hub owns the matchID -> room table. All map access happens on the hub
// goroutine; rooms own their match state exclusively.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 30 * time.Second
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		log:    opts.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateMatch:
				if rm := h.rooms[msg.MatchID]; rm != nil {
					msg.Reply <- rm
					break
				}
				rm := room.New(h.ctx, msg.MatchID, msg.Setup, room.Options{
					TickInterval: h.opts.RoomTick,
					Logger:       h.log,
					OnFinish:     h.finisher(msg.MatchID),
				})
				h.rooms[msg.MatchID] = rm
				h.log.Info("match room created", zap.String("match_id", msg.MatchID))
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.MatchID] // may be nil

			case RemoveMatch:
				if rm := h.rooms[msg.MatchID]; rm != nil {
					rm.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.MatchID)
					h.log.Info("match room removed", zap.String("match_id", msg.MatchID))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// finisher archives the result and schedules room teardown after the grace
// period so clients can still read the final snapshot.
func (h *Hub) finisher(matchID string) func(room.Summary) {
	return func(summary room.Summary) {
		if h.opts.Sink != nil {
			ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
			defer cancel()
			if err := h.opts.Sink.Save(ctx, summary); err != nil {
				h.log.Error("persist match result", zap.String("match_id", matchID), zap.Error(err))
			}
		}
		time.AfterFunc(h.opts.GracePeriod, func() {
			select {
			case h.inbox <- RemoveMatch{MatchID: matchID}:
			case <-h.ctx.Done():
			}
		})
	}
}

func (h *Hub) shutdown() {
	for id, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
		delete(h.rooms, id)
	}
	h.cancel()
}
