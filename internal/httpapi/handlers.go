package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mathrush/arena-backend/internal/engine"
	"github.com/mathrush/arena-backend/internal/hub"
	"github.com/mathrush/arena-backend/internal/room"
)

var errBadSetup = errors.New("invalid match setup")

// CreateMatch is the matchmaking hand-off: the matchmaker posts the assigned
// teams, roles and slots, and gets back the room's match id.
func CreateMatch(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var setup engine.MatchSetup
		if err := json.NewDecoder(r.Body).Decode(&setup); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validateSetup(setup); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		matchID := uuid.NewString()
		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.CreateMatch{MatchID: matchID, Setup: setup, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create match", http.StatusInternalServerError)
			return
		}
		log.Info("match created",
			zap.String("match_id", matchID),
			zap.String("home", setup.Home.ID),
			zap.String("away", setup.Away.ID),
			zap.Bool("ai_match", setup.AIMatch))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			MatchID string `json:"matchId"`
		}{MatchID: matchID})
	}
}

func validateSetup(setup engine.MatchSetup) error {
	for _, ts := range []engine.TeamSetup{setup.Home, setup.Away} {
		if ts.ID == "" || ts.LeaderID == "" || len(ts.Players) == 0 {
			return errBadSetup
		}
		if len(ts.Players) > len(engine.SlotOrder) {
			return errBadSetup
		}
		igls, anchors := 0, 0
		seen := make(map[string]bool, len(ts.Players))
		for _, p := range ts.Players {
			if p.ID == "" || seen[p.ID] {
				return errBadSetup
			}
			seen[p.ID] = true
			if p.IsIGL {
				igls++
			}
			if p.IsAnchor {
				anchors++
			}
		}
		if igls != 1 || anchors != 1 {
			return errBadSetup
		}
	}
	return nil
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
