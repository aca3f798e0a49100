package hub

import (
	"context"
	"testing"
	"time"

	"github.com/mathrush/arena-backend/internal/engine"
	"github.com/mathrush/arena-backend/internal/room"
)

func testSetup() engine.MatchSetup {
	return engine.MatchSetup{
		Home: engine.TeamSetup{
			ID: "team-home", Name: "Prime Factors", LeaderID: "h1",
			Players: []engine.PlayerSetup{
				{ID: "h1", Name: "Hana", Slot: engine.OpAddition, IsIGL: true, IsAnchor: true},
			},
		},
		Away: engine.TeamSetup{
			ID: "team-away", Name: "Long Division", LeaderID: "a1",
			Players: []engine.PlayerSetup{
				{ID: "a1", Name: "Ava", Slot: engine.OpAddition, IsIGL: true, IsAnchor: true},
			},
		},
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), Options{RoomTick: time.Hour})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateMatch{MatchID: "m1", Setup: testSetup(), Reply: reply}
	rm1 := <-reply

	h.Inbox() <- GetRoom{MatchID: "m1", Reply: reply}
	rm2 := <-reply

	if rm1 == nil || rm2 == nil || rm1 != rm2 {
		t.Fatalf("expected same room pointer")
	}
}

func TestHub_CreateIsIdempotentPerMatchID(t *testing.T) {
	h := NewHub(context.Background(), Options{RoomTick: time.Hour})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateMatch{MatchID: "m1", Setup: testSetup(), Reply: reply}
	rm1 := <-reply
	h.Inbox() <- CreateMatch{MatchID: "m1", Setup: testSetup(), Reply: reply}
	rm2 := <-reply

	if rm1 != rm2 {
		t.Fatalf("duplicate create must return the existing room")
	}
}

func TestHub_RemoveMatch(t *testing.T) {
	h := NewHub(context.Background(), Options{RoomTick: time.Hour})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateMatch{MatchID: "m1", Setup: testSetup(), Reply: reply}
	<-reply

	h.Inbox() <- RemoveMatch{MatchID: "m1"}
	h.Inbox() <- GetRoom{MatchID: "m1", Reply: reply}
	if rm := <-reply; rm != nil {
		t.Fatalf("expected room to be removed")
	}
}
