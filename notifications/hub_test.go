package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubDeliversToRoomOnly(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}
	joined := make(chan struct{}, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Join(r.URL.Query().Get("room"), conn)
		joined <- struct{}{}
	}))
	defer srv.Close()

	dial := func(room string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?room=" + room
		c, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		<-joined
		return c
	}
	startup := dial("STARTUP-1")
	defer startup.Close()
	investor := dial("INVESTOR-1")
	defer investor.Close()

	if hub.Connections("STARTUP-1") != 1 {
		t.Fatalf("expected one connection, got %d", hub.Connections("STARTUP-1"))
	}

	ev := NewEvent(1, UserStartup, TypeInvestment, "New investment")
	if err := hub.Deliver(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	startup.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := startup.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ID != ev.ID || got.Text != "New investment" {
		t.Fatalf("unexpected event %+v", got)
	}

	investor.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := investor.ReadJSON(&got); err == nil {
		t.Fatal("expected nothing for another room")
	}
}

func TestHubDeliverWithoutListeners(t *testing.T) {
	hub := NewHub()
	if err := hub.Deliver(context.Background(), NewEvent(9, UserInvestor, TypeFundingRoundChangeProposal, "vote")); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if hub.Connections("INVESTOR-9") != 0 {
		t.Fatal("expected empty room")
	}
}
