package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"hanamikoji-server/api"
	"hanamikoji-server/config"
	"hanamikoji-server/game"
	"hanamikoji-server/protocol"
	"hanamikoji-server/room"
	"hanamikoji-server/ws"
)

// setupTestServer creates a test HTTP server with the full game server stack
// and sub-protocol timings shrunk for tests.
func setupTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()

	cfg := config.Defaults()
	cfg.OrderGraceMS = 5
	cfg.OrderRevealMS = 5
	cfg.RoundPauseMS = 20
	cfg.AI = config.AIConfig{
		Easy:   config.AITierParams{ThinkDelayMS: 5},
		Medium: config.AITierParams{ThinkDelayMS: 5},
		Hard:   config.AITierParams{ThinkDelayMS: 5},
		Expert: config.AITierParams{ThinkDelayMS: 5},
		Hell:   config.AITierParams{ThinkDelayMS: 5},
	}
	cfg.CORSOrigins = nil

	registry := room.NewRegistry(cfg, nil)
	hub := ws.NewHub(cfg, registry)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	handler := api.NewHandler(cfg, registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	})
	mux.HandleFunc("/health", handler.Health)

	server := httptest.NewServer(mux)
	cleanup := func() {
		server.Close()
		cancel()
	}
	return server, cleanup
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

// sendMsg sends a JSON frame over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"type": msgType, "payload": payload})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

// readEnvelope reads one frame from the WebSocket.
func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("failed to unmarshal: %v\ndata: %s", err, string(data))
	}
	return env
}

// readUntil reads frames until one of the wanted type arrives, skipping all
// others.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		env := readEnvelope(t, conn)
		if env.Type == wantType {
			return env.Payload
		}
	}
	t.Fatalf("timed out waiting for %s", wantType)
	return nil
}

func sendGameAction(t *testing.T, conn *websocket.Conn, playerID, actionType string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	sendMsg(t, conn, protocol.TypeGameAction, protocol.GameActionPayload{
		PlayerID: playerID,
		Action:   protocol.ActionMsg{Type: actionType, Payload: data},
	})
}

func TestIntegration_HealthEndpoint(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.Environment == "" {
		t.Error("expected an environment in the health response")
	}
}

func TestIntegration_CreateJoinAndStart(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn1 := connectWS(t, server)
	defer conn1.Close()
	conn2 := connectWS(t, server)
	defer conn2.Close()

	sendMsg(t, conn1, protocol.TypeCreateRoom, protocol.CreateRoomPayload{PlayerID: "p1", PlayerName: "Alice", Mode: "online"})
	raw := readUntil(t, conn1, protocol.TypeRoomCreated)
	var created protocol.RoomCreatedPayload
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatal(err)
	}
	if created.RoomID == "" {
		t.Fatal("expected a room id")
	}

	sendMsg(t, conn2, protocol.TypeJoinRoom, protocol.JoinRoomPayload{RoomID: created.RoomID, PlayerID: "p2", PlayerName: "Bob"})

	// Both seats watch the same order decision.
	raw = readUntil(t, conn1, protocol.TypeOrderDecisionResult)
	var order1 protocol.OrderDecisionResultPayload
	if err := json.Unmarshal(raw, &order1); err != nil {
		t.Fatal(err)
	}
	raw = readUntil(t, conn2, protocol.TypeOrderDecisionResult)
	var order2 protocol.OrderDecisionResultPayload
	if err := json.Unmarshal(raw, &order2); err != nil {
		t.Fatal(err)
	}
	if len(order1.Order) != 2 || order1.Order[0] != order2.Order[0] {
		t.Fatalf("both seats must see the same order, got %v vs %v", order1.Order, order2.Order)
	}

	sendMsg(t, conn1, protocol.TypeConfirmOrder, struct{}{})
	sendMsg(t, conn2, protocol.TypeConfirmOrder, struct{}{})
	readUntil(t, conn1, protocol.TypeReadyCheck)

	sendMsg(t, conn1, protocol.TypeReadyConfirm, struct{}{})
	sendMsg(t, conn2, protocol.TypeReadyConfirm, struct{}{})

	readUntil(t, conn1, protocol.TypeGameStarted)
	readUntil(t, conn1, protocol.TypeCardDrawn)

	view := readStateWhere(t, conn1, func(v game.View) bool { return v.Phase == game.PhasePlaying })
	if view.CurrentPlayerID != order1.Order[0] {
		t.Errorf("expected %s to act first, got %s", order1.Order[0], view.CurrentPlayerID)
	}

	// An off-turn action is rejected with an ERROR frame.
	offTurn, offConn := "p2", conn2
	if view.CurrentPlayerID == "p2" {
		offTurn, offConn = "p1", conn1
	}
	sendGameAction(t, offConn, offTurn, protocol.ActionPlaySecret, protocol.PlaySecretPayload{CardID: "whatever"})
	raw = readUntil(t, offConn, protocol.TypeError)
	var errPayload protocol.ErrorPayload
	if err := json.Unmarshal(raw, &errPayload); err != nil {
		t.Fatal(err)
	}
	if errPayload.Message == "" {
		t.Error("expected an error message")
	}
}

// readStateWhere reads GAME_STATE_UPDATED frames until pred matches.
func readStateWhere(t *testing.T, conn *websocket.Conn, pred func(game.View) bool) game.View {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		raw := readUntil(t, conn, protocol.TypeGameStateUpdated)
		var payload protocol.GameStatePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatal(err)
		}
		if pred(payload.State) {
			return payload.State
		}
	}
	t.Fatal("no state update matched")
	return game.View{}
}

func TestIntegration_JoinUnknownRoom(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, protocol.TypeJoinRoom, protocol.JoinRoomPayload{RoomID: "NOPE11", PlayerID: "p1", PlayerName: "Alice"})
	raw := readUntil(t, conn, protocol.TypeError)
	var errPayload protocol.ErrorPayload
	if err := json.Unmarshal(raw, &errPayload); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errPayload.Message, "NOPE11") {
		t.Errorf("expected the room id in the error, got %q", errPayload.Message)
	}
}

// TestIntegration_FullRoundAgainstAI plays one complete round against the
// easy AI with a scripted human policy: spend tokens in a fixed order using
// the first cards of the hand, accept the first option of every interaction.
func TestIntegration_FullRoundAgainstAI(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	const me = "p1"
	sendMsg(t, conn, protocol.TypeCreateRoom, protocol.CreateRoomPayload{PlayerID: me, PlayerName: "Alice", Mode: "npc", AIDifficulty: "easy"})
	readUntil(t, conn, protocol.TypeRoomCreated)

	readUntil(t, conn, protocol.TypeOrderDecisionResult)
	sendMsg(t, conn, protocol.TypeConfirmOrder, struct{}{})
	readUntil(t, conn, protocol.TypeReadyCheck)
	sendMsg(t, conn, protocol.TypeReadyConfirm, struct{}{})
	readUntil(t, conn, protocol.TypeGameStarted)

	tokenOrder := []struct {
		action string
		cards  int
	}{
		{protocol.ActionPlaySecret, 1},
		{protocol.ActionPlayTradeOff, 2},
		{protocol.ActionInitiateGift, 3},
		{protocol.ActionInitiateCompetition, 4},
	}
	acted := map[string]bool{}

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		env := readEnvelope(t, conn)
		switch env.Type {
		case protocol.TypeRoundComplete:
			var result game.RoundResult
			if err := json.Unmarshal(env.Payload, &result); err != nil {
				t.Fatal(err)
			}
			if len(result.Scores) != 2 {
				t.Errorf("expected 2 scores, got %v", result.Scores)
			}
			return

		case protocol.TypeGameStateUpdated:
			var payload protocol.GameStatePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				t.Fatal(err)
			}
			v := payload.State
			if v.Phase != game.PhasePlaying {
				continue
			}

			if v.Pending != nil {
				if v.Pending.TargetID() != me {
					continue
				}
				sig := fmt.Sprintf("resolve:%d:%s", v.Round, v.Pending.Kind)
				if acted[sig] {
					continue
				}
				acted[sig] = true
				switch v.Pending.Kind {
				case game.PendingGift:
					sendGameAction(t, conn, me, protocol.ActionResolveGift,
						protocol.ResolveGiftPayload{ChosenCardID: v.Pending.Gift.OfferedCards[0].ID})
				case game.PendingCompetition:
					sendGameAction(t, conn, me, protocol.ActionResolveCompetition,
						protocol.ResolveCompetitionPayload{ChosenGroupIndex: 0})
				}
				continue
			}

			if v.CurrentPlayerID != me {
				continue
			}
			var mine game.PlayerView
			for _, p := range v.Players {
				if p.ID == me {
					mine = p
				}
			}
			for _, step := range tokenOrder {
				sig := fmt.Sprintf("turn:%d:%s", v.Round, step.action)
				if acted[sig] || len(mine.Hand) < step.cards {
					continue
				}
				acted[sig] = true
				ids := make([]string, step.cards)
				for i := range ids {
					ids[i] = mine.Hand[i].ID
				}
				switch step.action {
				case protocol.ActionPlaySecret:
					sendGameAction(t, conn, me, step.action, protocol.PlaySecretPayload{CardID: ids[0]})
				case protocol.ActionPlayTradeOff:
					sendGameAction(t, conn, me, step.action, protocol.TradeOffPayload{CardIDs: ids})
				case protocol.ActionInitiateGift:
					sendGameAction(t, conn, me, step.action, protocol.GiftPayload{CardIDs: ids})
				case protocol.ActionInitiateCompetition:
					sendGameAction(t, conn, me, step.action, protocol.CompetitionPayload{Groups: [][]string{{ids[0], ids[1]}, {ids[2], ids[3]}}})
				}
				break
			}
		}
	}
	t.Fatal("round did not complete in time")
}
