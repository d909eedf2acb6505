package board_test

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/sketchwire/sketchwire/internal/adapters/board"
	router "github.com/sketchwire/sketchwire/internal/adapters/http"
	"github.com/sketchwire/sketchwire/internal/app"
	"github.com/sketchwire/sketchwire/internal/auth"
	"github.com/sketchwire/sketchwire/internal/config"
	"github.com/sketchwire/sketchwire/internal/core"
	"github.com/sketchwire/sketchwire/internal/domain"
	"github.com/sketchwire/sketchwire/internal/store"
)

const testSecret = "board-test-secret"

// settle gives the read pumps time to process what was just sent.
const settle = 200 * time.Millisecond

type gatewayEnv struct {
	srv      *httptest.Server
	registry *app.Registry
	store    core.EventStore
}

func newGateway(t *testing.T, st core.EventStore) *gatewayEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry := app.NewRegistry()
	verifier := auth.NewJWTVerifier(testSecret)
	ctl := board.NewController(verifier, registry, st, 32, 32768, 5*time.Second)
	cfg := &config.Config{Mode: "release", HistoryLimit: 50}
	r := router.SetupRouter(context.Background(), cfg, ctl, st)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &gatewayEnv{srv: srv, registry: registry, store: st}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": userID}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *gatewayEnv) wsURL(token string) string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/board?token=" + token
}

func dial(t *testing.T, e *gatewayEnv, userID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL(signToken(t, userID)), nil)
	if err != nil {
		t.Fatalf("dial as %s: %v", userID, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wireEnvelope struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wireEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env wireEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

// expectSilence asserts no frame arrives. It poisons the connection's
// read state, so call it last on a given connection.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no message")
	}
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("expected read timeout, got %v", err)
	}
}

func join(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()
	if err := conn.WriteJSON(wireEnvelope{Type: "join_room", RoomID: room}); err != nil {
		t.Fatalf("join %s: %v", room, err)
	}
}

func TestRejectsBadCredential(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	_, resp, err := websocket.DefaultDialer.Dial(e.wsURL("bogus"), nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestBroadcastReachesAllMembersIncludingSender(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	alice := dial(t, e, "alice")
	bob := dial(t, e, "bob")
	join(t, alice, "r1")
	join(t, bob, "r1")
	time.Sleep(settle)

	payload := `{"shape":{"type":"rect","x":10,"y":10,"width":50,"height":20}}`
	if err := alice.WriteJSON(wireEnvelope{Type: "chat", RoomID: "r1", Message: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}

	for _, conn := range []*websocket.Conn{alice, bob} {
		env := readEnvelope(t, conn)
		if env.Type != "chat" || env.Message != payload || env.UserID != "alice" || env.RoomID != "r1" {
			t.Fatalf("unexpected broadcast: %+v", env)
		}
	}

	events, err := e.store.Replay(context.Background(), "r1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(events) != 1 || events[0].Message != payload || events[0].UserID != "alice" {
		t.Fatalf("event not persisted verbatim: %+v", events)
	}
}

func TestRoomIsolation(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	alice := dial(t, e, "alice")
	carol := dial(t, e, "carol")
	join(t, alice, "r1")
	join(t, carol, "r2")
	time.Sleep(settle)

	payload := `{"shape":{"type":"circle","centerX":1,"centerY":1,"radius":2}}`
	if err := alice.WriteJSON(wireEnvelope{Type: "chat", RoomID: "r1", Message: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}

	if env := readEnvelope(t, alice); env.Type != "chat" {
		t.Fatalf("sender echo missing: %+v", env)
	}
	expectSilence(t, carol)
}

func TestDoubleJoinDeliversOnce(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	alice := dial(t, e, "alice")
	bob := dial(t, e, "bob")
	join(t, alice, "X")
	join(t, alice, "X")
	join(t, bob, "X")
	time.Sleep(settle)

	payload := `{"shape":{"type":"text","x":0,"y":0,"value":"once"}}`
	if err := bob.WriteJSON(wireEnvelope{Type: "chat", RoomID: "X", Message: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}

	if env := readEnvelope(t, alice); env.Message != payload {
		t.Fatalf("unexpected first frame: %+v", env)
	}
	expectSilence(t, alice)
}

func TestMalformedEnvelopeKeepsConnectionOpen(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	alice := dial(t, e, "alice")

	if err := alice.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("send garbage: %v", err)
	}
	if env := readEnvelope(t, alice); env.Type != "error" {
		t.Fatalf("expected error envelope, got %+v", env)
	}

	// Connection must still work.
	join(t, alice, "r1")
	time.Sleep(settle)
	payload := `{"shape":{"type":"text","x":1,"y":1,"value":"still alive"}}`
	if err := alice.WriteJSON(wireEnvelope{Type: "chat", RoomID: "r1", Message: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}
	if env := readEnvelope(t, alice); env.Type != "chat" || env.Message != payload {
		t.Fatalf("connection unusable after malformed input: %+v", env)
	}
}

func TestUnknownTypeAndEmptyMessage(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	alice := dial(t, e, "alice")

	if err := alice.WriteJSON(wireEnvelope{Type: "warp", RoomID: "r1"}); err != nil {
		t.Fatalf("send unknown: %v", err)
	}
	if env := readEnvelope(t, alice); env.Type != "error" {
		t.Fatalf("expected error for unknown type, got %+v", env)
	}

	if err := alice.WriteJSON(wireEnvelope{Type: "chat", RoomID: "r1"}); err != nil {
		t.Fatalf("send empty chat: %v", err)
	}
	if env := readEnvelope(t, alice); env.Type != "error" {
		t.Fatalf("expected error for empty message, got %+v", env)
	}

	events, _ := e.store.Replay(context.Background(), "r1")
	if len(events) != 0 {
		t.Fatalf("rejected envelopes must not reach the store: %+v", events)
	}
}

type failStore struct{}

func (failStore) Append(context.Context, domain.ShapeEvent) (int64, error) {
	return 0, errors.New("storage unavailable")
}

func (failStore) Replay(context.Context, domain.RoomID) ([]domain.ShapeEvent, error) {
	return nil, nil
}

func TestAppendFailureSuppressesBroadcast(t *testing.T) {
	e := newGateway(t, failStore{})
	alice := dial(t, e, "alice")
	bob := dial(t, e, "bob")
	join(t, alice, "r1")
	join(t, bob, "r1")
	time.Sleep(settle)

	payload := `{"shape":{"type":"rect","x":0,"y":0,"width":1,"height":1}}`
	if err := alice.WriteJSON(wireEnvelope{Type: "chat", RoomID: "r1", Message: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}

	if env := readEnvelope(t, alice); env.Type != "error" {
		t.Fatalf("sender must see persistence failure, got %+v", env)
	}
	expectSilence(t, bob)
}

func TestDisconnectDropsMembership(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	alice := dial(t, e, "alice")
	bob := dial(t, e, "bob")
	join(t, alice, "r1")
	join(t, bob, "r1")
	time.Sleep(settle)

	_ = alice.Close()
	time.Sleep(settle)

	if got := e.registry.Members("r1"); len(got) != 1 || got[0].UserID != "bob" {
		t.Fatalf("expected only bob after disconnect, got %+v", got)
	}

	payload := `{"shape":{"type":"text","x":0,"y":0,"value":"bye"}}`
	if err := bob.WriteJSON(wireEnvelope{Type: "chat", RoomID: "r1", Message: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}
	if env := readEnvelope(t, bob); env.Type != "chat" {
		t.Fatalf("remaining member must still receive broadcasts: %+v", env)
	}
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	e := newGateway(t, store.NewMemory(50))
	alice := dial(t, e, "alice")
	bob := dial(t, e, "bob")
	join(t, alice, "r1")
	join(t, bob, "r1")
	time.Sleep(settle)

	if err := bob.WriteJSON(wireEnvelope{Type: "leave_room", RoomID: "r1"}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	time.Sleep(settle)

	payload := `{"shape":{"type":"text","x":0,"y":0,"value":"solo"}}`
	if err := alice.WriteJSON(wireEnvelope{Type: "chat", RoomID: "r1", Message: payload}); err != nil {
		t.Fatalf("send chat: %v", err)
	}
	if env := readEnvelope(t, alice); env.Type != "chat" {
		t.Fatalf("sender echo missing: %+v", env)
	}
	expectSilence(t, bob)
}
