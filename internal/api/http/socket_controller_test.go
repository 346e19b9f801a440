package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/axenix_meet/internal/auth"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/hub"
	"github.com/immxrtalbeast/axenix_meet/internal/registry"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
	"github.com/immxrtalbeast/axenix_meet/internal/tasks"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "socket-test-secret"
	testMeeting = "m-1"
)

var (
	host  = domain.Identity{ID: "alice", Name: "Alice", Email: "alice@example.com"}
	guest = domain.Identity{ID: "bob", Name: "Bob"}
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type testServer struct {
	server       *httptest.Server
	verifier     *auth.Verifier
	rooms        *service.RoomService
	runner       *tasks.Runner
	sockets      *SocketController
	participants *repository.InMemoryParticipantStore
	shutdown     context.CancelFunc
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slogdiscard.NewDiscardLogger()

	runner := tasks.New(log, 0)
	participants := repository.NewInMemoryParticipantStore(nil)
	rooms := service.NewRoomService(log, registry.New(), hub.New(log), service.Stores{
		Meetings: repository.NewInMemoryMeetingStore(&domain.Meeting{
			ID:       testMeeting,
			HostID:   host.ID,
			IsActive: true,
		}),
		Participants: participants,
		Messages:     repository.NewInMemoryMessageStore(nil),
	}, runner, service.Options{})

	verifier := auth.NewVerifier(testSecret, "")
	shutdown, cancel := context.WithCancel(context.Background())
	sockets := NewSocketController(shutdown, rooms, log, SocketOptions{})
	router := SetupRouter(
		nil,
		AuthMiddleware(verifier, "accessToken", log),
		NewRoomController(rooms),
		sockets,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{
		server:       srv,
		verifier:     verifier,
		rooms:        rooms,
		runner:       runner,
		sockets:      sockets,
		participants: participants,
		shutdown:     cancel,
	}
}

func (s *testServer) token(t *testing.T, identity domain.Identity) string {
	t.Helper()
	token, err := s.verifier.Issue(identity, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) dial(t *testing.T, identity domain.Identity) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Cookie", "accessToken="+s.token(t, identity))
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": eventType, "payload": payload}))
}

// expect reads frames until one of eventType arrives.
func expect(t *testing.T, conn *websocket.Conn, eventType string) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %s", eventType)
		if f.Type == eventType {
			return f
		}
	}
}

// expectSilence asserts nothing but pings arrive within a short window.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var f frame
	err := conn.ReadJSON(&f)
	require.Error(t, err, "unexpected frame %s", f.Type)
}

func TestSocket_RejectsUnauthenticated(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer garbage")
	_, resp, err = websocket.DefaultDialer.Dial(url, header)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestSocket_MeetingFlow(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.dial(t, host)
	b := s.dial(t, guest)

	// host joins
	send(t, a, domain.EventJoinRoom, map[string]any{"meetingId": testMeeting})
	expect(t, a, domain.EventChatHistory)
	joined := expect(t, a, domain.EventRoomJoined)
	var ack domain.RoomJoinedPayload
	req.NoError(json.Unmarshal(joined.Payload, &ack))
	req.Equal([]string{"alice"}, ack.Participants)

	// guest joins, host is told
	send(t, b, domain.EventJoinRoom, map[string]any{"meetingId": testMeeting})
	joined = expect(t, b, domain.EventRoomJoined)
	req.NoError(json.Unmarshal(joined.Payload, &ack))
	req.Equal([]string{"alice", "bob"}, ack.Participants)
	presence := expect(t, a, domain.EventUserJoined)
	req.JSONEq(`{"userId":"bob","name":"Bob"}`, string(presence.Payload))

	// guest sends an offer to the host only
	send(t, b, "webrtc-offer", map[string]any{
		"meetingId": testMeeting,
		"to":        "alice",
		"offer":     map[string]any{"type": "offer", "sdp": "v=0"},
	})
	offer := expect(t, a, "webrtc-offer-received")
	req.JSONEq(`{"meetingId":"m-1","from":"bob","offer":{"type":"offer","sdp":"v=0"}}`, string(offer.Payload))
	expectSilence(t, b)

	// guest is not the host
	send(t, b, domain.EventRemoveUser, map[string]any{"meetingId": testMeeting, "targetUserId": "alice"})
	refused := expect(t, b, domain.EventError)
	req.JSONEq(`{"message":"Only the host can remove users"}`, string(refused.Payload))

	// blank chat is rejected without broadcast
	send(t, b, domain.EventSendMessage, map[string]any{"meetingId": testMeeting, "content": "   "})
	expect(t, b, domain.EventError)
	expectSilence(t, a)

	// real chat reaches both
	send(t, b, domain.EventSendMessage, map[string]any{"meetingId": testMeeting, "content": "hi"})
	for _, conn := range []*websocket.Conn{a, b} {
		msg := expect(t, conn, domain.EventReceiveMessage)
		var chat domain.ChatMessagePayload
		req.NoError(json.Unmarshal(msg.Payload, &chat))
		req.Equal("hi", chat.Content)
		req.Equal("Bob", chat.Name)
	}

	// host ends the meeting
	send(t, a, domain.EventEndMeeting, map[string]any{"meetingId": testMeeting})
	for _, conn := range []*websocket.Conn{a, b} {
		ended := expect(t, conn, domain.EventMeetingEnded)
		req.JSONEq(`{"meetingId":"m-1","endedBy":"alice"}`, string(ended.Payload))
	}
	req.Eventually(func() bool {
		return len(s.rooms.ActiveRooms()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSocket_ProtocolErrors(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.dial(t, host)

	tests := []struct {
		name      string
		eventType string
		payload   any
		message   string
	}{
		{"unknown event", "dance", nil, "Unknown event"},
		{"join without meeting", domain.EventJoinRoom, map[string]any{}, "Meeting ID is required"},
		{"join unknown meeting", domain.EventJoinRoom, map[string]any{"meetingId": "nope"}, "Meeting not found"},
		{"malformed payload", domain.EventJoinRoom, "not an object", "Invalid payload"},
		{"chat outside room", domain.EventSendMessage, map[string]any{"meetingId": testMeeting, "content": "hi"}, "You are not in this meeting"},
		{"signal without payload", "webrtc-answer", map[string]any{"meetingId": testMeeting, "to": "bob"}, "Invalid payload"},
		{"leave while idle", domain.EventLeaveRoom, nil, "You are not in this meeting"},
	}

	for _, tt := range tests {
		send(t, a, tt.eventType, tt.payload)
		got := expect(t, a, domain.EventError)
		var payload domain.ErrorPayload
		req.NoError(json.Unmarshal(got.Payload, &payload), tt.name)
		req.Equal(tt.message, payload.Message, tt.name)
	}
}

func TestSocket_DisconnectCleansUp(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.dial(t, host)
	b := s.dial(t, guest)

	send(t, a, domain.EventJoinRoom, map[string]any{"meetingId": testMeeting})
	expect(t, a, domain.EventRoomJoined)
	send(t, b, domain.EventJoinRoom, map[string]any{"meetingId": testMeeting})
	expect(t, b, domain.EventRoomJoined)
	expect(t, a, domain.EventUserJoined)

	req.NoError(b.Close())

	left := expect(t, a, domain.EventUserLeft)
	req.JSONEq(`{"userId":"bob","name":"Bob"}`, string(left.Payload))
	req.Equal([]string{"alice"}, s.rooms.Participants(testMeeting))
}

func TestSocket_VoluntaryLeave(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.dial(t, host)

	send(t, a, domain.EventJoinRoom, map[string]any{"meetingId": testMeeting})
	expect(t, a, domain.EventRoomJoined)
	send(t, a, domain.EventLeaveRoom, map[string]any{"meetingId": testMeeting})

	left := expect(t, a, domain.EventRoomLeft)
	req.JSONEq(`{"meetingId":"m-1"}`, string(left.Payload))
	req.Empty(s.rooms.ActiveRooms())
}

func TestSocket_ShutdownWaitsForDisconnects(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.dial(t, host)
	send(t, a, domain.EventJoinRoom, map[string]any{"meetingId": testMeeting})
	expect(t, a, domain.EventRoomJoined)

	// When shutdown is signalled
	s.shutdown()
	s.sockets.Wait()

	// Then the disconnect path already ran and its departure write can be awaited
	req.Empty(s.rooms.ActiveRooms())
	s.runner.Wait()
	rec, ok := s.participants.Get(testMeeting, host.ID)
	req.True(ok)
	req.NotNil(rec.LeftAt)
}

func TestRoomController_Presence(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	a := s.dial(t, host)
	send(t, a, domain.EventJoinRoom, map[string]any{"meetingId": testMeeting})
	expect(t, a, domain.EventRoomJoined)

	get := func(path string, withToken bool) *http.Response {
		r, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
		req.NoError(err)
		if withToken {
			r.Header.Set("Authorization", "Bearer "+s.token(t, guest))
		}
		resp, err := http.DefaultClient.Do(r)
		req.NoError(err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := get("/api/rooms", false)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = get("/api/rooms", true)
	req.Equal(http.StatusOK, resp.StatusCode)
	var rooms struct {
		Rooms []struct {
			MeetingID    string `json:"meeting_id"`
			Participants int    `json:"participants"`
		} `json:"rooms"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&rooms))
	req.Len(rooms.Rooms, 1)
	req.Equal(testMeeting, rooms.Rooms[0].MeetingID)
	req.Equal(1, rooms.Rooms[0].Participants)

	resp = get("/api/rooms/"+testMeeting+"/participants", true)
	req.Equal(http.StatusOK, resp.StatusCode)
	var participants struct {
		Participants []string `json:"participants"`
		Count        int      `json:"count"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&participants))
	req.Equal([]string{"alice"}, participants.Participants)
	req.Equal(1, participants.Count)

	resp = get("/healthz", false)
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestAuthFailure(t *testing.T) {
	req := require.New(t)

	status, _ := authFailure(auth.ErrExpiredCredential)
	req.Equal(http.StatusUnauthorized, status)
	status, msg := authFailure(auth.ErrVerificationFailed)
	req.Equal(http.StatusInternalServerError, status)
	req.Equal("Internal server error", msg)
}

func TestCheckOrigin(t *testing.T) {
	req := require.New(t)
	c := NewSocketController(context.Background(), nil, slogdiscard.NewDiscardLogger(), SocketOptions{
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.True(c.checkOrigin(r))
	r.Header.Set("Origin", "http://localhost:3000")
	req.True(c.checkOrigin(r))
	r.Header.Set("Origin", "http://evil.example")
	req.False(c.checkOrigin(r))
}
