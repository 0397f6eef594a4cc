package server

import (
	"fmt"
	"sync"

	"github.com/codeduel-vn/codeduel/pkg/logging"
	"github.com/codeduel-vn/codeduel/pkg/utils"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type eventMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type connection struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *connection) writeJson(msg interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return nil
	}
	return c.ws.WriteJSON(msg)
}

// hub tracks live connections and their room channel memberships. Membership
// is connection driven: a client joins a room by token after being told the
// token exists; the hub knows nothing about who "should" be in a room.
type hub struct {
	mu    sync.Mutex
	conns map[string]*connection
	rooms map[string]map[string]*connection
}

func newHub() *hub {
	return &hub{
		conns: make(map[string]*connection),
		rooms: make(map[string]map[string]*connection),
	}
}

func (h *hub) register(ws *websocket.Conn) *connection {
	conn := &connection{
		id: utils.GenerateUUID(),
		ws: ws,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.id] = conn
	return conn
}

func (h *hub) unregister(connId string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connId)
	for token, members := range h.rooms {
		delete(members, connId)
		if len(members) == 0 {
			delete(h.rooms, token)
		}
	}
}

func (h *hub) joinRoom(connId, roomToken string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[connId]
	if !ok {
		return fmt.Errorf("unknown connection: %s", connId)
	}
	members, ok := h.rooms[roomToken]
	if !ok {
		members = make(map[string]*connection)
		h.rooms[roomToken] = members
	}
	members[connId] = conn
	return nil
}

// SendToConnection delivers an event to a single connection.
func (h *hub) SendToConnection(connId, event string, payload any) error {
	h.mu.Lock()
	conn, ok := h.conns[connId]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown connection: %s", connId)
	}
	return conn.writeJson(eventMessage{Type: event, Data: payload})
}

// BroadcastToRoom delivers an event to every connection subscribed to the
// room token. Delivery is best effort; write failures are logged and skipped.
func (h *hub) BroadcastToRoom(roomToken, event string, payload any) {
	h.mu.Lock()
	members := make([]*connection, 0, len(h.rooms[roomToken]))
	for _, conn := range h.rooms[roomToken] {
		members = append(members, conn)
	}
	h.mu.Unlock()

	for _, conn := range members {
		if err := conn.writeJson(eventMessage{Type: event, Data: payload}); err != nil {
			logging.Error("couldn't broadcast to connection",
				zap.String("conn_id", conn.id),
				zap.String("room_token", roomToken),
				zap.Error(err),
			)
		}
	}
}
