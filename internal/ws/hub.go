// Package ws tracks live websocket connections and the rooms they joined.
package ws

import (
	"log/slog"
	"sync"

	"Lee_Gateway/internal/gateway"
)

const sendBuffer = 64

type room map[gateway.ConnectionID]struct{}

type client struct {
	send chan []byte
	// 每类房间同一时刻只加入一个，新加入时离开旧的
	user, post, community uint64
}

// Hub implements gateway.Rooms.
type Hub struct {
	mu          sync.RWMutex
	nextID      gateway.ConnectionID
	clients     map[gateway.ConnectionID]*client
	users       map[uint64]room
	posts       map[uint64]room
	communities map[uint64]room
}

var _ gateway.Rooms = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[gateway.ConnectionID]*client),
		users:       make(map[uint64]room),
		posts:       make(map[uint64]room),
		communities: make(map[uint64]room),
	}
}

// Connect 分配连接 ID，返回该连接的发送队列
func (h *Hub) Connect() (gateway.ConnectionID, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := &client{send: make(chan []byte, sendBuffer)}
	h.clients[h.nextID] = c
	return h.nextID, c.send
}

func (h *Hub) Disconnect(id gateway.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	leave(h.users, c.user, id)
	leave(h.posts, c.post, id)
	leave(h.communities, c.community, id)
	delete(h.clients, id)
	close(c.send)
}

func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) JoinUser(conn gateway.ConnectionID, userID uint64) {
	h.join(h.users, conn, userID, func(c *client) *uint64 { return &c.user })
}

func (h *Hub) JoinPost(conn gateway.ConnectionID, postID uint64) {
	h.join(h.posts, conn, postID, func(c *client) *uint64 { return &c.post })
}

func (h *Hub) JoinCommunity(conn gateway.ConnectionID, communityID uint64) {
	h.join(h.communities, conn, communityID, func(c *client) *uint64 { return &c.community })
}

func (h *Hub) PostOnline(postID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.posts[postID])
}

func (h *Hub) CommunityOnline(communityID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.communities[communityID])
}

func (h *Hub) SendUser(op gateway.Tag, v any, userID uint64, skip *gateway.ConnectionID) {
	h.broadcast(h.users, op, v, userID, skip)
}

func (h *Hub) SendPost(op gateway.Tag, v any, postID uint64, skip *gateway.ConnectionID) {
	h.broadcast(h.posts, op, v, postID, skip)
}

func (h *Hub) SendCommunity(op gateway.Tag, v any, communityID uint64, skip *gateway.ConnectionID) {
	h.broadcast(h.communities, op, v, communityID, skip)
}

func (h *Hub) join(rooms map[uint64]room, conn gateway.ConnectionID, key uint64, slot func(*client) *uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	cur := slot(c)
	leave(rooms, *cur, conn)
	r, ok := rooms[key]
	if !ok {
		r = make(room)
		rooms[key] = r
	}
	r[conn] = struct{}{}
	*cur = key
}

func (h *Hub) broadcast(rooms map[uint64]room, op gateway.Tag, v any, key uint64, skip *gateway.ConnectionID) {
	msg, err := gateway.Serialize(op, v)
	if err != nil {
		slog.Error("serialize broadcast failed",
			slog.String("op", string(op)),
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range rooms[key] {
		if skip != nil && *skip == id {
			continue
		}
		offer(id, h.clients[id], msg)
	}
}

func offer(id gateway.ConnectionID, c *client, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		slog.Warn("socket send queue full, dropping message",
			slog.Uint64("conn", uint64(id)),
			slog.String("module", "socket"),
		)
		return false
	}
}

func leave(rooms map[uint64]room, key uint64, conn gateway.ConnectionID) {
	if key == 0 {
		return
	}
	r := rooms[key]
	delete(r, conn)
	if len(r) == 0 {
		delete(rooms, key)
	}
}
