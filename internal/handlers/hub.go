// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/snatchgame/snatch/internal/game"
)

// subscriber is one websocket client attached to a hub. Events are queued on
// a buffered channel and written by a dedicated goroutine, so one slow
// client never stalls the game loop or the other clients.
type subscriber struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans events out to every subscriber of one game. Subscription and
// broadcast share a mutex: a client that subscribes mid-broadcast either
// receives that event or receives a snapshot taken after it, never neither.
type Hub struct {
	logger *logrus.Logger

	mu     sync.Mutex
	subs   map[uuid.UUID]*subscriber
	closed bool
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[uuid.UUID]*subscriber),
	}
}

// Subscribe registers a connection and queues the init snapshot before any
// subsequent event can be interleaved. snapshotFn runs under the hub lock so
// the snapshot and the subscription are atomic with respect to Broadcast.
func (h *Hub) Subscribe(conn *websocket.Conn, snapshotFn func() game.Message) uuid.UUID {
	sub := &subscriber{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return sub.id
	}
	h.subs[sub.id] = sub
	sub.send <- snapshotFn().Encode()
	h.mu.Unlock()

	go h.writeLoop(sub)
	return sub.id
}

// Unsubscribe drops a subscriber and stops its writer.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		sub.close()
	}
}

// Broadcast queues an event for every subscriber. A subscriber whose buffer
// is full is evicted; it can reconnect and recover from a fresh snapshot.
func (h *Hub) Broadcast(m game.Message) {
	data := m.Encode()

	h.mu.Lock()
	var evicted []*subscriber
	for id, sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			h.logger.Warnf("evicting slow subscriber %s", id)
			delete(h.subs, id)
			evicted = append(evicted, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range evicted {
		sub.close()
	}
}

// Shutdown drops all subscribers. Queued events are still flushed by each
// writer before its connection closes.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uuid.UUID]*subscriber)
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// writeLoop drains the subscriber's queue onto the wire in order.
func (h *Hub) writeLoop(sub *subscriber) {
	for data := range sub.send {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := sub.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.logger.Debugf("write to subscriber %s failed: %v", sub.id, err)
			h.Unsubscribe(sub.id)
			// Drain remaining events so Broadcast never blocks on us.
			for range sub.send {
			}
			return
		}
	}
}
