package websocket

import (
	"context"
	"fmt"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

type envelope struct {
	sessionID string
	payload   []byte
	result    chan error
}

type countQuery struct {
	sessionID string
	reply     chan int
}

// Hub tracks open clients by session id. All map access happens on the run
// goroutine.
type Hub struct {
	sessions   map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	counts     chan countQuery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan envelope),
		counts:     make(chan countQuery),
		done:       make(chan struct{}),
	}
}

// Run starts the hub; it stops and closes every client when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	go h.run(ctx)
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			clients, ok := h.sessions[client.sessionID]
			if !ok {
				clients = make(map[*Client]struct{})
				h.sessions[client.sessionID] = clients
			}
			clients[client] = struct{}{}
			log.WithCtx(client.ctx).Debug("New client registered", zap.Int("session_clients", len(clients)))

		case client := <-h.unregister:
			if clients, ok := h.sessions[client.sessionID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.sessions, client.sessionID)
					}
					client.Close()
					log.WithCtx(client.ctx).Debug("Client unregistered")
				}
			}

		case env := <-h.outbound:
			env.result <- h.deliver(env)

		case q := <-h.counts:
			q.reply <- h.count(q.sessionID)

		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					client.Close()
				}
			}
			h.sessions = make(map[string]map[*Client]struct{})
			return
		}
	}
}

func (h *Hub) deliver(env envelope) error {
	sent := 0
	for client := range h.sessions[env.sessionID] {
		if !client.IsClosed() && client.SendMessage(env.payload) == nil {
			sent++
		}
	}
	if sent == 0 {
		return fmt.Errorf("no client connected for session %s", env.sessionID)
	}
	return nil
}

func (h *Hub) count(sessionID string) int {
	if sessionID != "" {
		return len(h.sessions[sessionID])
	}
	n := 0
	for _, clients := range h.sessions {
		n += len(clients)
	}
	return n
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToSession delivers message to every client of sessionID.
func (h *Hub) SendToSession(sessionID string, message []byte) error {
	if sessionID == "" {
		return fmt.Errorf("empty session id")
	}
	return h.send(envelope{sessionID: sessionID, payload: message})
}

func (h *Hub) send(env envelope) error {
	env.result = make(chan error, 1)
	select {
	case h.outbound <- env:
		return <-env.result
	case <-h.done:
		return fmt.Errorf("hub stopped")
	}
}

func (h *Hub) IsSessionConnected(sessionID string) bool {
	return h.query(sessionID) > 0
}

func (h *Hub) ClientCount() int {
	return h.query("")
}

func (h *Hub) query(sessionID string) int {
	q := countQuery{sessionID: sessionID, reply: make(chan int, 1)}
	select {
	case h.counts <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}
