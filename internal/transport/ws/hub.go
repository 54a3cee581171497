package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/service"
)

// Hub is the connection registry: it tracks every live connection per
// identity and per-chat room membership per connection. Room state is
// ephemeral; nothing here touches the durable store.
type Hub struct {
	mu sync.RWMutex

	// clients holds live connections keyed by user id. An identity may hold
	// several connections at once; each is tracked independently.
	clients map[uuid.UUID]map[*Client]struct{}

	// rooms holds the connections currently viewing each chat.
	rooms map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	messages *service.MessageService
	chats    *service.ChatService
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Bind attaches the services that incoming events are routed to. Called
// once during wiring, before Run.
func (h *Hub) Bind(messages *service.MessageService, chats *service.ChatService) {
	h.messages = messages
	h.chats = chats
}

// Run starts the hub's register/unregister loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.user.ID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[client.user.ID] = conns
	}
	conns[client] = struct{}{}
	log.Printf("ws hub: user %s connected (%d conns)", client.user.ID, len(conns))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.user.ID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.user.ID)
	}
	for chatID := range client.rooms {
		h.dropFromRoom(client, chatID)
	}
	close(client.send)
	log.Printf("ws hub: user %s disconnected", client.user.ID)
}

// JoinRoom adds one connection to a chat room.
func (h *Hub) JoinRoom(client *Client, chatID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinRoomLocked(client, chatID)
}

// JoinRoomAll adds every live connection of the identity to the room,
// mirroring a mark-chat-active from any device.
func (h *Hub) JoinRoomAll(userID, chatID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[userID] {
		h.joinRoomLocked(client, chatID)
	}
}

func (h *Hub) joinRoomLocked(client *Client, chatID uuid.UUID) {
	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[chatID] = room
	}
	room[client] = struct{}{}
	client.rooms[chatID] = struct{}{}
}

// LeaveRoom removes one connection from a chat room.
func (h *Hub) LeaveRoom(client *Client, chatID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromRoom(client, chatID)
}

func (h *Hub) dropFromRoom(client *Client, chatID uuid.UUID) {
	delete(client.rooms, chatID)
	room, ok := h.rooms[chatID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, chatID)
	}
}

// MembersOf resolves each connection in the room to its identity id.
// Implements service.Presence.
func (h *Hub) MembersOf(chatID uuid.UUID) map[uuid.UUID]struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make(map[uuid.UUID]struct{})
	for client := range h.rooms[chatID] {
		members[client.user.ID] = struct{}{}
	}
	return members
}

// IsOnline reports whether the identity has at least one live connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ToUser sends an event to every connection of one identity (the personal
// channel). A no-op when the identity has no connections.
func (h *Hub) ToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		client.trySend(data)
	}
}

// ToRoom sends an event to every connection in the chat room, optionally
// skipping one connection (e.g. the typing sender).
func (h *Hub) ToRoom(chatID uuid.UUID, event *Event, exclude *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[chatID] {
		if client == exclude {
			continue
		}
		client.trySend(data)
	}
}
