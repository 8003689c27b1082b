package live

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event — сообщение, рассылаемое подписчикам комнаты конкурса.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

const (
	EventScoreRecorded    = "score.recorded"
	EventResultsPublished = "results.published"
)

type ScoreRecordedPayload struct {
	SubmissionID int      `json:"submission_id"`
	FinalScore   *float64 `json:"final_score"`
}

type ResultsPublishedPayload struct {
	CompetitionID int   `json:"competition_id"`
	Published     int64 `json:"published"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	room   string
	closed bool
	mu     sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn, competitionID int) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 16),
		room: roomID(competitionID),
	}
}

// Hub раздаёт события по комнатам, по одной комнате на конкурс.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func roomID(competitionID int) string {
	return "competition:" + strconv.Itoa(competitionID)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("live client registered", "room", client.room, "clients", len(h.rooms[client.room]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, present := clients[client]; present {
					client.mu.Lock()
					if !client.closed {
						close(client.send)
						client.closed = true
					}
					client.mu.Unlock()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// broadcastToRoom не блокируется на медленных клиентах: переполненный
// буфер означает пропуск события для этого клиента.
func (h *Hub) broadcastToRoom(room string, event Event) {
	event.RoomID = room

	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal live event", "room", room, "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			h.logger.Warn("live client send buffer full, dropping event", "room", room, "type", event.Type)
		}
		client.mu.Unlock()
	}
}

// BroadcastScoreRecorded реализует services.ResultsBroadcaster.
func (h *Hub) BroadcastScoreRecorded(competitionID, submissionID int, finalScore *float64) {
	h.broadcastToRoom(roomID(competitionID), Event{
		Type:    EventScoreRecorded,
		Payload: ScoreRecordedPayload{SubmissionID: submissionID, FinalScore: finalScore},
	})
}

// BroadcastResultsPublished реализует services.ResultsBroadcaster.
func (h *Hub) BroadcastResultsPublished(competitionID int, published int64) {
	h.broadcastToRoom(roomID(competitionID), Event{
		Type:    EventResultsPublished,
		Payload: ResultsPublishedPayload{CompetitionID: competitionID, Published: published},
	})
}

func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump читает входящие фреймы только ради keepalive; данные от клиента игнорируются.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("live client read error", "room", c.room, "error", err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
