package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 32
)

// Message is the frame pushed to a connected user.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// TokenParser resolves an access token to the caller identity.
type TokenParser func(ctx context.Context, token string) (domain.Identity, error)

// Client is one open connection; a user may hold several (one per tab).
type Client struct {
	UserID int64
	Role   domain.UserRole
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

type delivery struct {
	userID int64
	data   []byte
}

// Hub keeps the connected clients per user and fans notifications out to them.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	online     chan chan int
	done       chan struct{}

	upgrader   websocket.Upgrader
	parseToken TokenParser
	logger     *zap.Logger
}

func NewHub(parseToken TokenParser, allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		online:     make(chan chan int),
		done:       make(chan struct{}),
		parseToken: parseToken,
		logger:     logger,
	}

	h.upgrader = websocket.Upgrader{
		CheckOrigin:     originChecker(allowedOrigins),
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}

	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Run owns the client registry until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
			}
			h.clients = make(map[int64]map[*Client]struct{})
			return

		case client := <-h.register:
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			h.logger.Debug("клиент подключен",
				zap.Int64("userID", client.UserID),
				zap.String("role", string(client.Role)))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debug("клиент отключен", zap.Int64("userID", client.UserID))

		case d := <-h.deliver:
			for client := range h.clients[d.userID] {
				select {
				case client.Send <- d.data:
				default:
					// slow consumer
					h.logger.Warn("буфер клиента переполнен, соединение закрыто", zap.Int64("userID", d.userID))
					h.remove(client)
				}
			}

		case reply := <-h.online:
			reply <- len(h.clients)
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
}

// Push queues a notification for every connection of the user. Offline users are skipped.
func (h *Hub) Push(ctx context.Context, userID int64, notification domain.Notification) error {
	data, err := json.Marshal(Message{
		Type:      "notification",
		Data:      notification,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	select {
	case h.deliver <- delivery{userID: userID, data: data}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnlineUsers returns the number of users with at least one open connection.
func (h *Hub) OnlineUsers(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.online <- reply:
		return <-reply
	case <-h.done:
		return 0
	case <-ctx.Done():
		return 0
	}
}

// HandleWebSocket upgrades an authenticated request; the token comes in the "token" query parameter.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "отсутствует токен"})
		return
	}

	identity, err := h.parseToken(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("недействительный токен websocket", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "недействительный токен"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ошибка установки websocket соединения", zap.Error(err))
		return
	}

	client := &Client{
		UserID: identity.UserID,
		Role:   identity.Role,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		Hub:    h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only keeps the connection alive; clients never send payloads.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("ошибка websocket", zap.Int64("userID", c.UserID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Warn("ошибка отправки сообщения websocket",
					zap.Int64("userID", c.UserID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
