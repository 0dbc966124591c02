package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/carsound-ops/api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 512
	sendBuffer     = 256
)

// Config is what ServeWS needs to admit a subscriber.
type Config struct {
	JWTSecret string
	// AllowedOrigins mirrors the CORS list. "*" or an empty list admits any
	// origin; requests without an Origin header are always admitted.
	AllowedOrigins []string
}

func (c Config) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Client is one dashboard listening on a single topic. Dashboards never send
// anything, so the read side only tracks liveness.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	topic string
	user  string
	send  chan []byte
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithFields(log.Fields{"topic": c.topic, "user": c.user}).Warn("websocket closed unexpectedly")
			}
			return
		}
	}
}

// writePump sends each event as its own text frame so clients can decode
// frames without splitting them.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS subscribes a dashboard to a topic.
// Endpoint: WS /ws/{topic}?token=JWT
func ServeWS(hub *Hub, cfg Config, w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateToken(cfg.JWTSecret, tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	topic := chi.URLParam(r, "topic")
	if !hub.HasTopic(topic) {
		http.Error(w, "unknown topic", http.StatusNotFound)
		return
	}
	if !hub.CanSubscribe(topic, claims.Role) {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     cfg.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.WithError(err).WithField("topic", topic).Warn("websocket upgrade")
		return
	}

	client := &Client{
		hub:   hub,
		conn:  conn,
		topic: topic,
		user:  claims.Name,
		send:  make(chan []byte, sendBuffer),
	}
	if !hub.join(client) {
		conn.Close()
		return
	}
	log.WithFields(log.Fields{"topic": topic, "user": claims.Name, "role": claims.Role}).Debug("websocket subscribed")

	go client.writePump()
	go client.readPump()
}
