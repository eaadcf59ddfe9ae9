package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"inkwell/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// a client this far over its rate limit is disconnected
	rateLimitCutoff = 1000
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Limits bounds how fast one client may push events.
type Limits struct {
	MessagesPerSecond float64
	Burst             int
}

// Client is one websocket connection: the read pump feeds the protocol
// handler, the write pump drains the send channel the hub fills.
type Client struct {
	hub     *Hub
	handler *session.Handler
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	log     *zap.Logger

	id     string
	roomID string // delivery group, maintained by the hub
	sess   *session.Conn
}

// Serve upgrades the request and runs the connection. A ?room= query
// parameter joins that room immediately; otherwise the client is expected to
// send a join-room event.
func Serve(hub *Hub, handler *session.Handler, limits Limits, log *zap.Logger, w http.ResponseWriter, r *http.Request) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.New().String()
	c := &Client{
		hub:     hub,
		handler: handler,
		conn:    conn,
		send:    make(chan []byte, 512),
		limiter: rate.NewLimiter(rate.Limit(limits.MessagesPerSecond), limits.Burst),
		log:     log,
		id:      clientID,
		sess:    session.NewConn(clientID),
	}

	hub.Register(c)
	go c.writePump()
	go c.readPump(r.URL.Query().Get("room"))
}

func (c *Client) readPump(autoJoin string) {
	defer func() {
		c.handler.HandleDisconnect(c.sess)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Delivery-group membership is the handler's job via the hub's
	// session.Sender surface, so it is ordered against the frames the
	// handler emits.
	if autoJoin != "" {
		c.handler.HandleJoin(c.sess, autoJoin)
	}

	violations := 0
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			violations++
			if violations%100 == 1 {
				c.log.Warn("rate limit exceeded",
					zap.String("client", c.id),
					zap.Int("violations", violations))
			}
			if violations > rateLimitCutoff {
				c.log.Warn("disconnecting client for sustained rate abuse",
					zap.String("client", c.id))
				return
			}
			continue
		}

		c.handler.HandleMessage(c.sess, message)
	}
}

func (c *Client) writePump() {
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
