package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seanybaggins/es38/pkg/log"
)

const (
	writeDeadline = 10 * time.Second
	pongDeadline  = 60 * time.Second
	pingPeriod    = 30 * time.Second
)

// wsClient is one connected stream subscriber.
type wsClient struct {
	id     string
	conn   *websocket.Conn
	sendCh chan Reading
	done   chan struct{}
	logger *log.Logger
	mu     sync.Mutex
}

// send queues a reading, dropping it if the client is slow.
func (c *wsClient) send(r Reading) {
	select {
	case c.sendCh <- r:
	case <-c.done:
	default:
		c.logger.WithField("client", c.id).Debug("dropping reading, send queue full")
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	c.conn.Close()
}

// readPump consumes inbound frames until the peer goes away. The
// stream has no inbound protocol; reads only serve close detection
// and pong handling.
func (c *wsClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongDeadline))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithFields(log.Fields{"client": c.id, "error": err.Error()}).Debug("stream read ended")
			}
			return
		}
	}
}

// writePump delivers queued readings and keepalive pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case reading := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteJSON(reading); err != nil {
				c.logger.WithFields(log.Fields{"client": c.id, "error": err.Error()}).Debug("stream write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
