package preview

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the browser.
	writeWait = 10 * time.Second

	// Send pings with this period.
	pingPeriod = 50 * time.Second

	// Browsers only ever receive; anything they send is discarded.
	maxMessageSize = 512
)

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, 8),
		server: s,
	}

	select {
	case s.register <- c:
	case <-s.done:
		conn.Close(websocket.StatusGoingAway, "server stopped")
		return
	}

	go c.writePump()
	c.readPump()
}

// Run delivers reload notifications until ctx is cancelled. Connected
// clients are closed on return.
func (s *Server) Run(ctx context.Context) {
	defer s.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-s.register:
			s.clientsMu.Lock()
			s.clients[c.conn] = c
			count := len(s.clients)
			s.clientsMu.Unlock()
			s.logger.Debug(ctx, "browser connected", "clients", count)

		case conn := <-s.unregister:
			s.drop(conn)
			s.logger.Debug(ctx, "browser disconnected", "clients", s.Clients())

		case message := <-s.broadcast:
			s.clientsMu.RLock()
			var failed []*websocket.Conn
			for conn, c := range s.clients {
				select {
				case c.send <- message:
				default:
					failed = append(failed, conn)
				}
			}
			count := len(s.clients)
			s.clientsMu.RUnlock()

			for _, conn := range failed {
				s.drop(conn)
			}
			s.logger.Debug(ctx, "reload sent", "clients", count)
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if c, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(c.send)
	}
}

func (s *Server) stop() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.clientsMu.Lock()
		defer s.clientsMu.Unlock()
		for conn, c := range s.clients {
			delete(s.clients, conn)
			close(c.send)
		}
	})
}

// readPump consumes incoming frames so control messages are handled, and
// unregisters the client once the connection fails.
func (c *client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c.conn:
		case <-c.server.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && status != -1 {
				c.server.logger.Warn(context.Background(), err, "websocket read failed")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
