package infra

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingInterval = pongWait * 9 / 10
)

// SocketHandler serve one message exchange, returning an error closes the connection
type SocketHandler func(c echo.Context, conn *websocket.Conn) error

// Websocket upgrade HTTP requests and keep the connection alive with pings
type Websocket struct {
	upgrader websocket.Upgrader
}

// NewWebsocket allowed origins follow the CORS setting, empty means any origin
func NewWebsocket(origins []string) *Websocket {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Websocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 3 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// WithHeartbeat wrap handler function with a ping heartbeat
func (ws *Websocket) WithHeartbeat(handler SocketHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// upgrader already replied
			return nil
		}

		done := make(chan struct{})
		go heartbeatRoutine(conn, done)
		processRoutine(c, conn, handler)
		close(done)
		return nil
	}
}

func heartbeatRoutine(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func processRoutine(c echo.Context, conn *websocket.Conn, handler SocketHandler) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if err := handler(c, conn); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
