package netplay

import (
	"errors"
	"sync"
	"time"

	"infector_go/internal/game"
	"infector_go/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 1024
	sendBufSize = 64
)

// ErrPeerGone is reported when a connection drops during a game.
var ErrPeerGone = errors.New("connection lost")

// Inbound is one event from the network: a move for Seat, or Err when the
// peer misbehaved or disconnected. Seat is Empty on clients, where moves
// belong to whichever seat is to move.
type Inbound struct {
	Seat game.CellState
	Move game.Move
	Err  error
}

// Deliver hands one network event to the session. Rule violations are
// reported by the session itself as a network error.
func Deliver(s *session.Session, in Inbound) {
	if in.Err != nil {
		s.Fail(in.Err.Error())
		return
	}
	seat := in.Seat
	if seat == game.Empty {
		seat = s.Board().Player()
	}
	_ = s.ApplyRemote(seat, in.Move)
}

// Drain delivers everything queued on ch without blocking.
func Drain(s *session.Session, ch <-chan Inbound) {
	for {
		select {
		case in, ok := <-ch:
			if !ok {
				return
			}
			Deliver(s, in)
		default:
			return
		}
	}
}

// wsConn wraps one WebSocket with a buffered writer goroutine.
type wsConn struct {
	ws   *websocket.Conn
	send chan []byte
	quit chan struct{}
	once sync.Once
	log  zerolog.Logger
}

func newWSConn(ws *websocket.Conn, log zerolog.Logger) *wsConn {
	return &wsConn{
		ws:   ws,
		send: make(chan []byte, sendBufSize),
		quit: make(chan struct{}),
		log:  log,
	}
}

// enqueue never blocks; a peer that cannot keep up is dropped in the
// background.
func (c *wsConn) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.quit:
		return false
	default:
		c.log.Warn().Msg("send buffer full, dropping connection")
		go c.close()
		return false
	}
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.quit)
		// WriteControl may run alongside writePump.
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.ws.Close()
	})
}

func (c *wsConn) closed() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// writePump writes queued messages and keeps the connection alive.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.quit:
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, message); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readMoves reads move frames until the connection fails and reports each
// one through deliver. It returns the error that ended the loop, or nil
// when the connection was closed locally.
func (c *wsConn) readMoves(deliver func(game.Move)) error {
	c.ws.SetReadLimit(maxMsgSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed() {
				return nil
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected close")
			}
			return ErrPeerGone
		}
		if mt != websocket.BinaryMessage {
			return ErrBadFrame
		}
		m, err := DecodeMove(data)
		if err != nil {
			return err
		}
		deliver(m)
	}
}
