package netplay

import (
	"context"
	"fmt"
	"time"

	"infector_go/internal/game"
	"infector_go/internal/logger"

	"github.com/gorilla/websocket"
)

// Client is a joined game seen from the remote side.
type Client struct {
	conn    *wsConn
	header  Header
	seat    game.CellState
	inbound chan Inbound
}

// Dial connects to a host's play URL and waits, bounded by ctx, for the
// header and the start byte.
func Dial(ctx context.Context, url string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	// Unblock the reads below if ctx ends first.
	stop := context.AfterFunc(ctx, func() {
		ws.SetReadDeadline(time.Now())
	})
	hdr, err := awaitStart(ws)
	if !stop() {
		err = ctx.Err()
	}
	if err != nil {
		ws.Close()
		return nil, err
	}
	ws.SetReadDeadline(time.Time{})

	seat := game.SeatPiece(hdr.Seat)
	c := &Client{
		conn:    newWSConn(ws, logger.For("client").With().Int("seat", hdr.Seat).Logger()),
		header:  hdr,
		seat:    seat,
		inbound: make(chan Inbound, sendBufSize),
	}
	go c.conn.writePump()
	go c.readPump()
	c.conn.log.Info().Str("url", url).Msg("joined game")
	return c, nil
}

func awaitStart(ws *websocket.Conn) (Header, error) {
	var hdr Header
	_, data, err := ws.ReadMessage()
	if err != nil {
		return hdr, fmt.Errorf("reading header: %w", err)
	}
	if err := hdr.UnmarshalBinary(data); err != nil {
		return hdr, err
	}
	if hdr.Seat == 0 {
		return hdr, fmt.Errorf("%w: host assigned no seat", ErrBadHeader)
	}
	_, data, err = ws.ReadMessage()
	if err != nil {
		return hdr, fmt.Errorf("waiting for start: %w", err)
	}
	if len(data) != 1 || data[0] != StartByte {
		return hdr, fmt.Errorf("%w: expected start byte, got % x", ErrBadHeader, data)
	}
	return hdr, nil
}

// Header is the game description received from the host.
func (c *Client) Header() Header { return c.header }

// Seat is the seat this client plays.
func (c *Client) Seat() game.CellState { return c.seat }

// GameConfig is the client's view of the game.
func (c *Client) GameConfig() (game.GameConfig, error) { return c.header.GameConfig() }

// Inbound carries moves relayed by the host. Their Seat is Empty.
func (c *Client) Inbound() <-chan Inbound { return c.inbound }

// MoveMade sends moves made at this client's own seat to the host.
func (c *Client) MoveMade(seat game.CellState, m game.Move) {
	if seat != c.seat {
		return
	}
	frame, err := EncodeMove(m)
	if err != nil {
		c.conn.log.Error().Err(err).Msg("encoding move")
		return
	}
	c.conn.enqueue(frame)
}

// Close leaves the game.
func (c *Client) Close() error {
	c.conn.close()
	return nil
}

func (c *Client) readPump() {
	err := c.conn.readMoves(func(m game.Move) {
		c.push(Inbound{Move: m})
	})
	c.conn.close()
	if err != nil {
		c.push(Inbound{Err: fmt.Errorf("host: %w", err)})
	}
}

func (c *Client) push(in Inbound) {
	select {
	case c.inbound <- in:
	case <-c.conn.quit:
		if in.Err != nil {
			// The session still needs to hear about the failure.
			select {
			case c.inbound <- in:
			default:
			}
		}
	}
}
