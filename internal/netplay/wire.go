// Package netplay carries games with remote seats over WebSocket.
//
// The host sends each client one binary message holding the game header
// (13 bytes followed by the remote addresses), then a one-byte message
// with value 1 once every seat is filled. After that every message in
// either direction is a 4-byte move frame [sx, sy, dx, dy].
package netplay

import (
	"errors"
	"fmt"

	"infector_go/internal/game"
)

const (
	HeaderSize = 13
	// StartByte tells a waiting client that the game begins.
	StartByte byte = 1
	// DefaultPort is the conventional host port.
	DefaultPort = 49152
)

var (
	ErrBadHeader = errors.New("invalid game header")
	ErrBadFrame  = errors.New("invalid move frame")
)

// SeatType is how the host describes a seat on the wire.
type SeatType byte

const (
	SeatHost     SeatType = 0 // played at the host, or not in the game
	SeatComputer SeatType = 1
	SeatRemote   SeatType = 2
)

// SeatInfo describes one seat. Addr is only set for remote seats.
type SeatInfo struct {
	Type SeatType
	Addr string
}

// Header is the game description a client receives before play starts.
type Header struct {
	Shape   game.Shape
	Players int
	Seats   [game.MaxSeats]SeatInfo
	// Seat is the receiving client's seat number, 0 when unassigned.
	Seat          int
	Width, Height int
}

// HeaderFor describes cfg to the client playing seat. addrs holds the
// address of each remote seat, indexed like cfg.Seats.
func HeaderFor(cfg game.GameConfig, seat int, addrs [game.MaxSeats]string) Header {
	h := Header{
		Shape:   cfg.Shape,
		Players: cfg.NumPlayers(),
		Seat:    seat,
		Width:   cfg.Width,
		Height:  cfg.Height,
	}
	for i, k := range cfg.Seats {
		switch k {
		case game.KindComputer:
			h.Seats[i].Type = SeatComputer
		case game.KindRemote:
			h.Seats[i] = SeatInfo{Type: SeatRemote, Addr: addrs[i]}
		}
	}
	return h
}

// MarshalBinary encodes the header followed by the remote addresses.
func (h Header) MarshalBinary() ([]byte, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if h.Width > 0xff || h.Height > 0xff {
		return nil, fmt.Errorf("%w: board %dx%d does not fit", ErrBadHeader, h.Width, h.Height)
	}
	buf := make([]byte, HeaderSize, HeaderSize+64)
	buf[0] = 's'
	if h.Shape == game.Hexagonal {
		buf[0] = 'h'
	}
	buf[1] = byte(h.Players)
	for i, s := range h.Seats {
		if len(s.Addr) > 0xff {
			return nil, fmt.Errorf("%w: address of seat %d too long", ErrBadHeader, i+1)
		}
		buf[2+2*i] = byte(s.Type)
		buf[3+2*i] = byte(len(s.Addr))
	}
	buf[10] = byte(h.Seat)
	buf[11] = byte(h.Width)
	buf[12] = byte(h.Height)
	for _, s := range h.Seats {
		buf = append(buf, s.Addr...)
	}
	return buf, nil
}

// UnmarshalBinary decodes a complete header message.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBadHeader, len(data), HeaderSize)
	}
	var out Header
	switch data[0] {
	case 's':
		out.Shape = game.Square
	case 'h':
		out.Shape = game.Hexagonal
	default:
		return fmt.Errorf("%w: unknown board shape %q", ErrBadHeader, data[0])
	}
	out.Players = int(data[1])
	out.Seat = int(data[10])
	out.Width = int(data[11])
	out.Height = int(data[12])

	rest := data[HeaderSize:]
	for i := range out.Seats {
		t, n := SeatType(data[2+2*i]), int(data[3+2*i])
		if t > SeatRemote {
			return fmt.Errorf("%w: seat %d has unknown type %d", ErrBadHeader, i+1, t)
		}
		if n > len(rest) {
			return fmt.Errorf("%w: address of seat %d truncated", ErrBadHeader, i+1)
		}
		out.Seats[i] = SeatInfo{Type: t, Addr: string(rest[:n])}
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadHeader, len(rest))
	}
	if err := out.validate(); err != nil {
		return err
	}
	*h = out
	return nil
}

func (h Header) validate() error {
	switch {
	case h.Players != 2 && h.Players != 4:
		return fmt.Errorf("%w: %d players", ErrBadHeader, h.Players)
	case h.Shape == game.Hexagonal && h.Players != 2:
		return fmt.Errorf("%w: hexagonal board with %d players", ErrBadHeader, h.Players)
	case h.Seat < 0 || h.Seat > h.Players:
		return fmt.Errorf("%w: client seat %d of %d", ErrBadHeader, h.Seat, h.Players)
	}
	for i, s := range h.Seats {
		if s.Type > SeatRemote {
			return fmt.Errorf("%w: seat %d has unknown type %d", ErrBadHeader, i+1, s.Type)
		}
		if s.Type != SeatRemote && s.Addr != "" {
			return fmt.Errorf("%w: seat %d is not remote but has an address", ErrBadHeader, i+1)
		}
	}
	return nil
}

// GameConfig is the client's view of the game: its own seat is local and
// every other playing seat is remote.
func (h Header) GameConfig() (game.GameConfig, error) {
	cfg := game.GameConfig{Width: h.Width, Height: h.Height, Shape: h.Shape}
	for i := 0; i < h.Players; i++ {
		if h.Seats[i].Type == SeatRemote && h.Seat == i+1 {
			cfg.Seats[i] = game.KindLocal
		} else {
			cfg.Seats[i] = game.KindRemote
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	return cfg, nil
}

// EncodeMove returns the 4-byte frame for m.
func EncodeMove(m game.Move) ([]byte, error) {
	b, err := m.AppendBinary(make([]byte, 0, game.MoveSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return b, nil
}

// DecodeMove parses a 4-byte frame.
func DecodeMove(data []byte) (game.Move, error) {
	var m game.Move
	if err := m.UnmarshalBinary(data); err != nil {
		return m, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return m, nil
}
