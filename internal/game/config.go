package game

import (
	"errors"
	"fmt"
	"strings"
)

// Shape selects the board layout.
type Shape int

const (
	Square Shape = iota
	Hexagonal
)

func (s Shape) String() string {
	if s == Hexagonal {
		return "hex"
	}
	return "square"
}

// ParseShape accepts "square", "hex" or "hexagonal".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "square", "s":
		return Square, nil
	case "hex", "hexagonal", "h":
		return Hexagonal, nil
	}
	return Square, fmt.Errorf("%w: unknown board shape %q", ErrConfig, s)
}

// PlayerKind says who controls a seat.
type PlayerKind int

const (
	KindNone PlayerKind = iota
	KindLocal
	KindComputer
	KindRemote
)

var kindNames = [...]string{"none", "local", "computer", "remote"}

func (k PlayerKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("PlayerKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParsePlayerKind accepts the names printed by String plus "ai" and "human".
func ParsePlayerKind(s string) (PlayerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return KindNone, nil
	case "local", "human":
		return KindLocal, nil
	case "computer", "ai":
		return KindComputer, nil
	case "remote":
		return KindRemote, nil
	}
	return KindNone, fmt.Errorf("%w: unknown player kind %q", ErrConfig, s)
}

// ErrConfig wraps every GameConfig validation failure.
var ErrConfig = errors.New("invalid game config")

const (
	MinBoardSide = 2
	// MaxExtent keeps every coordinate inside one byte of a move frame.
	MaxExtent = 64
)

// GameConfig is fixed for the lifetime of a game.
// Width and Height are the side lengths chosen at setup; for a hexagonal
// board the bounding square grows to Width+Height-1 on both axes.
type GameConfig struct {
	Width, Height int
	Shape         Shape
	Seats         [MaxSeats]PlayerKind
}

// NumPlayers counts seats that take part in the game.
func (c GameConfig) NumPlayers() int {
	n := 0
	for _, k := range c.Seats {
		if k != KindNone {
			n++
		}
	}
	return n
}

// LastPlayer is the highest active seat; turn order wraps after it.
func (c GameConfig) LastPlayer() CellState {
	if c.NumPlayers() == 4 {
		return Player4
	}
	return Player2
}

// KindOf returns the controller of seat p.
func (c GameConfig) KindOf(p CellState) PlayerKind {
	if !p.IsPlayer() {
		return KindNone
	}
	return c.Seats[p-1]
}

// AnyOfKind reports whether at least one seat has kind k.
func (c GameConfig) AnyOfKind(k PlayerKind) bool {
	for _, s := range c.Seats {
		if s == k {
			return true
		}
	}
	return false
}

// Extents returns the bounding-square size of the board.
func (c GameConfig) Extents() (w, h int) {
	if c.Shape == Hexagonal {
		n := c.Width + c.Height - 1
		return n, n
	}
	return c.Width, c.Height
}

// Validate rejects configurations that can never reach a board.
func (c GameConfig) Validate() error {
	if c.Shape != Square && c.Shape != Hexagonal {
		return fmt.Errorf("%w: unknown shape %d", ErrConfig, c.Shape)
	}
	if c.Width < MinBoardSide || c.Height < MinBoardSide {
		return fmt.Errorf("%w: board %dx%d is too small", ErrConfig, c.Width, c.Height)
	}
	if w, h := c.Extents(); w > MaxExtent || h > MaxExtent {
		return fmt.Errorf("%w: board %dx%d exceeds %d cells per side", ErrConfig, w, h, MaxExtent)
	}
	for i, k := range c.Seats {
		if k < KindNone || k > KindRemote {
			return fmt.Errorf("%w: seat %d has unknown kind %d", ErrConfig, i+1, k)
		}
	}
	if c.Seats[0] == KindNone || c.Seats[1] == KindNone {
		return fmt.Errorf("%w: seats 1 and 2 must be occupied", ErrConfig)
	}
	if (c.Seats[2] == KindNone) != (c.Seats[3] == KindNone) {
		return fmt.Errorf("%w: seats 3 and 4 must both be used or both be empty", ErrConfig)
	}
	if c.Shape == Hexagonal && c.NumPlayers() != 2 {
		return fmt.Errorf("%w: hexagonal boards take exactly 2 players, got %d", ErrConfig, c.NumPlayers())
	}
	return nil
}

// DefaultConfig is an 8x8 square board, local player against the computer.
func DefaultConfig() GameConfig {
	return GameConfig{
		Width:  8,
		Height: 8,
		Shape:  Square,
		Seats:  [MaxSeats]PlayerKind{KindLocal, KindComputer, KindNone, KindNone},
	}
}
