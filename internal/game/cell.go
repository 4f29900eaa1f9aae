// File game/cell.go
package game

import "fmt"

// CellState represents the state of a cell on the board.
// It can be Empty, owned by one of the four seats, or OutOfBounds for
// positions that do not exist (chopped corners of a hexagonal board).
type CellState int8

const (
	Empty CellState = iota
	Player1
	Player2
	Player3
	Player4
	OutOfBounds
)

const numStates = int(OutOfBounds) + 1

// MaxSeats is the number of seats a game can have.
const MaxSeats = 4

// IsPlayer reports whether c is one of the four seats.
func (c CellState) IsPlayer() bool {
	return c >= Player1 && c <= Player4
}

// Seat returns the 1-based seat number, or 0 for non-player states.
func (c CellState) Seat() int {
	if !c.IsPlayer() {
		return 0
	}
	return int(c)
}

// SeatPiece converts a 1-based seat number to its CellState.
func SeatPiece(seat int) CellState {
	if seat < 1 || seat > MaxSeats {
		return Empty
	}
	return CellState(seat)
}

var seatNames = [...]string{"", "Red", "Green", "Blue", "Yellow"}

// SeatName is the colour name shown to players.
func SeatName(c CellState) string {
	if !c.IsPlayer() {
		return ""
	}
	return seatNames[c]
}

func (c CellState) String() string {
	switch {
	case c == Empty:
		return "empty"
	case c == OutOfBounds:
		return "hole"
	case c.IsPlayer():
		return SeatName(c)
	}
	return fmt.Sprintf("CellState(%d)", int(c))
}

// Coord is a cell position in bounding-square coordinates.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}
