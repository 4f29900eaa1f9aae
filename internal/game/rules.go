package game

import (
	"errors"
	"fmt"
)

// Phase is the turn engine's state.
type Phase int

const (
	AwaitingSelection Phase = iota
	PieceSelected
	GameOver
)

func (p Phase) String() string {
	switch p {
	case PieceSelected:
		return "piece-selected"
	case GameOver:
		return "game-over"
	}
	return "awaiting-selection"
}

// EventKind names the notifications a game emits.
type EventKind int

const (
	// NoEvent is returned for clicks that are ignored (after game over).
	NoEvent EventKind = iota
	EventPieceSelected
	EventInvalidMove
	EventMoveMade
	EventNetworkError
)

var eventNames = [...]string{"none", "piece-selected", "invalid-move", "move-made", "network-error"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// Event is one notification. Only the fields relevant to Kind are set:
// At for a selection, Move and GameOver for a move, Reason for a network
// error. Seat is the seat that acted.
type Event struct {
	Kind     EventKind
	Seat     CellState
	At       Coord
	Move     Move
	GameOver bool
	Reason   string
}

// Remote moves that break the rules are protocol errors.
var (
	ErrProtocol    = errors.New("protocol error")
	ErrGameOver    = fmt.Errorf("%w: game is over", ErrProtocol)
	ErrNotYourTurn = fmt.Errorf("%w: not this seat's turn", ErrProtocol)
	ErrNotOwnPiece = fmt.Errorf("%w: source is not the seat's piece", ErrProtocol)
	ErrSameSquare  = fmt.Errorf("%w: source equals destination", ErrProtocol)
	ErrOccupied    = fmt.Errorf("%w: destination is not empty", ErrProtocol)
	ErrOutOfRange  = fmt.Errorf("%w: destination is out of range", ErrProtocol)
)

// Engine 驱动回合：选子、落子、换手和终局判定。
// 棋盘只通过它被修改。
type Engine struct {
	b    *Board
	over bool
}

// NewEngine wraps a freshly built board. If the seat to move has no move
// (a board too small for the starting pieces), the turn is passed on as
// after any move, which may end the game at once.
func NewEngine(b *Board) *Engine {
	e := &Engine{b: b}
	if p := b.Player(); !CanMove(b, p) {
		e.over = FinishTurn(b, p)
	}
	return e
}

// Board returns the live board. Callers must not mutate it.
func (e *Engine) Board() *Board { return e.b }

// Over reports whether the game has ended.
func (e *Engine) Over() bool { return e.over }

// Phase derives the state from the board's selection.
func (e *Engine) Phase() Phase {
	if e.over {
		return GameOver
	}
	if _, ok := e.b.SelectedSquare(); ok {
		return PieceSelected
	}
	return AwaitingSelection
}

// Click feeds one board click through the state machine.
func (e *Engine) Click(x, y int) Event {
	if e.over {
		return Event{Kind: NoEvent}
	}
	b := e.b
	mover := b.Player()

	// 点到自己的棋子：（重新）选中
	if b.PieceAt(x, y) == mover {
		b.SetSelectedSquare(x, y)
		return Event{Kind: EventPieceSelected, Seat: mover, At: Coord{X: x, Y: y}}
	}

	sel, ok := b.SelectedSquare()
	if !ok {
		return Event{Kind: EventInvalidMove, Seat: mover, At: Coord{X: x, Y: y}}
	}
	b.ClearSelection()

	m := Move{From: sel, To: Coord{X: x, Y: y}}
	if m.From == m.To || b.PieceAt(x, y) != Empty {
		return Event{Kind: EventInvalidMove, Seat: mover, At: m.To}
	}
	if b.ApplyMove(m, mover) == NotAdjacent {
		return Event{Kind: EventInvalidMove, Seat: mover, At: m.To}
	}

	e.over = FinishTurn(b, mover)
	return Event{Kind: EventMoveMade, Seat: mover, Move: m, GameOver: e.over}
}

// ValidateMove checks a move received for seat without touching the board.
func (e *Engine) ValidateMove(seat CellState, m Move) error {
	b := e.b
	switch {
	case e.over:
		return ErrGameOver
	case seat != b.Player():
		return fmt.Errorf("%w (seat %d, %s to move)", ErrNotYourTurn, seat.Seat(), SeatName(b.Player()))
	case b.At(m.From) != seat:
		return fmt.Errorf("%w at %v", ErrNotOwnPiece, m.From)
	case m.From == m.To:
		return fmt.Errorf("%w at %v", ErrSameSquare, m.From)
	case !b.geo.InBounds(m.To.X, m.To.Y):
		return fmt.Errorf("%w: %v is off the board", ErrOutOfRange, m.To)
	case b.At(m.To) != Empty:
		return fmt.Errorf("%w at %v", ErrOccupied, m.To)
	case m.Distance(b.geo) == NotAdjacent:
		return fmt.Errorf("%w: %v", ErrOutOfRange, m)
	}
	return nil
}

// FinishTurn 换手：跳过没有合法走法的玩家；若一圈下来回到刚走子的一方，
// 游戏结束，剩余空格全部判给 mover（不触发感染）。返回是否终局。
// 搜索里的模拟棋盘也走这里，保证与真实棋盘完全一致。
func FinishTurn(b *Board, mover CellState) bool {
	next := b.NextPlayer()
	for !CanMove(b, next) {
		next = b.NextPlayer()
		if next == mover {
			b.ClaimEmpty(mover)
			return true
		}
	}
	return false
}

// Standings returns the seats with the highest score; more than one on a tie.
func Standings(b *Board) []CellState {
	best := -1
	var top []CellState
	for s := 1; s <= b.NumPlayers(); s++ {
		p := SeatPiece(s)
		switch sc := b.Score(p); {
		case sc > best:
			best = sc
			top = append(top[:0], p)
		case sc == best:
			top = append(top, p)
		}
	}
	return top
}

// ResultText is the end-of-game line shown to players.
func ResultText(b *Board) string {
	top := Standings(b)
	switch len(top) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s wins with %d cells", SeatName(top[0]), b.Score(top[0]))
	}
	s := "Tie between "
	for i, p := range top {
		if i > 0 {
			if i == len(top)-1 {
				s += " and "
			} else {
				s += ", "
			}
		}
		s += SeatName(p)
	}
	return s
}
