package game

import (
	"errors"
	"fmt"
)

// Move 表示一次从 From 到 To 的走子
type Move struct {
	From Coord
	To   Coord
}

// MoveSize is the encoded length of a move frame.
const MoveSize = 4

var errMoveFrame = errors.New("move frame")

func (m Move) String() string {
	return fmt.Sprintf("%v->%v", m.From, m.To)
}

// Distance 按棋盘几何判定这步是复制还是跳跃
func (m Move) Distance(g *Geometry) Distance {
	return g.Classify(m.From.X, m.From.Y, m.To.X, m.To.Y)
}

// MarshalBinary encodes the move as [sx, sy, dx, dy].
func (m Move) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, MoveSize))
}

// AppendBinary appends the 4-byte encoding of m to dst. dst is returned
// unchanged when a coordinate does not fit in a byte.
func (m Move) AppendBinary(dst []byte) ([]byte, error) {
	for _, v := range [MoveSize]int{m.From.X, m.From.Y, m.To.X, m.To.Y} {
		if v < 0 || v > 0xff {
			return dst, fmt.Errorf("%w: coordinate %d out of byte range", errMoveFrame, v)
		}
	}
	return append(dst, byte(m.From.X), byte(m.From.Y), byte(m.To.X), byte(m.To.Y)), nil
}

// UnmarshalBinary decodes exactly four bytes.
func (m *Move) UnmarshalBinary(data []byte) error {
	if len(data) != MoveSize {
		return fmt.Errorf("%w: want %d bytes, got %d", errMoveFrame, MoveSize, len(data))
	}
	m.From = Coord{X: int(data[0]), Y: int(data[1])}
	m.To = Coord{X: int(data[2]), Y: int(data[3])}
	return nil
}

// EnumerateMoves 枚举 player 的所有合法走法。
// 起点按列（x）外层、行（y）内层扫描，候选落点按 5x5 窗口同样顺序，
// 顺序固定，搜索的平局打散依赖这一点。stopAtFirst 时找到一步即返回。
func EnumerateMoves(b *Board, player CellState, stopAtFirst bool) []Move {
	g := b.geo
	var moves []Move
	if !stopAtFirst {
		moves = make([]Move, 0, 64) // 预分配
	}
	for i, c := range b.cells {
		if c != player {
			continue
		}
		for _, to := range g.reach[i] {
			if b.cells[to] != Empty {
				continue
			}
			moves = append(moves, Move{From: g.coords[i], To: g.coords[to]})
			if stopAtFirst {
				return moves
			}
		}
	}
	return moves
}

// GenerateMoves 是 EnumerateMoves 的完整版本
func GenerateMoves(b *Board, player CellState) []Move {
	return EnumerateMoves(b, player, false)
}

// CountMoves 只计数不分配，评估函数里的机动性用它
func CountMoves(b *Board, player CellState) int {
	n := 0
	for i, c := range b.cells {
		if c != player {
			continue
		}
		for _, to := range b.geo.reach[i] {
			if b.cells[to] == Empty {
				n++
			}
		}
	}
	return n
}

// CanMove 判断 player 是否还有合法走法，找到第一步立即返回
func CanMove(b *Board, player CellState) bool {
	return len(EnumerateMoves(b, player, true)) > 0
}

// ApplyMove 在棋盘上执行一步棋：克隆或跳跃 + 邻居感染。
// 调用方保证走法合法；返回走法的距离类型，非法距离时棋盘不变。
func (b *Board) ApplyMove(m Move, player CellState) Distance {
	d := b.Classify(m.From.X, m.From.Y, m.To.X, m.To.Y)
	switch d {
	case CloneDistance:
		b.SetPieceAt(m.To.X, m.To.Y, player)
	case JumpDistance:
		b.SetPieceAt(m.To.X, m.To.Y, player)
		b.SetPieceAt(m.From.X, m.From.Y, Empty)
	}
	return d
}
