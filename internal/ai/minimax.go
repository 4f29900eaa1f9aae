// File ai/minimax.go
package ai

import (
	"math"

	"infector_go/internal/game"

	"golang.org/x/exp/rand"
)

// Minimax 固定深度的 alpha-beta 搜索。
// 自己走时取极大，其他任何一方走时都取极小（多人局是近似）。
// 叶子估值 = 自己的格数 - 其他各方格数之和。
type Minimax struct {
	depth int
	r     *rand.Rand
	nodes int
}

func (mm *Minimax) Name() string { return "minimax" }

// Nodes returns how many positions the last Choose visited.
func (mm *Minimax) Nodes() int { return mm.nodes }

func (mm *Minimax) Choose(b *game.Board) (game.Move, bool) {
	me := b.Player()
	moves := game.GenerateMoves(b, me)
	if len(moves) == 0 {
		return game.Move{}, false
	}
	mm.r.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
	mm.nodes = 0

	best := moves[0]
	alpha := math.MinInt32
	for _, m := range moves {
		nb := b.Clone()
		nb.ApplyMove(m, me)
		over := game.FinishTurn(nb, me)
		v := mm.alphaBeta(nb, me, mm.depth-1, alpha, math.MaxInt32, over)
		if v > alpha {
			alpha = v
			best = m
		}
	}
	return best, true
}

// Observe is a no-op; every search starts from the live board.
func (mm *Minimax) Observe(game.Move, *game.Board) {}

func (mm *Minimax) alphaBeta(b *game.Board, me game.CellState, depth, alpha, beta int, over bool) int {
	mm.nodes++
	if depth <= 0 || over {
		return material(b, me)
	}
	current := b.Player()
	moves := game.GenerateMoves(b, current)
	if len(moves) == 0 {
		return material(b, me)
	}

	if current == me {
		// === MAX 节点 ===
		best := math.MinInt32
		for _, m := range moves {
			nb := b.Clone() // 每个孩子一份拷贝，兄弟之间不共享
			nb.ApplyMove(m, current)
			done := game.FinishTurn(nb, current)
			score := mm.alphaBeta(nb, me, depth-1, alpha, beta, done)
			if score > best {
				best = score
			}
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
		return best
	}

	// === MIN 节点 ===
	best := math.MaxInt32
	for _, m := range moves {
		nb := b.Clone()
		nb.ApplyMove(m, current)
		done := game.FinishTurn(nb, current)
		score := mm.alphaBeta(nb, me, depth-1, alpha, beta, done)
		if score < best {
			best = score
		}
		if score < beta {
			beta = score
			if beta <= alpha {
				break
			}
		}
	}
	return best
}

// material is own cells minus everyone else's; absent seats are skipped.
func material(b *game.Board, me game.CellState) int {
	v := 0
	for s, sc := range b.Scores() {
		if sc < 0 {
			continue
		}
		if game.SeatPiece(s+1) == me {
			v += sc
		} else {
			v -= sc
		}
	}
	return v
}
