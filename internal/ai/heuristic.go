// File ai/heuristic.go
package ai

import (
	"infector_go/internal/game"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
)

// 估值权重
const (
	gainWeight     = 5  // 每净得一格
	clusterWeight  = 2  // 己子身边的己子或棋盘边
	threatBonus    = 1  // 敌子在我方两格之内
	exposedPenalty = 4  // 可被对方落子感染的己子
	mobilityDiv    = 10 // 机动性损失的折算
)

// Scored pairs a move with its heuristic value.
type Scored struct {
	Move  game.Move
	Score int
}

// Score 在 b 的副本上模拟 seat 走 m，然后返回启发式分数。
func Score(b *game.Board, seat game.CellState, m game.Move) int {
	after := b.Clone()
	before := after.Score(seat)
	after.ApplyMove(m, seat)
	return evaluate(after, seat, after.Score(seat)-before)
}

// evaluate 给“走完一步之后”的棋盘打分。gained 是这一步的净得格数。
func evaluate(after *game.Board, seat game.CellState, gained int) int {
	g := after.Geometry()
	score := gainWeight * gained

	for i := 0; i < g.Cells(); i++ {
		c := after.Cell(i)
		var own1, ownAll, enemyAll int
		for _, j := range g.Near(i) {
			if after.Cell(int(j)) == seat {
				own1++
			}
		}
		for _, j := range g.Reach(i) {
			switch o := after.Cell(int(j)); {
			case o == seat:
				ownAll++
			case o.IsPlayer():
				enemyAll++
			}
		}

		switch {
		case c == seat:
			score += clusterWeight * (own1 + g.Holes(i))
		case c.IsPlayer():
			if ownAll > 0 {
				score += threatBonus
			}
		case c == game.Empty && enemyAll > 0 && own1 > 0:
			score -= exposedPenalty * own1
			score -= mobilityLoss(after, seat, i, ownAll-own1) / mobilityDiv
		}
	}
	return score
}

// mobilityLoss 假想敌方占了空格 i：身边 own1 个己子被感染，它们的走法全部失去；
// 其余够得着 i 的己子（far 个）各失去落到 i 的那一步。没有新的空格或己子出现，
// 所以损失正好等于 CountMoves 前后之差，不必复制棋盘重算。
func mobilityLoss(after *game.Board, seat game.CellState, i, far int) int {
	g := after.Geometry()
	lost := far
	for _, j := range g.Near(i) {
		if after.Cell(int(j)) != seat {
			continue
		}
		for _, k := range g.Reach(int(j)) {
			if after.Cell(int(k)) == game.Empty {
				lost++
			}
		}
	}
	return lost
}

// RankMoves scores every legal move of the seat to move, best first. Ties
// keep the order of a fresh shuffle, so equal moves come out uniformly at
// random.
func RankMoves(b *game.Board, r *rand.Rand) []Scored {
	seat := b.Player()
	moves := game.GenerateMoves(b, seat)
	if len(moves) == 0 {
		return nil
	}
	ranked := make([]Scored, len(moves))
	after := b.Clone()
	before := b.Score(seat)
	for i, m := range moves {
		after.CopyFrom(b)
		after.ApplyMove(m, seat)
		ranked[i] = Scored{Move: m, Score: evaluate(after, seat, after.Score(seat)-before)}
	}
	r.Shuffle(len(ranked), func(i, j int) { ranked[i], ranked[j] = ranked[j], ranked[i] })
	slices.SortStableFunc(ranked, func(a, b Scored) int { return b.Score - a.Score })
	return ranked
}

// Heuristic 单层启发式：每步打分，取最高分。
type Heuristic struct {
	r *rand.Rand
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Choose(b *game.Board) (game.Move, bool) {
	ranked := RankMoves(b, h.r)
	if len(ranked) == 0 {
		return game.Move{}, false
	}
	return ranked[0].Move, true
}

// Observe is a no-op; the heuristic keeps no state between turns.
func (h *Heuristic) Observe(game.Move, *game.Board) {}
