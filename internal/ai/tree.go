// File ai/tree.go
package ai

import (
	"time"

	"infector_go/internal/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// terminalBonus dominates any heuristic label once a line ends the game.
const terminalBonus = 1 << 20

const noNode = int32(-1)

// node 是搜索树的一个节点。棋盘归节点独有，parent 只是下标。
type node struct {
	move     game.Move
	board    *game.Board
	label    int            // 走出 move 那一方视角的启发式分数
	mover    game.CellState // 走出 move 的一方
	over     bool
	parent   int32
	children []int32
	expanded bool
}

// Tree 缓存的走法树：根永远对应真实棋盘。每走一步真实的棋，
// 对应的孩子变成新根，兄弟子树全部回收，再按 BFS 把树长回目标深度。
// 节点放在 arena 里，用下标互相引用，空位进 free 列表复用。
type Tree struct {
	nodes  []node
	free   []int32
	root   int32
	live   int
	depth  int
	budget int
	limit  time.Duration
	r      *rand.Rand
}

func newTree(b *game.Board, depth, budget int, limit time.Duration, r *rand.Rand) *Tree {
	t := &Tree{depth: depth, budget: budget, limit: limit, r: r, root: noNode}
	t.reset(b)
	return t
}

func (t *Tree) Name() string { return "tree" }

// Nodes is the number of live nodes in the arena.
func (t *Tree) Nodes() int { return t.live }

// Root returns the board held by the current root.
func (t *Tree) Root() *game.Board { return t.nodes[t.root].board }

func (t *Tree) alloc(n node) int32 {
	t.live++
	if k := len(t.free); k > 0 {
		i := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[i] = n
		return i
	}
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

// release 回收以 i 为根的整棵子树
func (t *Tree) release(i int32) {
	stack := []int32{i}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, t.nodes[k].children...)
		t.nodes[k] = node{parent: noNode}
		t.free = append(t.free, k)
		t.live--
	}
}

// reset 丢掉整棵树，从 b 重新建
func (t *Tree) reset(b *game.Board) {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.live = 0
	t.root = t.alloc(node{board: b.Clone(), parent: noNode})
	t.grow()
}

// expand 给节点 i 生成全部孩子。每个孩子在自己的棋盘副本上模拟。
func (t *Tree) expand(i int32) {
	b := t.nodes[i].board
	mover := b.Player()
	moves := game.GenerateMoves(b, mover)
	before := b.Score(mover)
	children := make([]int32, 0, len(moves))
	for _, m := range moves {
		nb := b.Clone()
		nb.ApplyMove(m, mover)
		label := evaluate(nb, mover, nb.Score(mover)-before)
		over := game.FinishTurn(nb, mover)
		if over {
			if isWinner(nb, mover) {
				label += terminalBonus
			} else {
				label -= terminalBonus
			}
		}
		// alloc 可能让 t.nodes 扩容，之后不能再持有旧的 node 指针
		c := t.alloc(node{move: m, board: nb, label: label, mover: mover, over: over, parent: i})
		children = append(children, c)
	}
	t.nodes[i].children = children
	t.nodes[i].expanded = true
}

// grow 从根做 BFS：已展开的节点往下走，未展开的叶子在深度不足时展开一层。
// 节点数到 budget 或用时超过 limit 后不再展开（根除外），剩下的留到下一手。
func (t *Tree) grow() {
	type item struct {
		idx   int32
		depth int
	}
	var deadline time.Time
	if t.limit > 0 {
		deadline = time.Now().Add(t.limit)
	}
	queue := []item{{t.root, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		n := &t.nodes[it.idx]
		if n.over || it.depth >= t.depth {
			continue
		}
		if !n.expanded {
			if it.idx != t.root {
				if t.live >= t.budget {
					continue
				}
				if !deadline.IsZero() && time.Now().After(deadline) {
					return
				}
			}
			t.expand(it.idx)
		}
		for _, c := range t.nodes[it.idx].children {
			queue = append(queue, item{c, it.depth + 1})
		}
	}
}

// Observe 真实棋盘上走了 m 之后调用：匹配的孩子成为新根，其余回收。
// 找不到或哈希对不上时记一条警告并整棵重建。
func (t *Tree) Observe(m game.Move, live *game.Board) {
	root := &t.nodes[t.root]
	next := noNode
	for _, c := range root.children {
		if t.nodes[c].move == m {
			next = c
			break
		}
	}
	if next == noNode {
		log.Debug().Stringer("move", m).Msg("move not in tree, rebuilding")
		t.reset(live)
		return
	}
	nb := t.nodes[next].board
	if nb.Hash() != live.Hash() || nb.Player() != live.Player() {
		log.Warn().Msgf("node's board hash %d does not match live board hash %d", nb.Hash(), live.Hash())
		t.reset(live)
		return
	}

	old := t.root
	for _, c := range t.nodes[old].children {
		if c != next {
			t.release(c)
		}
	}
	t.nodes[old].children = nil
	t.release(old)
	t.nodes[next].parent = noNode
	t.root = next
	t.grow()
}

// Choose 在根的孩子里按回推值取最大，多个相同随机选一个。
func (t *Tree) Choose(b *game.Board) (game.Move, bool) {
	root := t.nodes[t.root].board
	if root.Hash() != b.Hash() || root.Player() != b.Player() {
		log.Warn().Msgf("tree root hash %d does not match board hash %d", root.Hash(), b.Hash())
		t.reset(b)
	}
	if !t.nodes[t.root].expanded {
		t.expand(t.root)
	}
	children := t.nodes[t.root].children
	if len(children) == 0 {
		return game.Move{}, false
	}

	deep := t.complete(children)
	var best []int32
	bestVal := 0
	for _, c := range children {
		v := t.levelValue(c, deep)
		switch {
		case len(best) == 0 || v > bestVal:
			bestVal = v
			best = append(best[:0], c)
		case v == bestVal:
			best = append(best, c)
		}
	}
	pick := best[t.r.Intn(len(best))]
	return t.nodes[pick].move, true
}

// value 回推：自己的标签减去下一个走子方最好的回应；
// 对手都被跳过、又轮到自己时则加上。
func (t *Tree) value(i int32) int {
	n := &t.nodes[i]
	if len(n.children) == 0 {
		return n.label
	}
	deep := t.complete(n.children)
	reply := 0
	for k, c := range n.children {
		if v := t.levelValue(c, deep); k == 0 || v > reply {
			reply = v
		}
	}
	if t.nodes[n.children[0]].mover == n.mover {
		return n.label + reply
	}
	return n.label - reply
}

// complete 报告一组兄弟是否都展开过（或已终局）。时间或节点预算用完时
// 可能只展开了一部分，这时兄弟之间只比标签，免得深浅不一。
func (t *Tree) complete(children []int32) bool {
	for _, c := range children {
		if n := &t.nodes[c]; !n.expanded && !n.over {
			return false
		}
	}
	return true
}

func (t *Tree) levelValue(c int32, deep bool) int {
	if deep {
		return t.value(c)
	}
	return t.nodes[c].label
}

func isWinner(b *game.Board, p game.CellState) bool {
	for _, s := range game.Standings(b) {
		if s == p {
			return true
		}
	}
	return false
}
