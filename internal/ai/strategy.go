package ai

import (
	"fmt"
	"strings"
	"time"

	"infector_go/internal/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Strategy picks moves for computer seats. Choose must not modify b.
// Observe is called after every real move, whoever made it, with the
// live board as it stands afterwards.
type Strategy interface {
	Name() string
	Choose(b *game.Board) (game.Move, bool)
	Observe(m game.Move, b *game.Board)
}

// Kind selects a Strategy implementation.
type Kind int

const (
	KindTree Kind = iota
	KindHeuristic
	KindMinimax
)

func (k Kind) String() string {
	switch k {
	case KindHeuristic:
		return "heuristic"
	case KindMinimax:
		return "minimax"
	}
	return "tree"
}

// ParseKind accepts the names printed by String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tree", "":
		return KindTree, nil
	case "heuristic":
		return KindHeuristic, nil
	case "minimax":
		return KindMinimax, nil
	}
	return KindTree, fmt.Errorf("unknown ai strategy %q", s)
}

const (
	DefaultDepth     = 2
	DefaultBudget    = 20000
	// DefaultTimeLimit keeps a turn well inside the 500ms reveal delay.
	DefaultTimeLimit = 150 * time.Millisecond
)

type Option func(o *options)

type options struct {
	depth  int
	budget int
	limit  time.Duration
	r      *rand.Rand
}

// WithDepth sets the ply limit for minimax and the tree.
func WithDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.depth = depth
		}
	}
}

// WithNodeBudget caps the number of live tree nodes.
func WithNodeBudget(nodes int) Option {
	return func(o *options) {
		if nodes > 0 {
			o.budget = nodes
		}
	}
}

// WithTimeLimit bounds how long the tree keeps expanding after each move.
// Zero or less removes the bound and leaves only the node budget.
func WithTimeLimit(d time.Duration) Option {
	return func(o *options) {
		o.limit = d
	}
}

// WithSeed makes tie-breaking reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.r = rand.New(rand.NewSource(seed))
	}
}

// WithRand shares an existing random source.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		if r != nil {
			o.r = r
		}
	}
}

// New builds a strategy for the game on b. The tree variant starts
// expanding from b immediately.
func New(kind Kind, b *game.Board, opts ...Option) Strategy {
	o := options{depth: DefaultDepth, budget: DefaultBudget, limit: DefaultTimeLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.r == nil {
		o.r = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	switch kind {
	case KindHeuristic:
		return &Heuristic{r: o.r}
	case KindMinimax:
		return &Minimax{depth: o.depth, r: o.r}
	}
	return newTree(b, o.depth, o.budget, o.limit, o.r)
}

// Timed wraps Choose with debug logging of the pick and the time spent.
func Timed(s Strategy, b *game.Board) (game.Move, bool) {
	start := time.Now()
	m, ok := s.Choose(b)
	ev := log.Debug().
		Str("strategy", s.Name()).
		Str("seat", game.SeatName(b.Player())).
		Bool("found", ok).
		Dur("elapsed", time.Since(start))
	if ok {
		ev = ev.Stringer("move", m)
	}
	if c, isCounter := s.(interface{ Nodes() int }); isCounter {
		ev = ev.Int("nodes", c.Nodes())
	}
	ev.Msg("move chosen")
	return m, ok
}
