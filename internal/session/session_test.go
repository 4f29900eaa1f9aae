package session

import (
	"testing"

	"infector_go/internal/ai"
	"infector_go/internal/game"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type sentMove struct {
	seat game.CellState
	move game.Move
}

type fakePeer struct {
	moves  []sentMove
	closed int
}

func (p *fakePeer) MoveMade(seat game.CellState, m game.Move) {
	p.moves = append(p.moves, sentMove{seat, m})
}

func (p *fakePeer) Close() error {
	p.closed++
	return nil
}

type recorder struct {
	events []game.Event
}

func (r *recorder) listen(ev game.Event) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []game.EventKind {
	out := make([]game.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func newSession(t *testing.T, seats ...game.PlayerKind) (*Session, *recorder) {
	t.Helper()
	cfg := game.GameConfig{Width: 6, Height: 6, Shape: game.Square}
	copy(cfg.Seats[:], seats)
	s, err := New(cfg, ai.KindHeuristic, ai.WithSeed(1))
	require.NoError(t, err)
	rec := &recorder{}
	s.Subscribe(rec.listen)
	return s, rec
}

func mv(sx, sy, dx, dy int) game.Move {
	return game.Move{From: game.Coord{X: sx, Y: sy}, To: game.Coord{X: dx, Y: dy}}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(game.GameConfig{Width: 6, Height: 6}, ai.KindTree)
	require.ErrorIs(t, err, game.ErrConfig)
}

func TestLocalClicks(t *testing.T) {
	s, rec := newSession(t, game.KindLocal, game.KindLocal)
	peer := &fakePeer{}
	s.AttachPeer(peer)
	require.NotEqual(t, uuid.Nil, s.ID())
	s.Start()
	require.Empty(t, rec.events)

	s.OnCellClicked(3, 3)
	s.OnCellClicked(0, 5)
	require.Equal(t, game.PieceSelected, s.Phase())
	s.OnCellClicked(1, 4)

	require.Equal(t, []game.EventKind{game.EventInvalidMove, game.EventPieceSelected, game.EventMoveMade}, rec.kinds())
	last := rec.events[2]
	require.Equal(t, game.Player1, last.Seat)
	require.Equal(t, mv(0, 5, 1, 4), last.Move)
	require.Equal(t, []sentMove{{game.Player1, mv(0, 5, 1, 4)}}, peer.moves)
	require.Equal(t, game.Player2, s.Board().Player())
}

func TestComputerRevealAndResume(t *testing.T) {
	s, rec := newSession(t, game.KindComputer, game.KindLocal)
	s.Start()

	p, ok := s.Pending()
	require.True(t, ok)
	require.Equal(t, game.Player1, p.Seat)
	sel, hasSel := s.Board().SelectedSquare()
	require.True(t, hasSel)
	require.Equal(t, p.Move.From, sel)
	require.Equal(t, []game.EventKind{game.EventPieceSelected}, rec.kinds())

	// 亮起起点期间本地点击一律忽略
	s.OnCellClicked(0, 0)
	require.Len(t, rec.events, 1)

	s.Resume()
	_, ok = s.Pending()
	require.False(t, ok)
	require.Equal(t, []game.EventKind{game.EventPieceSelected, game.EventMoveMade}, rec.kinds())
	require.Equal(t, p.Move, rec.events[1].Move)
	require.Equal(t, game.Player2, s.Board().Player())

	// 本地一步之后电脑立刻再选子
	s.OnCellClicked(0, 0)
	s.OnCellClicked(1, 1)
	require.Equal(t, game.EventMoveMade, rec.events[3].Kind)
	_, ok = s.Pending()
	require.True(t, ok)
}

func TestLocalClickOnComputerTurnIgnored(t *testing.T) {
	s, rec := newSession(t, game.KindLocal, game.KindComputer)
	s.Start()
	_, ok := s.Pending()
	require.False(t, ok)

	s.OnCellClicked(0, 5)
	s.OnCellClicked(0, 4)
	require.Len(t, rec.events, 3) // select, move, computer select
	_, ok = s.Pending()
	require.True(t, ok)

	n := len(rec.events)
	s.OnCellClicked(0, 0)
	require.Len(t, rec.events, n)
}

func TestComputerGamePlaysToEnd(t *testing.T) {
	cfg := game.GameConfig{Width: 4, Height: 4, Seats: [game.MaxSeats]game.PlayerKind{game.KindComputer, game.KindComputer}}
	s, err := New(cfg, ai.KindHeuristic, ai.WithSeed(8))
	require.NoError(t, err)
	var over bool
	s.Subscribe(func(ev game.Event) {
		if ev.Kind == game.EventMoveMade && ev.GameOver {
			over = true
		}
	})
	s.Start()
	for i := 0; i < 1000; i++ {
		if _, ok := s.Pending(); !ok {
			break
		}
		s.Resume()
	}
	require.True(t, over)
	require.True(t, s.Over())
	require.Zero(t, s.Board().EmptyCells())
	require.NoError(t, s.Board().CheckScores())
}

func TestApplyRemote(t *testing.T) {
	s, rec := newSession(t, game.KindLocal, game.KindRemote)
	peer := &fakePeer{}
	s.AttachPeer(peer)
	s.Start()

	s.OnCellClicked(0, 5)
	s.OnCellClicked(1, 5)
	require.NoError(t, s.ApplyRemote(game.Player2, mv(0, 0, 1, 1)))
	require.Equal(t, game.EventMoveMade, rec.events[len(rec.events)-1].Kind)
	require.Equal(t, game.Player2, rec.events[len(rec.events)-1].Seat)
	require.Equal(t, game.Player1, s.Board().Player())
	require.Len(t, peer.moves, 2)

	s.OnCellClicked(5, 0)
	require.Equal(t, game.EventPieceSelected, rec.events[len(rec.events)-1].Kind)
	s.OnCellClicked(4, 0)

	t.Run("rule violation fails the session", func(t *testing.T) {
		err := s.ApplyRemote(game.Player2, mv(5, 5, 5, 1))
		require.ErrorIs(t, err, game.ErrOutOfRange)
		require.True(t, s.Disabled())
		last := rec.events[len(rec.events)-1]
		require.Equal(t, game.EventNetworkError, last.Kind)
		require.NotEmpty(t, last.Reason)
		require.Equal(t, 1, peer.closed)

		require.ErrorIs(t, s.ApplyRemote(game.Player2, mv(5, 5, 5, 4)), ErrClosed)
		n := len(rec.events)
		s.OnCellClicked(5, 0)
		require.Len(t, rec.events, n)
	})
}

func TestApplyRemoteWrongSeat(t *testing.T) {
	s, rec := newSession(t, game.KindLocal, game.KindRemote)
	err := s.ApplyRemote(game.Player1, mv(0, 5, 1, 5))
	require.ErrorIs(t, err, game.ErrProtocol)
	require.True(t, s.Disabled())
	require.Equal(t, []game.EventKind{game.EventNetworkError}, rec.kinds())
}

func TestFailOnlyOnce(t *testing.T) {
	s, rec := newSession(t, game.KindLocal, game.KindRemote)
	s.Fail("connection lost")
	s.Fail("again")
	require.Equal(t, []game.EventKind{game.EventNetworkError}, rec.kinds())
	require.Equal(t, "connection lost", rec.events[0].Reason)
}

func TestCloseDropsPending(t *testing.T) {
	s, rec := newSession(t, game.KindComputer, game.KindLocal)
	peer := &fakePeer{}
	s.AttachPeer(peer)
	s.Start()
	_, ok := s.Pending()
	require.True(t, ok)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Equal(t, 1, peer.closed)
	_, ok = s.Pending()
	require.False(t, ok)

	s.Resume()
	require.Equal(t, []game.EventKind{game.EventPieceSelected}, rec.kinds())
	require.True(t, s.Disabled())
}

func TestStartOnStalematedBoard(t *testing.T) {
	cfg := game.GameConfig{Width: 2, Height: 2, Seats: [game.MaxSeats]game.PlayerKind{game.KindComputer, game.KindComputer}}
	s, err := New(cfg, ai.KindTree, ai.WithSeed(3))
	require.NoError(t, err)
	rec := &recorder{}
	s.Subscribe(rec.listen)
	s.Start()
	require.True(t, s.Over())
	require.Equal(t, game.GameOver, s.Phase())
	_, ok := s.Pending()
	require.False(t, ok)
	require.Empty(t, rec.events)
	s.Resume()
	require.Empty(t, rec.events)
}
