package ui

import (
	"testing"

	"infector_go/internal/game"

	"github.com/stretchr/testify/require"
)

// 每个格子的中心点反算回同一个格子
func TestLayoutRoundTrip(t *testing.T) {
	cfgs := []game.GameConfig{
		{Width: 8, Height: 8, Shape: game.Square, Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindLocal}},
		{Width: 9, Height: 5, Shape: game.Square, Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindLocal}},
		{Width: 5, Height: 5, Shape: game.Hexagonal, Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindLocal}},
		{Width: 4, Height: 7, Shape: game.Hexagonal, Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindLocal}},
	}
	for _, cfg := range cfgs {
		b, err := game.NewBoard(cfg)
		require.NoError(t, err)
		geo := b.Geometry()
		for _, size := range [][2]int{{WindowWidth, WindowHeight}, {1280, 400}} {
			l := newBoardLayout(geo, size[0], size[1])
			require.Greater(t, l.cell, 0.0)
			for i := 0; i < geo.Cells(); i++ {
				c := geo.CoordOf(i)
				px, py := l.center(c)
				require.GreaterOrEqual(t, px, 0.0)
				require.LessOrEqual(t, px, float64(size[0]))
				require.GreaterOrEqual(t, py, marginTop)
				require.LessOrEqual(t, py, float64(size[1]))

				got, ok := l.cellAt(px, py)
				require.True(t, ok, "%v", c)
				require.Equal(t, c, got)
			}
		}
	}
}

func TestLayoutOutside(t *testing.T) {
	cfg := game.GameConfig{Width: 5, Height: 5, Shape: game.Hexagonal, Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindLocal}}
	b, err := game.NewBoard(cfg)
	require.NoError(t, err)
	l := newBoardLayout(b.Geometry(), WindowWidth, WindowHeight)
	_, ok := l.cellAt(1, 1)
	require.False(t, ok)

	sq, err := game.NewBoard(game.DefaultConfig())
	require.NoError(t, err)
	ls := newBoardLayout(sq.Geometry(), WindowWidth, WindowHeight)
	_, ok = ls.cellAt(ls.orgX-1, ls.orgY+1)
	require.False(t, ok)
}
