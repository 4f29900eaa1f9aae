package netplay

import (
	"testing"

	"infector_go/internal/game"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	cfg := game.GameConfig{
		Width: 8, Height: 7, Shape: game.Square,
		Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindRemote, game.KindRemote, game.KindComputer},
	}
	addrs := [game.MaxSeats]string{"", "10.0.0.2:5000", "host:6", ""}
	h := HeaderFor(cfg, 2, addrs)

	data, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{'s', 4, 0, 0, 2, 13, 2, 6, 1, 0, 2, 8, 7}, data[:HeaderSize])
	require.Equal(t, "10.0.0.2:5000host:6", string(data[HeaderSize:]))

	var got Header
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, h, got)

	gc, err := got.GameConfig()
	require.NoError(t, err)
	require.Equal(t, [game.MaxSeats]game.PlayerKind{game.KindRemote, game.KindLocal, game.KindRemote, game.KindRemote}, gc.Seats)
	require.Equal(t, 8, gc.Width)
	require.Equal(t, 7, gc.Height)
}

func TestHeaderHex(t *testing.T) {
	cfg := game.GameConfig{Width: 5, Height: 5, Shape: game.Hexagonal,
		Seats: [game.MaxSeats]game.PlayerKind{game.KindComputer, game.KindRemote}}
	data, err := HeaderFor(cfg, 2, [game.MaxSeats]string{1: "a"}).MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, byte('h'), data[0])
	require.Equal(t, byte(2), data[1])

	var h Header
	require.NoError(t, h.UnmarshalBinary(data))
	require.Equal(t, game.Hexagonal, h.Shape)
	require.Equal(t, SeatComputer, h.Seats[0].Type)
}

func TestHeaderRejects(t *testing.T) {
	valid := func() []byte {
		return []byte{'s', 2, 0, 0, 2, 1, 0, 0, 0, 0, 2, 8, 8, 'x'}
	}
	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:HeaderSize-1] }},
		{"shape", func(b []byte) []byte { b[0] = 'q'; return b }},
		{"three players", func(b []byte) []byte { b[1] = 3; return b }},
		{"hex with four players", func(b []byte) []byte { b[0] = 'h'; b[1] = 4; return b }},
		{"seat beyond players", func(b []byte) []byte { b[10] = 3; return b }},
		{"unknown seat type", func(b []byte) []byte { b[2] = 3; return b }},
		{"address on local seat", func(b []byte) []byte { b[3] = 1; b[5] = 0; return b }},
		{"truncated address", func(b []byte) []byte { b[5] = 4; return b }},
		{"trailing bytes", func(b []byte) []byte { return append(b, 'y') }},
	}

	var h Header
	require.NoError(t, h.UnmarshalBinary(valid()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Header
			require.ErrorIs(t, h.UnmarshalBinary(tt.mutate(valid())), ErrBadHeader)
		})
	}
}

func TestMoveFrames(t *testing.T) {
	m := game.Move{From: game.Coord{X: 1, Y: 2}, To: game.Coord{X: 3, Y: 4}}
	data, err := EncodeMove(m)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, data)
	got, err := DecodeMove(data)
	require.NoError(t, err)
	require.Equal(t, m, got)

	_, err = DecodeMove([]byte{1, 2})
	require.ErrorIs(t, err, ErrBadFrame)
	data, err = EncodeMove(game.Move{From: game.Coord{X: 300}})
	require.ErrorIs(t, err, ErrBadFrame)
	require.Nil(t, data)
}
