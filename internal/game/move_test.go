package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoveFrame(t *testing.T) {
	m := Move{From: Coord{3, 12}, To: Coord{5, 10}}
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{3, 12, 5, 10}, data)

	var got Move
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, m, got)

	buf, err := m.AppendBinary([]byte{0xaa})
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 3, 12, 5, 10}, buf)

	buf, err = Move{To: Coord{0, 256}}.AppendBinary(buf)
	require.Error(t, err)
	require.Equal(t, []byte{0xaa, 3, 12, 5, 10}, buf)
}

func TestMoveFrameErrors(t *testing.T) {
	_, err := Move{From: Coord{-1, 0}}.MarshalBinary()
	require.Error(t, err)
	_, err = Move{To: Coord{0, 256}}.MarshalBinary()
	require.Error(t, err)

	var m Move
	require.Error(t, m.UnmarshalBinary([]byte{1, 2, 3}))
	require.Error(t, m.UnmarshalBinary([]byte{1, 2, 3, 4, 5}))
}

func TestMoveDistance(t *testing.T) {
	sq := newGeometry(twoPlayer(8, 8, Square))
	require.Equal(t, CloneDistance, Move{Coord{0, 7}, Coord{1, 6}}.Distance(sq))
	require.Equal(t, JumpDistance, Move{Coord{0, 7}, Coord{2, 7}}.Distance(sq))
	require.Equal(t, NotAdjacent, Move{Coord{0, 7}, Coord{0, 4}}.Distance(sq))

	hex := newGeometry(twoPlayer(5, 5, Hexagonal))
	require.Equal(t, CloneDistance, Move{Coord{4, 4}, Coord{3, 5}}.Distance(hex))
	require.Equal(t, JumpDistance, Move{Coord{4, 4}, Coord{5, 5}}.Distance(hex))
	require.Equal(t, "(4,4)->(5,5)", Move{Coord{4, 4}, Coord{5, 5}}.String())
}

func TestApplyMoveRejectsFarTarget(t *testing.T) {
	b := newTestBoard(t, twoPlayer(8, 8, Square))
	before := b.Clone()
	require.Equal(t, NotAdjacent, b.ApplyMove(Move{Coord{0, 7}, Coord{4, 4}}, Player1))
	require.True(t, b.Equal(before))
}
