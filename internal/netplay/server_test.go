package netplay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"infector_go/internal/ai"
	"infector_go/internal/game"
	"infector_go/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func hostConfig() game.GameConfig {
	return game.GameConfig{Width: 6, Height: 6, Shape: game.Square,
		Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindRemote}}
}

func startHost(t *testing.T, cfg game.GameConfig) (*Server, string, *httptest.Server) {
	t.Helper()
	srv := NewServer(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/play", ts
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cl, err := Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { cl.Close() })
	return cl
}

func recv(t *testing.T, ch <-chan Inbound) Inbound {
	t.Helper()
	select {
	case in := <-ch:
		return in
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for network input")
		return Inbound{}
	}
}

func mv(sx, sy, dx, dy int) game.Move {
	return game.Move{From: game.Coord{X: sx, Y: sy}, To: game.Coord{X: dx, Y: dy}}
}

func TestJoinAndRelay(t *testing.T) {
	srv, url, _ := startHost(t, hostConfig())
	cl := dial(t, url)

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("host never became ready")
	}
	require.Equal(t, game.Player2, cl.Seat())
	require.Equal(t, 2, cl.Header().Players)
	gc, err := cl.GameConfig()
	require.NoError(t, err)
	require.Equal(t, game.KindRemote, gc.Seats[0])
	require.Equal(t, game.KindLocal, gc.Seats[1])

	// host → client
	srv.MoveMade(game.Player1, mv(0, 5, 1, 4))
	in := recv(t, cl.Inbound())
	require.NoError(t, in.Err)
	require.Equal(t, game.Empty, in.Seat)
	require.Equal(t, mv(0, 5, 1, 4), in.Move)

	// 客户端自己的座位才发出去
	cl.MoveMade(game.Player1, mv(5, 0, 4, 1))
	cl.MoveMade(game.Player2, mv(0, 0, 1, 1))
	in = recv(t, srv.Inbound())
	require.NoError(t, in.Err)
	require.Equal(t, game.Player2, in.Seat)
	require.Equal(t, mv(0, 0, 1, 1), in.Move)

	// 不转发给走子的一方
	srv.MoveMade(game.Player2, mv(0, 0, 1, 1))
	srv.MoveMade(game.Player1, mv(5, 0, 4, 0))
	in = recv(t, cl.Inbound())
	require.Equal(t, mv(5, 0, 4, 0), in.Move)
}

func TestSeatsFull(t *testing.T) {
	_, url, _ := startHost(t, hostConfig())
	dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Dial(ctx, url)
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	cfg := game.GameConfig{Width: 6, Height: 6, Shape: game.Square,
		Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindRemote, game.KindComputer, game.KindRemote}}
	_, url, ts := startHost(t, cfg)

	fetch := func() (hostStatus, error) {
		var st hostStatus
		resp, err := http.Get(ts.URL + "/status")
		if err != nil {
			return st, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return st, fmt.Errorf("status %d", resp.StatusCode)
		}
		err = json.NewDecoder(resp.Body).Decode(&st)
		return st, err
	}
	get := func() hostStatus {
		st, err := fetch()
		require.NoError(t, err)
		return st
	}

	st := get()
	require.False(t, st.Started)
	require.Len(t, st.Seats, 4)
	require.Equal(t, "remote", st.Seats[1].Kind)
	require.Equal(t, "Green", st.Seats[1].Name)
	require.Empty(t, st.Seats[1].Addr)

	// 两个远程座位都到齐才开始
	done := make(chan *Client, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cl, err := Dial(ctx, url)
		if err != nil {
			done <- nil
			return
		}
		done <- cl
	}()
	require.Eventually(t, func() bool {
		st, err := fetch()
		return err == nil && len(st.Seats) == 4 && st.Seats[1].Addr != ""
	}, 5*time.Second, 10*time.Millisecond)
	require.False(t, get().Started)

	second := dial(t, url)
	require.Equal(t, game.Player4, second.Seat())
	first := <-done
	require.NotNil(t, first)
	defer first.Close()
	require.Equal(t, game.Player2, first.Seat())
	require.True(t, get().Started)
}

func TestDisconnectAfterStart(t *testing.T) {
	srv, url, _ := startHost(t, hostConfig())
	cl := dial(t, url)
	<-srv.Ready()

	cl.Close()
	in := recv(t, srv.Inbound())
	require.ErrorIs(t, in.Err, ErrPeerGone)
	require.Equal(t, game.Player2, in.Seat)
}

func TestHostClosesClient(t *testing.T) {
	srv, url, _ := startHost(t, hostConfig())
	cl := dial(t, url)
	<-srv.Ready()

	require.NoError(t, srv.Close())
	in := recv(t, cl.Inbound())
	require.ErrorIs(t, in.Err, ErrPeerGone)
}

// 两个 session 通过真实连接对下，棋盘保持一致
func TestSessionsStayInSync(t *testing.T) {
	cfg := hostConfig()
	srv, url, _ := startHost(t, cfg)
	cl := dial(t, url)
	<-srv.Ready()

	host, err := session.New(cfg, ai.KindHeuristic)
	require.NoError(t, err)
	host.AttachPeer(srv)
	gc, err := cl.GameConfig()
	require.NoError(t, err)
	guest, err := session.New(gc, ai.KindHeuristic)
	require.NoError(t, err)
	guest.AttachPeer(cl)

	var guestErrs []string
	guest.Subscribe(func(ev game.Event) {
		if ev.Kind == game.EventNetworkError {
			guestErrs = append(guestErrs, ev.Reason)
		}
	})

	host.OnCellClicked(0, 5)
	host.OnCellClicked(1, 4)
	Deliver(guest, recv(t, cl.Inbound()))
	require.Equal(t, host.Board().Hash(), guest.Board().Hash())
	require.Equal(t, game.Player2, guest.Board().Player())

	guest.OnCellClicked(5, 5)
	guest.OnCellClicked(3, 3)
	Deliver(host, recv(t, srv.Inbound()))
	require.Equal(t, host.Board().Hash(), guest.Board().Hash())
	require.Equal(t, game.Player1, host.Board().Player())
	require.Empty(t, guestErrs)
	require.False(t, host.Disabled())
}

func TestDrainReportsFailure(t *testing.T) {
	s, err := session.New(hostConfig(), ai.KindHeuristic)
	require.NoError(t, err)
	var got []game.EventKind
	s.Subscribe(func(ev game.Event) { got = append(got, ev.Kind) })

	ch := make(chan Inbound, 2)
	ch <- Inbound{Seat: game.Player2, Err: ErrPeerGone}
	Drain(s, ch)
	Drain(s, ch)
	require.Equal(t, []game.EventKind{game.EventNetworkError}, got)
	require.True(t, s.Disabled())
}

// rawConn returns a wsConn whose writePump is not running, so its send
// buffer only drains when the test reads it.
func rawConn(t *testing.T) *wsConn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	c := newWSConn(ws, zerolog.Nop())
	t.Cleanup(c.close)
	return c
}

// 发送缓冲满的客户端被断开，MoveMade 不等它，其他客户端照常收到
func TestRelaySkipsStalledClient(t *testing.T) {
	cfg := game.GameConfig{Width: 6, Height: 6, Shape: game.Square,
		Seats: [game.MaxSeats]game.PlayerKind{game.KindLocal, game.KindRemote, game.KindRemote}}
	srv := NewServer(cfg)
	t.Cleanup(func() { srv.Close() })

	stalled, healthy := rawConn(t), rawConn(t)
	for i := 0; i < sendBufSize; i++ {
		stalled.send <- []byte{0, 0, 0, 0}
	}
	srv.mu.Lock()
	srv.clients[game.Player2] = &client{wsConn: stalled, seat: game.Player2}
	srv.clients[game.Player3] = &client{wsConn: healthy, seat: game.Player3}
	srv.started = true
	srv.mu.Unlock()

	done := make(chan struct{})
	go func() {
		srv.MoveMade(game.Player1, mv(0, 5, 1, 4))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("MoveMade blocked on a stalled client")
	}

	require.True(t, srv.mu.TryLock())
	srv.mu.Unlock()
	require.Eventually(t, stalled.closed, 5*time.Second, 10*time.Millisecond)
	require.False(t, healthy.closed())
	require.Equal(t, []byte{0, 5, 1, 4}, <-healthy.send)
}
