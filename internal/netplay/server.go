package netplay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"infector_go/internal/game"
	"infector_go/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // clients are game processes, not browsers
	},
}

// client is one connected remote seat on the host.
type client struct {
	*wsConn
	id   uuid.UUID
	seat game.CellState
	addr string
}

// Server is the host side. Clients connect to /play and are given the
// lowest free remote seat; once every remote seat is taken each client
// receives its header and the start byte. Moves from clients arrive on
// Inbound; moves applied on the host are relayed with MoveMade.
type Server struct {
	cfg game.GameConfig

	mu      sync.Mutex
	clients map[game.CellState]*client
	started bool
	closed  bool

	ready   chan struct{}
	done    chan struct{}
	inbound chan Inbound

	httpSrv *http.Server
	router  chi.Router
	log     zerolog.Logger
}

// NewServer prepares a host for cfg. It does not listen yet.
func NewServer(cfg game.GameConfig) *Server {
	s := &Server{
		cfg:     cfg,
		clients: make(map[game.CellState]*client),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		inbound: make(chan Inbound, sendBufSize),
		log:     logger.For("host"),
	}
	if !cfg.AnyOfKind(game.KindRemote) {
		s.started = true
		close(s.ready)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Get("/status", s.handleStatus)
	r.Get("/play", s.handlePlay)
	s.router = r
	return s
}

// Handler exposes the router, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until Close is called.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.httpSrv = srv
	s.mu.Unlock()

	s.log.Info().Str("addr", addr).Msg("waiting for players")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Ready is closed when every remote seat is connected and play begins.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Inbound carries client moves and connection failures.
func (s *Server) Inbound() <-chan Inbound { return s.inbound }

// MoveMade relays a move to every client except the one that made it.
func (s *Server) MoveMade(seat game.CellState, m game.Move) {
	frame, err := EncodeMove(m)
	if err != nil {
		s.log.Error().Err(err).Msg("encoding move")
		return
	}
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	targets := make([]*client, 0, len(s.clients))
	for st, c := range s.clients {
		if st != seat && c.wsConn != nil {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()

	// 在锁外入队，缓冲满时的断开可能要等 writeWait
	for _, c := range targets {
		c.enqueue(frame)
	}
}

// Close disconnects every client and stops the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		if c.wsConn != nil {
			clients = append(clients, c)
		}
	}
	srv := s.httpSrv
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	if srv != nil {
		return srv.Close()
	}
	return nil
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	seat := s.freeSeat()
	if s.closed || s.started || seat == game.Empty {
		s.mu.Unlock()
		http.Error(w, "no free seat", http.StatusConflict)
		return
	}
	// Reserve the seat before upgrading so two clients cannot race for it.
	c := &client{id: uuid.New(), seat: seat, addr: r.RemoteAddr}
	s.clients[seat] = c
	s.mu.Unlock()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("WebSocket upgrade failed")
		s.mu.Lock()
		delete(s.clients, seat)
		s.mu.Unlock()
		return
	}
	clog := s.log.With().Str("conn", c.id.String()).Int("seat", seat.Seat()).Logger()

	s.mu.Lock()
	c.wsConn = newWSConn(ws, clog)
	if s.allConnected() {
		s.begin()
	}
	s.mu.Unlock()

	go c.writePump()
	go s.readPump(c)
	clog.Info().Str("addr", c.addr).Msg("player connected")
}

// freeSeat returns the lowest remote seat without a client. Callers hold mu.
func (s *Server) freeSeat() game.CellState {
	for i, k := range s.cfg.Seats {
		p := game.SeatPiece(i + 1)
		if _, taken := s.clients[p]; k == game.KindRemote && !taken {
			return p
		}
	}
	return game.Empty
}

// allConnected is true once every remote seat has an upgraded connection.
// Callers hold mu.
func (s *Server) allConnected() bool {
	if s.started || s.freeSeat() != game.Empty {
		return false
	}
	for _, c := range s.clients {
		if c.wsConn == nil {
			return false
		}
	}
	return true
}

// begin sends every client its header and the start byte. Callers hold mu.
func (s *Server) begin() {
	var addrs [game.MaxSeats]string
	for p, c := range s.clients {
		addrs[p-1] = c.addr
	}
	for p, c := range s.clients {
		hdr, err := HeaderFor(s.cfg, p.Seat(), addrs).MarshalBinary()
		if err != nil {
			s.log.Error().Err(err).Msg("encoding header")
			continue
		}
		c.enqueue(hdr)
		c.enqueue([]byte{StartByte})
	}
	s.started = true
	close(s.ready)
	s.log.Info().Int("clients", len(s.clients)).Msg("all players connected, starting")
}

func (s *Server) readPump(c *client) {
	err := c.readMoves(func(m game.Move) {
		s.push(Inbound{Seat: c.seat, Move: m})
	})
	c.close()
	if err == nil {
		return
	}
	c.log.Info().Err(err).Msg("player disconnected")

	s.mu.Lock()
	started := s.started
	if !started {
		// Nobody has seen the game yet; free the seat for someone else.
		delete(s.clients, c.seat)
	}
	s.mu.Unlock()
	if started {
		s.push(Inbound{Seat: c.seat, Err: fmt.Errorf("%s (seat %d): %w", game.SeatName(c.seat), c.seat.Seat(), err)})
	}
}

func (s *Server) push(in Inbound) {
	select {
	case s.inbound <- in:
	case <-s.done:
	}
}

type seatStatus struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	Addr string `json:"addr,omitempty"`
}

type hostStatus struct {
	Shape   string       `json:"shape"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Started bool         `json:"started"`
	Seats   []seatStatus `json:"seats"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := hostStatus{
		Shape:   s.cfg.Shape.String(),
		Width:   s.cfg.Width,
		Height:  s.cfg.Height,
		Started: s.started,
	}
	for i, k := range s.cfg.Seats {
		if k == game.KindNone {
			continue
		}
		p := game.SeatPiece(i + 1)
		ss := seatStatus{Seat: i + 1, Name: game.SeatName(p), Kind: k.String()}
		if c, ok := s.clients[p]; ok {
			ss.Addr = c.addr
		}
		st.Seats = append(st.Seats, ss)
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(st)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("requestId", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
