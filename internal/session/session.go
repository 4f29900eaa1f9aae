// Package session glues the turn engine, computer players and network
// peers together. A Session is not safe for concurrent use: every call
// must come from the goroutine that drives the game (the UI loop or the
// selfplay driver). Network input reaches it through that goroutine too.
package session

import (
	"errors"
	"fmt"

	"infector_go/internal/ai"
	"infector_go/internal/game"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Listener receives every notification. Listeners run synchronously on the
// session goroutine and must not call back into the session.
type Listener func(game.Event)

// Peer is the network side of a game with remote seats.
type Peer interface {
	// MoveMade is told about every move that was applied. Implementations
	// decide who needs it and must not block.
	MoveMade(seat game.CellState, m game.Move)
	Close() error
}

// Pending is a computer move whose source is highlighted and whose
// destination has not been played yet.
type Pending struct {
	Seat game.CellState
	Move game.Move
}

// ErrClosed is returned when a closed or failed session is asked to act.
var ErrClosed = errors.New("session closed")

type Session struct {
	id       uuid.UUID
	cfg      game.GameConfig
	board    *game.Board
	engine   *game.Engine
	strategy ai.Strategy

	listeners []Listener
	peer      Peer
	pending   *Pending

	disabled bool
	closed   bool

	log zerolog.Logger
}

// New validates cfg and builds the board. When any seat is computer
// controlled a strategy of the given kind is attached to the same game.
func New(cfg game.GameConfig, kind ai.Kind, opts ...ai.Option) (*Session, error) {
	b, err := game.NewBoard(cfg)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:     uuid.New(),
		cfg:    cfg,
		board:  b,
		engine: game.NewEngine(b),
	}
	s.log = log.With().Str("session", s.id.String()).Logger()
	if cfg.AnyOfKind(game.KindComputer) {
		s.strategy = ai.New(kind, b, opts...)
	}
	s.log.Info().
		Str("shape", cfg.Shape.String()).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("players", cfg.NumPlayers()).
		Msg("game created")
	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Config() game.GameConfig { return s.cfg }

// Board gives read-only access to the live board.
func (s *Session) Board() *game.Board { return s.board }

func (s *Session) Phase() game.Phase { return s.engine.Phase() }

// Over reports whether the game has ended.
func (s *Session) Over() bool { return s.engine.Over() }

// Disabled is true after a network failure; no further input is accepted.
func (s *Session) Disabled() bool { return s.disabled || s.closed }

// Subscribe adds a listener. There may be any number of them.
func (s *Session) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// AttachPeer connects the network side. Moves applied from now on are
// reported to it.
func (s *Session) AttachPeer(p Peer) {
	s.peer = p
}

// Start kicks off the first turn when a computer is to move. A board on
// which nobody can move is already over when the session is built.
func (s *Session) Start() {
	if s.engine.Over() {
		s.log.Info().
			Ints("scores", scores(s.board)).
			Str("result", game.ResultText(s.board)).
			Msg("game over before the first move")
		return
	}
	s.planComputer()
}

// Pending returns the computer move waiting for its reveal delay.
func (s *Session) Pending() (Pending, bool) {
	if s.pending == nil {
		return Pending{}, false
	}
	return *s.pending, true
}

// Resume plays the destination of the pending computer move. The host
// calls it once its reveal delay has passed. It does nothing when there
// is no pending move or the session was closed in the meantime.
func (s *Session) Resume() {
	if s.pending == nil || s.Disabled() {
		s.pending = nil
		return
	}
	p := *s.pending
	s.pending = nil
	if s.board.Player() != p.Seat {
		return
	}
	s.click(p.Move.To.X, p.Move.To.Y)
}

// OnCellClicked handles a click from the local user. Clicks are ignored
// unless a local seat is to move and no computer move is being revealed.
func (s *Session) OnCellClicked(x, y int) {
	if s.Disabled() || s.pending != nil {
		return
	}
	if s.cfg.KindOf(s.board.Player()) != game.KindLocal {
		return
	}
	s.click(x, y)
}

// ApplyRemote validates and plays a move received for a remote seat. A move
// that breaks the rules fails the session and returns the protocol error.
func (s *Session) ApplyRemote(seat game.CellState, m game.Move) error {
	if s.Disabled() {
		return ErrClosed
	}
	if s.cfg.KindOf(seat) != game.KindRemote {
		err := fmt.Errorf("%w: seat %d is not remote", game.ErrProtocol, seat.Seat())
		s.Fail(err.Error())
		return err
	}
	if err := s.engine.ValidateMove(seat, m); err != nil {
		s.Fail(err.Error())
		return err
	}
	s.click(m.From.X, m.From.Y)
	s.click(m.To.X, m.To.Y)
	return nil
}

// Fail reports a network error, severs the peer and disables input.
func (s *Session) Fail(reason string) {
	if s.disabled {
		return
	}
	s.disabled = true
	s.pending = nil
	s.log.Error().Str("reason", reason).Msg("network failure, game stopped")
	if s.peer != nil {
		if err := s.peer.Close(); err != nil {
			s.log.Debug().Err(err).Msg("closing peer")
		}
		s.peer = nil
	}
	s.emit(game.Event{Kind: game.EventNetworkError, Reason: reason})
}

// Close tears the session down. A pending reveal is dropped.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil
	var err error
	if s.peer != nil {
		err = s.peer.Close()
		s.peer = nil
	}
	s.log.Debug().Msg("session closed")
	return err
}

// click is the single path every move takes, whoever makes it.
func (s *Session) click(x, y int) {
	ev := s.engine.Click(x, y)
	switch ev.Kind {
	case game.NoEvent:
		return
	case game.EventMoveMade:
		s.log.Debug().
			Str("seat", game.SeatName(ev.Seat)).
			Stringer("move", ev.Move).
			Bool("gameOver", ev.GameOver).
			Msg("move made")
		if s.strategy != nil {
			s.strategy.Observe(ev.Move, s.board)
		}
		if s.peer != nil {
			s.peer.MoveMade(ev.Seat, ev.Move)
		}
	}
	s.emit(ev)

	if ev.Kind != game.EventMoveMade {
		return
	}
	if ev.GameOver {
		s.log.Info().
			Ints("scores", scores(s.board)).
			Str("result", game.ResultText(s.board)).
			Msg("game over")
		return
	}
	s.planComputer()
}

// planComputer picks a move for a computer seat to move and highlights its
// source. The destination waits for Resume.
func (s *Session) planComputer() {
	if s.Disabled() || s.engine.Over() || s.pending != nil {
		return
	}
	seat := s.board.Player()
	if s.cfg.KindOf(seat) != game.KindComputer || s.strategy == nil {
		return
	}
	m, ok := ai.Timed(s.strategy, s.board)
	if !ok {
		// FinishTurn never hands the turn to a seat without moves.
		s.log.Error().Str("seat", game.SeatName(seat)).Msg("computer found no move")
		return
	}
	s.pending = &Pending{Seat: seat, Move: m}
	s.click(m.From.X, m.From.Y)
}

func (s *Session) emit(ev game.Event) {
	for _, l := range s.listeners {
		l(ev)
	}
}

func scores(b *game.Board) []int {
	sc := b.Scores()
	return sc[:]
}
