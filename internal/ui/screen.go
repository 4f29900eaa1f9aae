// File /ui/screen.go
package ui

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"infector_go/internal/game"
	"infector_go/internal/netplay"
	"infector_go/internal/session"
)

const (
	// 窗口尺寸
	WindowWidth  = 800
	WindowHeight = 640
)

// GameScreen 实现 ebiten.Game 接口：把点击交给 session，
// 按 reveal 延迟落下电脑的第二步，并把网络消息在主循环里转交。
type GameScreen struct {
	sess    *session.Session
	reveal  time.Duration
	inbound <-chan netplay.Inbound

	// 电脑已选中起点，到 revealAt 再落子
	revealAt time.Time

	layout        boardLayout
	width, height int

	status string
	power  powerSaver
}

// NewGameScreen wires a screen to s. inbound may be nil for local games.
func NewGameScreen(s *session.Session, reveal time.Duration, inbound <-chan netplay.Inbound) *GameScreen {
	gs := &GameScreen{
		sess:    s,
		reveal:  reveal,
		inbound: inbound,
		width:   WindowWidth,
		height:  WindowHeight,
	}
	gs.layout = newBoardLayout(s.Board().Geometry(), gs.width, gs.height)
	gs.status = game.SeatName(s.Board().Player()) + " to move"
	if s.Over() {
		gs.status = "Game over: " + game.ResultText(s.Board())
	}
	s.Subscribe(gs.onEvent)
	return gs
}

// onEvent 更新底部状态栏
func (gs *GameScreen) onEvent(ev game.Event) {
	gs.power.wake()
	switch ev.Kind {
	case game.EventInvalidMove:
		gs.status = "Invalid move"
	case game.EventPieceSelected:
		gs.status = ""
	case game.EventMoveMade:
		if ev.GameOver {
			gs.status = "Game over: " + game.ResultText(gs.sess.Board())
		} else {
			gs.status = game.SeatName(gs.sess.Board().Player()) + " to move"
		}
	case game.EventNetworkError:
		gs.status = "Network error: " + ev.Reason
	}
}

func (gs *GameScreen) Update() error {
	now := time.Now()

	if gs.inbound != nil {
		netplay.Drain(gs.sess, gs.inbound)
	}

	// 两段式落子：先亮起点，过 reveal 再点终点
	if _, ok := gs.sess.Pending(); ok {
		gs.power.wake()
		if gs.revealAt.IsZero() {
			gs.revealAt = now.Add(gs.reveal)
		} else if !now.Before(gs.revealAt) {
			gs.revealAt = time.Time{}
			gs.sess.Resume()
		}
	} else {
		gs.revealAt = time.Time{}
	}

	if gs.handleInput() {
		gs.power.wake()
	}
	gs.power.update(now, gs.inbound != nil)
	return nil
}

func (gs *GameScreen) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	gs.drawBoard(screen)
	gs.drawHUD(screen)
}

func (gs *GameScreen) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != gs.width || outsideHeight != gs.height {
		gs.width, gs.height = outsideWidth, outsideHeight
		gs.layout = newBoardLayout(gs.sess.Board().Geometry(), outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed. The session is
// closed on return, which drops any pending computer move.
func Run(s *session.Session, reveal time.Duration, inbound <-chan netplay.Inbound, title string) error {
	gs := NewGameScreen(s, reveal, inbound)
	defer func() {
		if err := s.Close(); err != nil {
			log.Debug().Err(err).Msg("closing session")
		}
	}()

	ebiten.SetVsyncEnabled(true)
	ebiten.SetTPS(60)
	ebiten.SetWindowSize(WindowWidth, WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle(title)
	s.Start()
	return ebiten.RunGame(gs)
}
