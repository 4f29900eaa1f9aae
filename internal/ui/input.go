// File ui/input.go
package ui

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"infector_go/internal/game"
)

// 棋盘区域四周留白（像素），上方给 HUD 让位
const (
	marginX   = 24.0
	marginTop = 48.0
	marginBot = 24.0
)

// boardLayout 把棋盘坐标映射到屏幕像素，窗口尺寸变化时重算。
// 方形棋盘：格子边长 cell。六边形棋盘：列就是 axial 的 q，行是 r，
// 平顶六边形半径 cell，水平间距 1.5R，行高 √3·R。
type boardLayout struct {
	geo        *game.Geometry
	cell       float64
	orgX, orgY float64
	// 六边形棋盘里像素坐标的最小值，用来把整盘平移到原点
	minX, minY float64
}

func newBoardLayout(geo *game.Geometry, width, height int) boardLayout {
	l := boardLayout{geo: geo}
	availW := float64(width) - 2*marginX
	availH := float64(height) - marginTop - marginBot

	if geo.Shape() == game.Square {
		l.cell = math.Min(availW/float64(geo.Width()), availH/float64(geo.Height()))
		l.orgX = (float64(width) - l.cell*float64(geo.Width())) / 2
		l.orgY = marginTop + (availH-l.cell*float64(geo.Height()))/2
		return l
	}

	// 以 R=1 求出整盘外框，再按窗口缩放
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < geo.Cells(); i++ {
		x, y := axialToPixel(geo.CoordOf(i), 1)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	boardW := maxX - minX + 2          // 两端各多半个六边形宽 (R)
	boardH := maxY - minY + math.Sqrt(3) // 上下各多半个行高
	l.cell = math.Min(availW/boardW, availH/boardH)
	l.minX, l.minY = minX, minY
	l.orgX = (float64(width)-boardW*l.cell)/2 + l.cell
	l.orgY = marginTop + (availH-boardH*l.cell)/2 + l.cell*math.Sqrt(3)/2
	return l
}

// axialToPixel 平顶六边形：x = 1.5R·q，y = √3R·(r + q/2)
func axialToPixel(c game.Coord, r float64) (float64, float64) {
	q, rr := float64(c.X), float64(c.Y)
	return 1.5 * r * q, math.Sqrt(3) * r * (rr + q/2)
}

// center 返回格子中心的屏幕坐标
func (l boardLayout) center(c game.Coord) (float64, float64) {
	if l.geo.Shape() == game.Square {
		return l.orgX + (float64(c.X)+0.5)*l.cell, l.orgY + (float64(c.Y)+0.5)*l.cell
	}
	x, y := axialToPixel(c, l.cell)
	return l.orgX + x - l.minX*l.cell, l.orgY + y - l.minY*l.cell
}

func cubeRound(xf, yf, zf float64) (int, int, int) {
	rx := math.Round(xf)
	ry := math.Round(yf)
	rz := math.Round(zf)

	dx := math.Abs(rx - xf)
	dy := math.Abs(ry - yf)
	dz := math.Abs(rz - zf)

	if dx >= dy && dx >= dz {
		rx = -ry - rz
	} else if dy >= dz {
		ry = -rx - rz
	} else {
		rz = -rx - ry
	}
	return int(rx), int(ry), int(rz)
}

// cellAt 把屏幕像素坐标反算成棋盘坐标，落在棋盘外返回 false
func (l boardLayout) cellAt(px, py float64) (game.Coord, bool) {
	if l.cell <= 0 {
		return game.Coord{}, false
	}
	if l.geo.Shape() == game.Square {
		x := int(math.Floor((px - l.orgX) / l.cell))
		y := int(math.Floor((py - l.orgY) / l.cell))
		c := game.Coord{X: x, Y: y}
		return c, l.geo.InBounds(x, y)
	}

	// 1. 去掉平移、缩放
	x := (px-l.orgX)/l.cell + l.minX
	y := (py-l.orgY)/l.cell + l.minY

	// 2. 浮点轴向
	qf := x / 1.5
	rf := y/math.Sqrt(3) - qf/2

	// 3. 立方整体取整
	q, _, r := cubeRound(qf, -qf-rf, rf)
	c := game.Coord{X: q, Y: r}
	return c, l.geo.InBounds(q, r)
}

// handleInput 把鼠标左键点击转成棋盘点击交给 session
func (gs *GameScreen) handleInput() bool {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return false
	}
	mx, my := ebiten.CursorPosition()
	c, ok := gs.layout.cellAt(float64(mx), float64(my))
	if !ok {
		return false // 棋盘外的点击忽略
	}
	gs.sess.OnCellClicked(c.X, c.Y)
	return true
}
