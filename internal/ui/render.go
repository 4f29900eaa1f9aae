// File /ui/render.go
package ui

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"infector_go/internal/game"
)

var (
	colBackground = color.RGBA{0x14, 0x18, 0x22, 0xff}
	colTile       = color.RGBA{49, 83, 127, 0xff}
	colSelected   = color.RGBA{0xe8, 0xe8, 0xe8, 0xff}
	colCloneHint  = color.RGBA{0x3c, 0xb3, 0x71, 0xff} // 复制落点：绿
	colJumpHint   = color.RGBA{0xd4, 0xb1, 0x3a, 0xff} // 跳跃落点：黄
	colText       = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
)

// 四个座位的棋子颜色，下标是 CellState
var seatColors = [...]color.RGBA{
	game.Player1: {0xd6, 0x3a, 0x3a, 0xff},
	game.Player2: {0x3a, 0xb8, 0x4a, 0xff},
	game.Player3: {0x3a, 0x6a, 0xd6, 0xff},
	game.Player4: {0xe0, 0xc8, 0x30, 0xff},
}

type hexKey struct {
	size int
	fill color.RGBA
}

// 放到文件顶部做简单缓存
var hexBaseCache = map[hexKey]*ebiten.Image{}

// hexBase 生成一个平顶实心六边形，外接圆直径 size 像素
func hexBase(size int, fill color.RGBA) *ebiten.Image {
	key := hexKey{size, fill}
	if img := hexBaseCache[key]; img != nil {
		return img
	}

	// 2x 超采样，在更大画布上画，再缩回原大小，边缘更顺滑
	const spp = 2
	W := size * spp
	H := int(math.Ceil(float64(size)*math.Sqrt(3)/2)) * spp
	cx, cy := float64(W)/2, float64(H)/2
	r := float64(W) / 2 * 0.92 // 稍缩一点留出缝隙
	h := r * math.Sqrt(3) / 2

	pts := [6][2]float32{
		{float32(cx + r), float32(cy)},
		{float32(cx + r/2), float32(cy + h)},
		{float32(cx - r/2), float32(cy + h)},
		{float32(cx - r), float32(cy)},
		{float32(cx - r/2), float32(cy - h)},
		{float32(cx + r/2), float32(cy - h)},
	}

	// 用 1x1 白图 + 顶点色 来填充多三角形
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)
	big := ebiten.NewImage(W, H) // 透明背景

	cr, cg, cb, ca := float32(fill.R)/0xff, float32(fill.G)/0xff, float32(fill.B)/0xff, float32(fill.A)/0xff
	vertex := func(x, y float32) ebiten.Vertex {
		return ebiten.Vertex{DstX: x, DstY: y, SrcX: 0.5, SrcY: 0.5, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca}
	}

	// 中心扇形：6 个三角形 (center, pts[i], pts[i+1])
	vs := make([]ebiten.Vertex, 0, 7)
	vs = append(vs, vertex(float32(cx), float32(cy)))
	for _, p := range pts {
		vs = append(vs, vertex(p[0], p[1]))
	}
	is := make([]uint16, 0, 18)
	for i := 0; i < 6; i++ {
		is = append(is, 0, uint16(1+i), uint16(1+(i+1)%6))
	}
	big.DrawTriangles(vs, is, white, nil)

	// 缩回原尺寸（线性过滤做下采样防锯齿）
	small := ebiten.NewImage(W/spp, H/spp)
	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterLinear
	op.GeoM.Scale(1.0/float64(spp), 1.0/float64(spp))
	small.DrawImage(big, op)

	hexBaseCache[key] = small
	return small
}

// drawTile 画一个格子底色，中心 (cx, cy)
func (gs *GameScreen) drawTile(dst *ebiten.Image, cx, cy float64, fill color.RGBA) {
	l := gs.layout
	if l.geo.Shape() == game.Square {
		gap := math.Max(1, l.cell*0.05)
		half := l.cell / 2
		vector.DrawFilledRect(dst, float32(cx-half+gap/2), float32(cy-half+gap/2),
			float32(l.cell-gap), float32(l.cell-gap), fill, false)
		return
	}
	img := hexBase(int(math.Round(2*l.cell)), fill)
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(cx-w/2, cy-h/2)
	dst.DrawImage(img, op)
}

// drawBoard 画棋盘、选中高亮、可走落点和棋子
func (gs *GameScreen) drawBoard(dst *ebiten.Image) {
	b := gs.sess.Board()
	geo := b.Geometry()

	// 0) 预计算 clone/jump 落点
	hints := map[game.Coord]game.Distance{}
	sel, hasSel := b.SelectedSquare()
	if hasSel {
		if i, ok := geo.Index(sel.X, sel.Y); ok {
			for _, j := range geo.Reach(i) {
				if b.Cell(int(j)) != game.Empty {
					continue
				}
				to := geo.CoordOf(int(j))
				hints[to] = geo.Classify(sel.X, sel.Y, to.X, to.Y)
			}
		}
	}

	pieceR := float32(gs.layout.cell * 0.36)
	if geo.Shape() == game.Hexagonal {
		pieceR = float32(gs.layout.cell * 0.6)
	}
	for i := 0; i < geo.Cells(); i++ {
		c := geo.CoordOf(i)
		cx, cy := gs.layout.center(c)

		fill := colTile
		switch {
		case hasSel && c == sel:
			fill = colSelected
		case hints[c] == game.CloneDistance:
			fill = colCloneHint
		case hints[c] == game.JumpDistance:
			fill = colJumpHint
		}
		gs.drawTile(dst, cx, cy, fill)

		if p := b.Cell(i); p.IsPlayer() {
			vector.DrawFilledCircle(dst, float32(cx), float32(cy), pieceR, seatColors[p], true)
		}
	}
}

// drawHUD 顶部：各方分数、轮到谁；底部：状态消息
func (gs *GameScreen) drawHUD(dst *ebiten.Image) {
	b := gs.sess.Board()
	x := int(marginX)
	for s, sc := range b.Scores() {
		if sc < 0 {
			continue
		}
		p := game.SeatPiece(s + 1)
		label := fmt.Sprintf("%s %d", game.SeatName(p), sc)
		if p == b.Player() && !gs.sess.Over() {
			label = "> " + label
		}
		text.Draw(dst, label, basicfont.Face7x13, x, 24, seatColors[p])
		x += 110
	}
	if gs.status != "" {
		drawTextCentered(dst, gs.status, float64(gs.width)/2, float64(gs.height)-marginBot/2, colText)
	}
}

// 居中绘制文本（用 basicfont）
// x, y 传入“目标中心点”的屏幕坐标
func drawTextCentered(dst *ebiten.Image, s string, x, y float64, col color.Color) {
	face := basicfont.Face7x13
	b := text.BoundString(face, s)
	w := float64(b.Dx())
	h := float64(b.Dy())
	// 基本居中：x - w/2；y + h/2（让基线略微下移）
	text.Draw(dst, s, face, int(x-w/2), int(y+h/2)-2, col)
}
