package ui

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// 空闲这么久以后降到低刷新
const idleAfter = 2 * time.Second

// powerSaver 没有输入、没有电脑在走时降低 TPS，省电。
// 联网对局要及时收消息，降到 20 TPS，单机降到 10。
type powerSaver struct {
	lowPower   bool
	lastActive time.Time
	woken      bool
}

// wake 记录一次活动，下一次 update 切回高刷新
func (p *powerSaver) wake() { p.woken = true }

func (p *powerSaver) update(now time.Time, networked bool) {
	if p.woken || p.lastActive.IsZero() {
		p.woken = false
		p.lastActive = now
		p.enterPerf()
		return
	}
	if now.Sub(p.lastActive) > idleAfter {
		p.leavePerf(networked)
	}
}

func (p *powerSaver) enterPerf() {
	if !p.lowPower {
		return
	}
	ebiten.SetTPS(60)
	p.lowPower = false
}

func (p *powerSaver) leavePerf(networked bool) {
	if p.lowPower {
		return
	}
	if networked {
		ebiten.SetTPS(20)
	} else {
		ebiten.SetTPS(10)
	}
	p.lowPower = true
}
