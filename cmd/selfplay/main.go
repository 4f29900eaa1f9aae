// cmd/selfplay/main.go
// 电脑对电脑批量对局：统计胜负和每步搜索耗时，可选输出 CPU profile
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"infector_go/internal/ai"
	"infector_go/internal/game"
	"infector_go/internal/logger"
	"infector_go/internal/session"
)

// 没有回合上限的规则下，只靠跳跃也可能一直走下去
const maxMoves = 5000

type result struct {
	Game     int           `json:"game"`
	Winners  []string      `json:"winners"`
	Scores   []int         `json:"scores"`
	Moves    int           `json:"moves"`
	Finished bool          `json:"finished"`
	Slowest  time.Duration `json:"slowest_ns"`
	Total    time.Duration `json:"total_ns"`
}

func main() {
	numGames := flag.Int("n", 10, "要下的对局数")
	workers := flag.Int("workers", 0, "并发局数（默认=CPU/2，至少1）")
	size := flag.Int("size", 8, "棋盘边长")
	shapeFlag := flag.String("shape", "square", "square 或 hex")
	players := flag.Int("players", 2, "2 或 4")
	strategy := flag.String("ai", "tree", "heuristic, minimax 或 tree")
	depth := flag.Int("depth", ai.DefaultDepth, "搜索深度")
	nodes := flag.Int("nodes", ai.DefaultBudget, "搜索树节点上限")
	think := flag.Duration("think", ai.DefaultTimeLimit, "每手长树的时间上限（0=只看节点上限）")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "随机种子")
	jsonOut := flag.String("json", "", "每局结果写成 JSON lines")
	cpuProfile := flag.String("cpuprofile", "", "CPU profile 输出文件")
	level := flag.String("log", "info", "日志级别")
	flag.Parse()

	logger.Init(*level, false)

	shape, err := game.ParseShape(*shapeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -shape")
	}
	kind, err := ai.ParseKind(*strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -ai")
	}
	gc := game.GameConfig{Width: *size, Height: *size, Shape: shape}
	for i := 0; i < *players && i < game.MaxSeats; i++ {
		gc.Seats[i] = game.KindComputer
	}
	if err := gc.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad game settings")
	}

	if *workers <= 0 {
		*workers = runtime.NumCPU() / 2
		if *workers < 1 {
			*workers = 1
		}
	}

	// 开启 CPU Profile
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	var out *json.Encoder
	if *jsonOut != "" {
		f, err := os.Create(*jsonOut)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create results file")
		}
		defer f.Close()
		out = json.NewEncoder(f)
	}

	log.Info().
		Int("games", *numGames).
		Int("workers", *workers).
		Str("board", fmt.Sprintf("%s %dx%d", shape, *size, *size)).
		Int("players", *players).
		Str("ai", kind.String()).
		Int("depth", *depth).
		Msg("selfplay starting")

	jobs := make(chan int, *workers*2)
	results := make(chan result, *workers)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(wid int) {
			defer wg.Done()
			// 每个 worker 自己的 session，session 只在本 goroutine 里用
			for g := range jobs {
				opts := []ai.Option{ai.WithDepth(*depth), ai.WithNodeBudget(*nodes), ai.WithTimeLimit(*think), ai.WithSeed(*seed + uint64(g))}
				res, err := playOneGame(g, gc, kind, opts)
				if err != nil {
					log.Error().Err(err).Int("game", g).Msg("game failed")
					continue
				}
				results <- res
			}
		}(i)
	}
	go func() {
		for g := 0; g < *numGames; g++ {
			jobs <- g
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	wins := map[string]float64{}
	var moves int
	var total, slowest time.Duration
	for res := range results {
		for _, w := range res.Winners {
			wins[w] += 1 / float64(len(res.Winners)) // 平局平分
		}
		moves += res.Moves
		total += res.Total
		if res.Slowest > slowest {
			slowest = res.Slowest
		}
		if out != nil {
			if err := out.Encode(res); err != nil {
				log.Error().Err(err).Msg("writing result")
			}
		}
		log.Info().
			Int("game", res.Game).
			Strs("winners", res.Winners).
			Ints("scores", res.Scores).
			Int("moves", res.Moves).
			Bool("finished", res.Finished).
			Msg("game done")
	}

	var sb strings.Builder
	for s := 1; s <= *players; s++ {
		name := game.SeatName(game.SeatPiece(s))
		fmt.Fprintf(&sb, "%s %.1f  ", name, wins[name])
	}
	fmt.Println("wins:", sb.String())
	if moves > 0 {
		fmt.Printf("moves: %d  avg/move: %v  slowest: %v\n", moves, total/time.Duration(moves), slowest)
	}
}

// playOneGame 用真实的 session 路径打完一局，reveal 延迟为 0
func playOneGame(id int, gc game.GameConfig, kind ai.Kind, opts []ai.Option) (result, error) {
	s, err := session.New(gc, kind, opts...)
	if err != nil {
		return result{}, err
	}
	defer s.Close()

	res := result{Game: id}
	s.Subscribe(func(ev game.Event) {
		if ev.Kind == game.EventMoveMade {
			res.Moves++
		}
	})

	s.Start()
	for res.Moves < maxMoves {
		if _, ok := s.Pending(); !ok {
			break
		}
		start := time.Now()
		s.Resume() // 落子，同时为下一方搜索
		d := time.Since(start)
		res.Total += d
		if d > res.Slowest {
			res.Slowest = d
		}
	}

	res.Finished = s.Over()
	b := s.Board()
	sc := b.Scores()
	res.Scores = sc[:b.NumPlayers()]
	for _, p := range game.Standings(b) {
		res.Winners = append(res.Winners, game.SeatName(p))
	}
	return res, nil
}
