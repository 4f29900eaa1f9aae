// Package config reads command-line flags, falling back to INFECTOR_*
// environment variables, and turns them into a game configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"infector_go/internal/ai"
	"infector_go/internal/game"
)

// Mode is how this process takes part in a game.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeHost  Mode = "host"
	ModeJoin  Mode = "join"
)

// Config holds everything the binaries need to start a game.
type Config struct {
	Mode   Mode
	Width  int
	Height int
	Shape  game.Shape
	Seats  [game.MaxSeats]game.PlayerKind

	AI     ai.Kind
	Depth  int
	Nodes  int
	Seed   uint64
	Think  time.Duration
	Reveal time.Duration

	Listen string
	Join   string

	LogLevel string
	Dev      bool
}

// ErrUsage wraps flag combinations that cannot start a game.
var ErrUsage = errors.New("bad arguments")

// Load parses args (without the program name).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("infector", flag.ContinueOnError)
	mode := fs.String("mode", envOrDefault("INFECTOR_MODE", "local"), "local, host or join")
	size := fs.String("size", envOrDefault("INFECTOR_SIZE", "8"), "board size N or WxH (hex boards: side lengths)")
	shape := fs.String("shape", envOrDefault("INFECTOR_SHAPE", "square"), "square or hex")
	players := fs.String("players", envOrDefault("INFECTOR_PLAYERS", "local,computer"),
		"comma list of 2 or 4 seats: local, computer, remote or none")
	strategy := fs.String("ai", envOrDefault("INFECTOR_AI", "tree"), "computer strategy: heuristic, minimax or tree")
	depth := fs.Int("depth", envInt("INFECTOR_DEPTH", ai.DefaultDepth), "search depth in plies")
	nodes := fs.Int("nodes", envInt("INFECTOR_NODES", ai.DefaultBudget), "tree node budget")
	think := fs.Duration("think", envDuration("INFECTOR_THINK", ai.DefaultTimeLimit), "tree growth time per move (0 = node budget only)")
	reveal := fs.Duration("reveal", envDuration("INFECTOR_REVEAL", 500*time.Millisecond), "delay between computer select and move")
	listen := fs.String("listen", envOrDefault("INFECTOR_LISTEN", fmt.Sprintf(":%d", defaultPort)), "host listen address")
	join := fs.String("join", envOrDefault("INFECTOR_JOIN", ""), "host URL to join, e.g. ws://host:49152/play")
	level := fs.String("log", envOrDefault("INFECTOR_LOG", "info"), "log level")
	dev := fs.Bool("dev", os.Getenv("INFECTOR_DEV") == "true", "colour log output")
	seed := fs.Uint64("seed", 0, "random seed for the computer (0 = time based)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c := &Config{
		Mode:     Mode(strings.ToLower(*mode)),
		Depth:    *depth,
		Nodes:    *nodes,
		Seed:     *seed,
		Think:    *think,
		Reveal:   *reveal,
		Listen:   *listen,
		Join:     *join,
		LogLevel: *level,
		Dev:      *dev,
	}
	var err error
	if c.Width, c.Height, err = parseSize(*size); err != nil {
		return nil, err
	}
	if c.Shape, err = game.ParseShape(*shape); err != nil {
		return nil, err
	}
	if c.Seats, err = parseSeats(*players); err != nil {
		return nil, err
	}
	if c.AI, err = ai.ParseKind(*strategy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

const defaultPort = 49152

func (c *Config) validate() error {
	if c.Reveal < 0 {
		return fmt.Errorf("%w: negative reveal delay", ErrUsage)
	}
	switch c.Mode {
	case ModeJoin:
		if c.Join == "" {
			return fmt.Errorf("%w: -mode join needs -join URL", ErrUsage)
		}
		// The host decides the game; local seat flags are ignored.
		return nil
	case ModeHost:
		if _, err := c.GameConfig(); err != nil {
			return err
		}
		if !c.hasSeat(game.KindRemote) {
			return fmt.Errorf("%w: -mode host needs at least one remote seat", ErrUsage)
		}
	case ModeLocal:
		if _, err := c.GameConfig(); err != nil {
			return err
		}
		if c.hasSeat(game.KindRemote) {
			return fmt.Errorf("%w: remote seats need -mode host", ErrUsage)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrUsage, c.Mode)
	}
	return nil
}

func (c *Config) hasSeat(k game.PlayerKind) bool {
	for _, s := range c.Seats {
		if s == k {
			return true
		}
	}
	return false
}

// GameConfig builds and validates the game configuration.
func (c *Config) GameConfig() (game.GameConfig, error) {
	g := game.GameConfig{Width: c.Width, Height: c.Height, Shape: c.Shape, Seats: c.Seats}
	return g, g.Validate()
}

// StrategyOptions turns the search flags into ai options.
func (c *Config) StrategyOptions() []ai.Option {
	opts := []ai.Option{ai.WithDepth(c.Depth), ai.WithNodeBudget(c.Nodes), ai.WithTimeLimit(c.Think)}
	if c.Seed != 0 {
		opts = append(opts, ai.WithSeed(c.Seed))
	}
	return opts
}

func parseSize(s string) (int, int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	w, h, found := strings.Cut(s, "x")
	if !found {
		h = w
	}
	wi, err1 := strconv.Atoi(w)
	hi, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil || wi <= 0 || hi <= 0 {
		return 0, 0, fmt.Errorf("%w: bad board size %q", ErrUsage, s)
	}
	return wi, hi, nil
}

func parseSeats(s string) ([game.MaxSeats]game.PlayerKind, error) {
	var seats [game.MaxSeats]game.PlayerKind
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 4 {
		return seats, fmt.Errorf("%w: -players needs 2 or 4 entries, got %d", ErrUsage, len(parts))
	}
	for i, p := range parts {
		k, err := game.ParsePlayerKind(p)
		if err != nil {
			return seats, err
		}
		seats[i] = k
	}
	return seats, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
