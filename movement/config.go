package movement

import (
	"context"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"golang.org/x/sync/errgroup"

	"github.com/ashenvale/rtscore/movement/checkpoint"
)

// Config holds the engine-defined tuning knobs §6 leaves open (the tuned
// steering constants in constants.go are fixed and never configurable).
type Config struct {
	// TickRes is MOVE_TICK_RES: the divisor converting a per-second speed
	// into a per-tick one.
	TickRes float64 `toml:"tick_res"`
	// ClearPathNeighbourRadius is CLEARPATH_NEIGHBOUR_RADIUS, nav-defined.
	ClearPathNeighbourRadius float64 `toml:"clearpath_neighbour_radius"`
	// CheckpointEveryTicks is the configured checkpoint interval in movement
	// ticks. Core does not read it and does not write checkpoints itself;
	// writing them to the store is left to the host.
	CheckpointEveryTicks int64 `toml:"checkpoint_every_ticks"`
}

// DefaultConfig returns the tuning defaults used when no config file is
// present.
func DefaultConfig() Config {
	return Config{
		TickRes:                  20, // 20Hz movement tick (§4.8)
		ClearPathNeighbourRadius: 40,
		CheckpointEveryTicks:     1200, // once a minute at 20Hz
	}
}

// LoadConfig reads tuning constants from a TOML file at configPath and
// opens the optional leveldb checkpoint store at checkpointPath (pass ""
// to skip it) concurrently — two independent pieces of file I/O, joined
// with errgroup so a failure in either surfaces as a single error instead
// of the caller sequencing two independent failure paths by hand. Returns
// DefaultConfig unmodified if configPath does not exist.
func LoadConfig(ctx context.Context, configPath, checkpointPath string) (Config, *checkpoint.Store, error) {
	cfg := DefaultConfig()
	var store *checkpoint.Store

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("movement: reading config %s: %w", configPath, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("movement: parsing config %s: %w", configPath, err)
		}
		return nil
	})
	g.Go(func() error {
		if checkpointPath == "" {
			return nil
		}
		s, err := checkpoint.Open(checkpointPath)
		if err != nil {
			return fmt.Errorf("movement: opening checkpoint store %s: %w", checkpointPath, err)
		}
		store = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return Config{}, nil, err
	}
	return cfg, store, nil
}
