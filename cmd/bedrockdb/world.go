package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/oriumgames/bedrockdb"
	"github.com/oriumgames/bedrockdb/block"
	"github.com/oriumgames/bedrockdb/manifest"
	"github.com/urfave/cli/v2"
)

// table builds the block table selected by the global flags.
func table(c *cli.Context) (*block.Table, error) {
	b := block.NewBuilder(c.Bool("hashed"))
	if path := c.String("states"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := b.RegisterStates(f); err != nil {
			return nil, fmt.Errorf("%v: %w", path, err)
		}
	}
	if path := c.String("blocks"); path != "" {
		m, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		if err := m.Apply(b); err != nil {
			return nil, fmt.Errorf("%v: %w", path, err)
		}
	}
	return b.Finalise()
}

// openWorld opens the world in the directory passed as the first argument.
func openWorld(c *cli.Context, readOnly bool) (*bedrockdb.DB, error) {
	if c.NArg() == 0 {
		return nil, fmt.Errorf("need a world directory")
	}
	t, err := table(c)
	if err != nil {
		return nil, err
	}
	conf := bedrockdb.Config{
		Log:      log.New(io.Discard, "", 0),
		ReadOnly: readOnly,
		SQLite:   c.Bool("sqlite"),
	}
	if c.Bool("verbose") {
		conf.Log = log.New(os.Stderr, "", log.LstdFlags)
	}
	return conf.Open(c.Args().Get(0), t)
}

// dimensionFlag selects the dimension a command works on.
var dimensionFlag = &cli.StringFlag{
	Name:  "dim",
	Usage: "dimension: overworld, nether or end",
	Value: "overworld",
}

func dimension(c *cli.Context) (bedrockdb.Dimension, error) {
	switch name := c.String("dim"); name {
	case "overworld":
		return bedrockdb.Overworld, nil
	case "nether":
		return bedrockdb.Nether, nil
	case "end":
		return bedrockdb.End, nil
	default:
		return 0, fmt.Errorf("unknown dimension %q", name)
	}
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "prints the level.dat settings and chunk counts of a world",
	ArgsUsage: "<world>",
	Action: func(c *cli.Context) error {
		db, err := openWorld(c, true)
		if err != nil {
			return err
		}
		defer db.Close()

		d := db.LevelDat()
		fmt.Printf("World %q\n", d.LevelName)
		fmt.Printf("  Storage version: %d\n", d.StorageVersion)
		fmt.Printf("  Seed: %d\n", d.RandomSeed)
		fmt.Printf("  Spawn: %d,%d,%d\n", d.SpawnX, d.SpawnY, d.SpawnZ)
		fmt.Printf("  Time: %d\n", d.Time)
		fmt.Printf("  Last opened with: %v\n", d.LastOpenedWithVersion)
		for _, dim := range []bedrockdb.Dimension{bedrockdb.Overworld, bedrockdb.Nether, bedrockdb.End} {
			chunks, err := db.Chunks(dim)
			if err != nil {
				return err
			}
			fmt.Printf("  %v: %d chunks\n", dim, len(chunks))
		}
		return nil
	},
}
