package main

import (
	"fmt"
	"os"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/oriumgames/bedrockdb/block"
	"github.com/oriumgames/bedrockdb/chunk"
	"github.com/urfave/cli/v2"
)

var subChunkCommand = &cli.Command{
	Name:      "subchunk",
	Usage:     "prints the palettes of a sub chunk of a world",
	ArgsUsage: "<world>",
	Flags: []cli.Flag{
		dimensionFlag,
		&cli.IntFlag{Name: "x", Usage: "chunk X"},
		&cli.IntFlag{Name: "z", Usage: "chunk Z"},
		&cli.IntFlag{Name: "y", Usage: "sub chunk Y, the block Y divided by 16"},
	},
	Action: func(c *cli.Context) error {
		dim, err := dimension(c)
		if err != nil {
			return err
		}
		db, err := openWorld(c, true)
		if err != nil {
			return err
		}
		defer db.Close()

		pos := world.ChunkPos{int32(c.Int("x")), int32(c.Int("z"))}
		sub, ok, err := db.LoadSubChunk(dim, pos, int32(c.Int("y")))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no chunk at %v in %v", pos, dim)
		}
		printSubChunk(sub, db.Table())

		hash, ok, err := db.LoadSubChunkBlobHash(dim, pos, int8(c.Int("y")))
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("Blob hash: %x\n", hash)
		}
		return nil
	},
}

func printSubChunk(sub *chunk.SubChunk, t *block.Table) {
	fmt.Printf("%d layers\n", len(sub.Layers()))
	for i, l := range sub.Layers() {
		counts := make(map[uint32]int)
		for _, rid := range sub.Blocks(uint8(i)) {
			counts[rid]++
		}
		fmt.Printf("Layer %d: %d bits per index, %d palette entries\n", i, l.BitsPerIndex(), len(l.Palette()))
		for _, rid := range l.Palette() {
			if counts[rid] == 0 {
				continue
			}
			s, _ := t.RuntimeIDToState(rid)
			fmt.Printf("  %6d  %v\n", counts[rid], s)
		}
	}
}

var paletteCommand = &cli.Command{
	Name:      "palette",
	Usage:     "writes every state of the block table to a block_states.nbt file",
	ArgsUsage: "<output>",
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return fmt.Errorf("need an output file")
		}
		t, err := table(c)
		if err != nil {
			return err
		}
		out, err := os.Create(c.Args().Get(0))
		if err != nil {
			return err
		}
		if err := t.WriteStates(out); err != nil {
			_ = out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Printf("Wrote %d block states\n", t.Len())
		return nil
	},
}
