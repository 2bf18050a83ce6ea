package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "bedrockdb",
		Usage: "inspects, archives and serves Bedrock Edition worlds",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "states",
				Usage: "block state dump (block_states.nbt) to build the block table from",
			},
			&cli.StringFlag{
				Name:  "blocks",
				Usage: "YAML manifest of custom blocks to add to the block table",
			},
			&cli.BoolFlag{
				Name:  "hashed",
				Usage: "use block network ID hashes as runtime IDs",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "sqlite",
				Usage: "keep chunk records in db.sqlite instead of a LevelDB database",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log problems found in world data",
			},
		},
		Commands: []*cli.Command{
			infoCommand,
			exportCommand,
			importCommand,
			subChunkCommand,
			paletteCommand,
			serveCommand,
			fetchCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
