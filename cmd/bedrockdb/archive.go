package main

import (
	"fmt"
	"os"

	"github.com/oriumgames/bedrockdb/archive"
	"github.com/urfave/cli/v2"
)

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "writes the chunks of a dimension of a world to an archive",
	ArgsUsage: "<world> <output>",
	Flags: []cli.Flag{
		dimensionFlag,
		&cli.StringFlag{
			Name:  "compression",
			Usage: "none, fast, default or best",
			Value: "best",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return fmt.Errorf("need a world directory and an output file")
		}
		dim, err := dimension(c)
		if err != nil {
			return err
		}
		level, err := compressionLevel(c.String("compression"))
		if err != nil {
			return err
		}
		db, err := openWorld(c, true)
		if err != nil {
			return err
		}
		defer db.Close()

		outputFile := c.Args().Get(1)
		fmt.Printf("Exporting %v of %s to %s...\n", dim, db.Dir(), outputFile)
		out, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		n, err := archive.Export(out, db, dim, level)
		if err != nil {
			_ = out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Printf("Successfully wrote %d chunks to %s\n", n, outputFile)
		return nil
	},
}

var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "writes the chunks of an archive to a world, creating it if needed",
	ArgsUsage: "<world> <archive>",
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return fmt.Errorf("need a world directory and an archive")
		}
		inputFile := c.Args().Get(1)
		f, err := os.Open(inputFile)
		if err != nil {
			return err
		}
		defer f.Close()

		db, err := openWorld(c, false)
		if err != nil {
			return err
		}
		fmt.Printf("Importing %s into %s...\n", inputFile, db.Dir())
		n, err := archive.Import(f, db)
		if err != nil {
			_ = db.Close()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		fmt.Printf("Successfully imported %d chunks\n", n)
		return nil
	},
}

func compressionLevel(name string) (archive.CompressionLevel, error) {
	switch name {
	case "none":
		return archive.CompressionLevelNone, nil
	case "fast":
		return archive.CompressionLevelFast, nil
	case "default":
		return archive.CompressionLevelDefault, nil
	case "best":
		return archive.CompressionLevelBest, nil
	}
	return 0, fmt.Errorf("unknown compression level %q", name)
}
