package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/oriumgames/bedrockdb/stream"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:      "serve",
	Usage:     "serves the chunks of a world over websocket",
	ArgsUsage: "<world>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "address to listen on", Value: "localhost:8080"},
	},
	Action: func(c *cli.Context) error {
		db, err := openWorld(c, true)
		if err != nil {
			return err
		}
		defer db.Close()

		logger := log.New(os.Stderr, "", log.LstdFlags)
		mux := http.NewServeMux()
		mux.Handle("/chunks", stream.NewServer(db, logger))
		srv := &http.Server{Addr: c.String("addr"), Handler: mux}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()

		logger.Printf("serving %s on ws://%s/chunks", db.Dir(), srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

var fetchCommand = &cli.Command{
	Name:      "fetch",
	Usage:     "requests a chunk from a server started with serve",
	ArgsUsage: "<url>",
	Flags: []cli.Flag{
		dimensionFlag,
		&cli.IntFlag{Name: "x", Usage: "chunk X"},
		&cli.IntFlag{Name: "z", Usage: "chunk Z"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return fmt.Errorf("need a server url")
		}
		dim, err := dimension(c)
		if err != nil {
			return err
		}
		t, err := table(c)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
		defer cancel()

		client, err := stream.Dial(ctx, c.Args().Get(0), t)
		if err != nil {
			return err
		}
		defer client.Close()

		pos := world.ChunkPos{int32(c.Int("x")), int32(c.Int("z"))}
		ch, ok, err := client.Chunk(ctx, dim, pos)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("No chunk at %v in %v\n", pos, dim)
			return nil
		}
		fmt.Printf("Chunk %v in %v: highest filled sub chunk %d\n", pos, dim, ch.HighestFilledSubChunk())
		for i, sub := range ch.Sub() {
			if sub.Empty() {
				continue
			}
			fmt.Printf("Sub chunk %d (y %d):\n", i, ch.SubY(int16(i)))
			printSubChunk(sub, t)
		}
		return nil
	},
}
