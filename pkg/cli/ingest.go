package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, indexFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, ingestFlags(&cfg)...)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Ingest a folder of course documents into the index",
		ArgsUsage: "<folder>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			folder := c.Args().First()
			if folder == "" {
				return goerr.New("folder is required")
			}

			ingester, err := cfg.newIngester(ctx)
			if err != nil {
				return err
			}

			stats, err := ingester.Folder(ctx, folder)
			if err != nil {
				return goerr.Wrap(err, "ingestion failed")
			}

			fmt.Fprintf(c.Root().Writer, "Courses added: %d (skipped: %d), chunks: %d\n",
				stats.CoursesAdded, stats.CoursesSkipped, stats.ChunksAdded)
			return nil
		},
	}
}
