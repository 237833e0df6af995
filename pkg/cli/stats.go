package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, indexFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, queryFlags(&cfg)...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show ingested corpus statistics",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			assistant, err := cfg.newAssistant(ctx)
			if err != nil {
				return err
			}

			stats, err := assistant.CorpusStats(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Courses: %d\n", stats.CourseCount)
			for _, title := range stats.CourseTitles {
				fmt.Fprintf(c.Root().Writer, "  - %s\n", title)
			}
			return nil
		},
	}
}
