package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/lectern-dev/lectern/pkg/usecase/answer"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, indexFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, queryFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a single question about the course materials",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.New("question is required")
			}

			assistant, err := cfg.newAssistant(ctx)
			if err != nil {
				return err
			}

			out, err := assistant.Query(ctx, &answer.QueryInput{Query: question})
			if err != nil {
				return goerr.Wrap(err, "failed to answer question")
			}

			fmt.Fprintln(c.Root().Writer, out.Answer)
			printSources(c, out.Sources)
			return nil
		},
	}
}

func printSources(c *cli.Command, sources []string) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(c.Root().Writer, "\nSources:")
	for _, source := range sources {
		fmt.Fprintf(c.Root().Writer, "  - %s\n", source)
	}
}
