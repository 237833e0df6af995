package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/lectern-dev/lectern/pkg/model"
	"github.com/lectern-dev/lectern/pkg/usecase/answer"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, indexFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, queryFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive Q&A session over the course materials",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			assistant, err := cfg.newAssistant(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintln(c.Root().Writer, "Chat session started. Type 'exit' to quit.")

			var sessionID model.SessionID
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				question := strings.TrimSpace(line)
				if question == "" {
					continue
				}
				if question == "exit" {
					break
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " thinking..."
				sp.Start()

				out, err := assistant.Query(ctx, &answer.QueryInput{
					Query:     question,
					SessionID: sessionID,
				})
				sp.Stop()

				if err != nil {
					fmt.Fprintf(c.Root().Writer, "error: %v\n", err)
					continue
				}
				sessionID = out.SessionID

				fmt.Fprintln(c.Root().Writer, out.Answer)
				printSources(c, out.Sources)
				fmt.Fprintln(c.Root().Writer)
			}

			fmt.Fprintln(c.Root().Writer, "Chat session ended.")
			return nil
		},
	}
}
