package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"marketsky/export"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Dump a single actor's feed to the command line",
		Description: `Walks one actor's feed and prints each post as a JSON object
on a single line. Use a tool like jq to process the output.

Prints all other log messages to stderr.`,
		Flags: append(credentialFlags(),
			&cli.StringFlag{
				Name:     "actor",
				Aliases:  []string{"a"},
				Usage:    "Actor handle or DID to fetch",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: 100,
				Usage: "Page size for each feed request",
			},
			&cli.IntFlag{
				Name:  "max-posts",
				Value: 0,
				Usage: "Stop after this many posts (0 = walk the whole feed)",
			},
		),
		Action: func(ctx *cli.Context) error {
			// Disable logging to stdout
			log.SetOutput(os.Stderr)

			client := newClient(ctx)
			pager := client.NewFeedPager(ctx.String("actor"), ctx.Int("limit"), ctx.Int("max-posts"))
			sink := export.NewJSONLinesSink(os.Stdout)

			// Write page-by-page so the output streams.
			for pager.HasMore() {
				page, err := pager.Next(ctx.Context)
				if err != nil {
					return err
				}
				if err := sink.WritePosts(ctx.Context, page); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
