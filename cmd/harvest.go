package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"marketsky/bluesky"
	"marketsky/config"
	"marketsky/export"
	"marketsky/harvest"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "identifier",
			Aliases:  []string{"i"},
			Usage:    "Bluesky account identifier (handle or email)",
			EnvVars:  []string{"MARKETSKY_IDENTIFIER"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "Bluesky app password",
			EnvVars:  []string{"MARKETSKY_PASSWORD"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Bluesky PDS host",
			Value:   bluesky.DefaultPDSHost,
			EnvVars: []string{"MARKETSKY_PDS_HOST"},
		},
	}
}

func newClient(ctx *cli.Context) *bluesky.Client {
	return bluesky.NewClient(ctx.String("host"), bluesky.Credentials{
		Identifier: ctx.String("identifier"),
		Password:   ctx.String("password"),
	}, bluesky.WithUserAgent("marketsky"))
}

func harvestCmd() *cli.Command {
	return &cli.Command{
		Name:  "harvest",
		Usage: "Harvest posts for all configured actors",
		Description: `Resolves the configured search terms to actor handles, walks
each actor's feed page-by-page, filters the posts by the configured
date range and writes the merged result, newest first, to a CSV file.

The CSV is the input contract for the downstream correlation and
visualization steps.`,
		Flags: append(credentialFlags(),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/harvest.toml",
				Usage:   "Path to harvest configuration file",
				EnvVars: []string{"MARKETSKY_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output CSV path, overrides the config file",
				EnvVars: []string{"MARKETSKY_OUTPUT"},
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			harvestCfg, err := cfg.HarvestConfig()
			if err != nil {
				return err
			}

			output := cfg.Harvest.Output
			if ctx.String("output") != "" {
				output = ctx.String("output")
			}
			if output == "" {
				output = "posts_bluesky.csv"
			}

			client := newClient(ctx)
			harvester := harvest.New(client, harvestCfg)

			written, err := harvester.Run(ctx.Context, export.NewCSVSink(output))
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Wrote %d posts to %s\n", written, output)
			return nil
		},
	}
}

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Resolve search terms to actor handles",
		ArgsUsage: "TERM [TERM...]",
		Description: `Searches Bluesky actors for each term and prints the most
relevant handle per term. Useful for building the actor list in the
harvest configuration.`,
		Flags: append(credentialFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Value: 5,
				Usage: "Number of matches to show per term",
			},
		),
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() == 0 {
				return fmt.Errorf("at least one search term is required")
			}

			client := newClient(ctx)
			for _, term := range ctx.Args().Slice() {
				actors, err := client.SearchActors(ctx.Context, term, ctx.Int("limit"))
				if err != nil {
					return err
				}

				if len(actors) == 0 {
					log.WithFields(log.Fields{
						"term": term,
					}).Warn("No actors found")
					continue
				}

				for _, actor := range actors {
					fmt.Printf("%s\t%s\t%s\n", term, actor.Handle, actor.DisplayName)
				}
			}
			return nil
		},
	}
}
