package cmd

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "marketsky",
		Usage: "Collect Bluesky posts from market-relevant accounts",
		Description: `Marketsky fetches public posts from Bluesky accounts that
		publish market-relevant commentary and exports them for
		downstream correlation analysis against stock-price series.

		Accounts can be listed explicitly or resolved from search terms.
		Each feed is walked page-by-page through the authenticated
		Bluesky API and normalized into a flat post record.

		Flags can generally be set via environment variables, e.g.:

		--identifier => MARKETSKY_IDENTIFIER=myname.bsky.social
		--password => MARKETSKY_PASSWORD=...

		A .env file in the working directory is loaded if present.
		`,
		Before: func(ctx *cli.Context) error {
			_ = godotenv.Load()
			return nil
		},
		Commands: []*cli.Command{
			harvestCmd(),
			fetchCmd(),
			searchCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Error(describeError(err))
		os.Exit(1)
	}
}
