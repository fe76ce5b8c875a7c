package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credentials/cmd/app/commands"
)

func getClientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "client",
			Usage: "Run the interactive console against CLIENT_SERVER_URL",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "server-url",
					Aliases: []string{"s"},
					Usage:   "Auth service base URL (overrides CLIENT_SERVER_URL)",
					Sources: cli.EnvVars("CLIENT_SERVER_URL"),
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunClient(ctx, cmd.String("server-url"))
			},
		},
	}
}
