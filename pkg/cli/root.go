package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/cpstack/preflight/pkg/logging"
	"github.com/cpstack/preflight/pkg/version"
)

// New builds the preflightctl root command.
func New() *cli.Command {
	return &cli.Command{
		Name:                  "preflightctl",
		Usage:                 "Pre-deployment validation gate for a control-plane host",
		Version:               version.Version(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Output logs in JSON format",
			},
			&cli.BoolFlag{
				Name:  "log-journal",
				Usage: "Forward logs to the systemd journal when available",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.Setup(logging.Options{
				Debug:   cmd.Bool("debug"),
				JSON:    cmd.Bool("log-json"),
				Journal: cmd.Bool("log-journal"),
			})
			return ctx, nil
		},
		Commands: []*cli.Command{
			checkCmd(),
			versionCmd(),
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
