package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/cpstack/preflight/pkg/config"
	"github.com/cpstack/preflight/pkg/preflight"
	"github.com/cpstack/preflight/pkg/serializer"
	"github.com/cpstack/preflight/pkg/version"
)

// ErrChecksFailed is returned by the check command when any preflight
// check fails. All failure kinds deliberately map to the same exit code.
var ErrChecksFailed = cli.Exit("preflight checks failed", 1)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Run the pre-deployment validation checks",
		Description: `Runs the ordered preflight check sequence against the host and the given
configuration, stopping at the first failure:

  1. hostname consistency (with hosts-file remediation when safe)
  2. available memory
  3. sysctl facility availability
  4. generated-passwords file presence
  5. environment-file naming conflicts (when custom files are configured)
  6. configuration value formats
  7. per-subnet addressing: containment, DHCP order, inspection order, overlap
  8. nameserver addresses
  9. local interface existence
 10. control-plane address drift

Any failure aborts installation before irreversible state changes occur.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "Path to the installation configuration file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report output file path (default: stdout)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: string(serializer.FormatTable),
				Usage: "Report format (json, yaml, table)",
			},
			&cli.BoolFlag{
				Name:  "update",
				Usage: "Refresh host packages (clean + update) before running checks",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat := serializer.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", outFormat)
			}

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
			}

			runner := preflight.New(cfg,
				preflight.WithVersion(version.Version()),
				preflight.WithPackageUpdate(cmd.Bool("update")),
			)
			report := runner.Run(ctx)

			writer := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			if err := writer.Serialize(report); err != nil {
				writer.Close()
				return fmt.Errorf("error writing report: %w", err)
			}
			if err := writer.Close(); err != nil {
				return fmt.Errorf("error writing report: %w", err)
			}

			if !report.Passed() {
				return ErrChecksFailed
			}
			return nil
		},
	}
}
