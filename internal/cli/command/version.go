package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/busstate-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			f, err := formatterFor(c)
			if err != nil {
				return err
			}
			return f.Format(c.App.Writer, buildinfo.Get())
		},
	}
}
