package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var versionCmd = &cli.Command{
	Name:   "version",
	Usage:  "Print version information",
	Action: cmdVersion,
}

func cmdVersion(c *cli.Context) error {
	fmt.Printf("verdict %s\n", version)
	if commit != "" {
		fmt.Printf("  commit: %s\n", commit)
	}
	if date != "" {
		fmt.Printf("  built:  %s\n", date)
	}
	return nil
}
