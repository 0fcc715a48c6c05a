package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is set via -ldflags "-X .../cmd.buildVersion=..." at
// release build time; it is left at "dev" otherwise.
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reqfluxd %s\n", buildVersion)
	},
}
