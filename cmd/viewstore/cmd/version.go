package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/treeverse/viewstore/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of viewstore",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(versionCmd)
}
