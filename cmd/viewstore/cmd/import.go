package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/treeverse/viewstore/pkg/store"
)

var importRootName string

var importCmd = &cobra.Command{
	Use:   "import <directory>",
	Short: "Import a directory tree into the local store and bind it to a root id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		inner, closeFn := openLocalStore(cfg)
		defer closeFn()

		treeID, err := inner.ImportDir(cmd.Context(), args[0])
		die("import directory", err)
		err = inner.SetRoot(store.RootID(importRootName), treeID)
		die("bind root", err)
		fmt.Printf("root %s -> tree %s\n", importRootName, treeID)
	},
}

//nolint:gochecknoinits
func init() {
	importCmd.Flags().StringVar(&importRootName, "root", "main", "root id to bind the imported tree to")
	rootCmd.AddCommand(importCmd)
}
