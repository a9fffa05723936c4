package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/treeverse/viewstore/pkg/store"
	"github.com/treeverse/viewstore/pkg/store/filtered"
)

var rootIDCmd = &cobra.Command{
	Use:   "root",
	Short: "Work with filtered root ids",
}

var rootCreateCmd = &cobra.Command{
	Use:   "create <inner-root-id> <filter-id>",
	Short: "Encode an inner root id and a filter id into a filtered root id",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		rootID := filtered.NewRootID(store.RootID(args[0]), args[1])
		fmt.Println(hex.EncodeToString([]byte(rootID)))
	},
}

var rootParseCmd = &cobra.Command{
	Use:   "parse <filtered-root-id-hex>",
	Short: "Split a filtered root id into its inner root id and filter id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := hex.DecodeString(args[0])
		die("decode hex", err)
		inner, filterID, err := filtered.SplitRootID(store.RootID(raw))
		die("split root id", err)
		fmt.Printf("inner root id: %s\nfilter id: %s\n", inner, filterID)
	},
}

//nolint:gochecknoinits
func init() {
	rootIDCmd.AddCommand(rootCreateCmd)
	rootIDCmd.AddCommand(rootParseCmd)
	rootCmd.AddCommand(rootIDCmd)
}
