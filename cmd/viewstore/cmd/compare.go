package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <object-id-hex> <object-id-hex>",
	Short: "Compare two filtered object ids without fetching their contents",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		fs, closeFn := openFilteredStore(cfg)
		defer closeFn()

		a, err := hex.DecodeString(args[0])
		die("decode first id", err)
		b, err := hex.DecodeString(args[1])
		die("decode second id", err)
		res, err := fs.CompareObjectsByID(a, b)
		die("compare", err)
		fmt.Println(res)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(compareCmd)
}
