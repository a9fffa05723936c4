package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/treeverse/viewstore/pkg/store"
	"github.com/treeverse/viewstore/pkg/store/filtered"
)

var showTreeCmd = &cobra.Command{
	Use:   "show-tree <inner-root-id> <filter-id>",
	Short: "Print the paths visible under a filter, recursively",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		fs, closeFn := openFilteredStore(cfg)
		defer closeFn()

		rootID := filtered.NewRootID(store.RootID(args[0]), args[1])
		res, err := fs.GetRootTree(cmd.Context(), rootID)
		die("get root tree", err)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 1, '\t', 0)
		err = walkTree(cmd.Context(), fs, w, res.Tree, "")
		die("walk tree", err)
		die("flush output", w.Flush())
	},
}

func walkTree(ctx context.Context, fs *filtered.Store, w *tabwriter.Writer, tree *store.Tree, prefix string) error {
	for _, entry := range tree.Entries() {
		entryPath := store.JoinPath(prefix, entry.Name)
		fmt.Fprintf(w, "%s\t%s\n", entry.Kind, entryPath)
		if entry.Kind != store.KindTree {
			continue
		}
		res, err := fs.GetTree(ctx, entry.ID)
		if err != nil {
			return err
		}
		if err := walkTree(ctx, fs, w, res.Tree, entryPath); err != nil {
			return err
		}
	}
	return nil
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(showTreeCmd)
}
