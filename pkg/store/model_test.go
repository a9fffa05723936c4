package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/viewstore/pkg/store"
)

func TestTree_EntriesSorted(t *testing.T) {
	tree := store.NewTree(store.ObjectID("tid"), store.CaseSensitive, []store.TreeEntry{
		{Name: "zebra", ID: store.ObjectID("3"), Kind: store.KindBlob},
		{Name: "apple", ID: store.ObjectID("1"), Kind: store.KindBlob},
		{Name: "mango", ID: store.ObjectID("2"), Kind: store.KindTree},
	})
	names := make([]string, 0, tree.Len())
	for _, e := range tree.Entries() {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"apple", "mango", "zebra"}, names)
}

func TestTree_Find(t *testing.T) {
	entries := []store.TreeEntry{
		{Name: "README.md", ID: store.ObjectID("1"), Kind: store.KindBlob},
		{Name: "src", ID: store.ObjectID("2"), Kind: store.KindTree},
	}

	sensitive := store.NewTree(nil, store.CaseSensitive, entries)
	_, ok := sensitive.Find("readme.md")
	require.False(t, ok)
	entry, ok := sensitive.Find("README.md")
	require.True(t, ok)
	require.Equal(t, store.ObjectID("1"), entry.ID)

	insensitive := store.NewTree(nil, store.CaseInsensitive, entries)
	entry, ok = insensitive.Find("readme.MD")
	require.True(t, ok)
	require.Equal(t, store.ObjectID("1"), entry.ID)
}

func TestJoinPath(t *testing.T) {
	require.Equal(t, "a", store.JoinPath("", "a"))
	require.Equal(t, "a/b", store.JoinPath("a", "b"))
	require.Equal(t, "a/b/c", store.JoinPath("a/b", "c"))
}

func TestBasename(t *testing.T) {
	require.Equal(t, "c", store.Basename("a/b/c"))
	require.Equal(t, "a", store.Basename("a"))
	require.Equal(t, "", store.Basename(""))
}

func TestObjectID_Clone(t *testing.T) {
	id := store.ObjectID("abc")
	clone := id.Clone()
	require.True(t, id.Equal(clone))
	clone[0] = 'x'
	require.Equal(t, byte('a'), id[0])
}
