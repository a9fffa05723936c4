package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/viewstore/pkg/filter"
	"github.com/treeverse/viewstore/pkg/store"
	"github.com/treeverse/viewstore/pkg/store/filtered"
	"github.com/treeverse/viewstore/pkg/store/local"
)

func openTestStore(t *testing.T, opts ...local.Option) *local.Store {
	t.Helper()
	s, err := local.Open(filepath.Join(t.TempDir(), "db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBlobRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.PutBlob([]byte("some content"))
	require.NoError(t, err)

	blob, err := s.GetBlob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []byte("some content"), blob.Data)

	meta, err := s.GetBlobMetadata(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(len("some content")), meta.Size)

	// content addressing: same content, same id
	again, err := s.PutBlob([]byte("some content"))
	require.NoError(t, err)
	require.True(t, id.Equal(again))

	_, err = s.GetBlob(ctx, store.ObjectID("no-such-id"))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTreeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	blobID, err := s.PutBlob([]byte("file content"))
	require.NoError(t, err)
	treeID, err := s.PutTree(store.CaseSensitive, []store.TreeEntry{
		{Name: "file.txt", ID: blobID, Kind: store.KindBlob},
	})
	require.NoError(t, err)

	// deterministic encoding: same entries, same id
	treeID2, err := s.PutTree(store.CaseSensitive, []store.TreeEntry{
		{Name: "file.txt", ID: blobID, Kind: store.KindBlob},
	})
	require.NoError(t, err)
	require.True(t, treeID.Equal(treeID2))

	res, err := s.GetTree(ctx, treeID)
	require.NoError(t, err)
	require.Equal(t, store.OriginDisk, res.Origin)
	require.Equal(t, 1, res.Tree.Len())
	entry, ok := res.Tree.Find("file.txt")
	require.True(t, ok)
	require.True(t, entry.ID.Equal(blobID))

	require.NoError(t, s.SetRoot(store.RootID("main"), treeID))
	root, err := s.GetRootTree(ctx, store.RootID("main"))
	require.NoError(t, err)
	require.True(t, root.TreeID.Equal(treeID))
}

func TestPrefetchBlobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []store.ObjectID
	for _, content := range []string{"one", "two", "three"} {
		id, err := s.PutBlob([]byte(content))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// missing blobs don't fail a prefetch
	ids = append(ids, store.ObjectID("missing"))
	require.NoError(t, s.PrefetchBlobs(ctx, ids))
}

func TestObjectIDPrintedForm(t *testing.T) {
	s := openTestStore(t)

	id, err := s.PutBlob([]byte("content"))
	require.NoError(t, err)
	printed, err := s.RenderObjectID(id)
	require.NoError(t, err)
	parsed, err := s.ParseObjectID(printed)
	require.NoError(t, err)
	require.True(t, id.Equal(parsed))

	_, err = s.ParseObjectID("not-hex!")
	require.Error(t, err)
}

func TestManifestAndRecording(t *testing.T) {
	s := openTestStore(t, local.WithRepoName("repo"))
	ctx := context.Background()

	require.NoError(t, s.ImportManifestForRoot(ctx, store.RootID("main"), store.Hash20{9}))

	blobID, err := s.PutBlob([]byte("content"))
	require.NoError(t, err)
	s.StartRecordingFetch()
	_, err = s.GetBlob(ctx, blobID)
	require.NoError(t, err)
	recorded := s.StopRecordingFetch()
	require.Len(t, recorded, 1)
	require.Equal(t, "blob:"+blobID.String(), recorded[0])

	name, ok := s.RepoName()
	require.True(t, ok)
	require.Equal(t, "repo", name)

	s.PeriodicManagementTask()
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "secrets"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("readme"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets", "key"), []byte("hunter2"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "guide.md"), []byte("guide"), 0o644))

	s := openTestStore(t)
	ctx := context.Background()

	treeID, err := s.ImportDir(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, s.SetRoot(store.RootID("main"), treeID))

	root, err := s.GetRootTree(ctx, store.RootID("main"))
	require.NoError(t, err)
	require.Equal(t, 4, root.Tree.Len())

	readme, ok := root.Tree.Find("README.md")
	require.True(t, ok)
	require.Equal(t, store.KindBlob, readme.Kind)
	script, ok := root.Tree.Find("run.sh")
	require.True(t, ok)
	require.Equal(t, store.KindExecutable, script.Kind)
	secrets, ok := root.Tree.Find("secrets")
	require.True(t, ok)
	require.Equal(t, store.KindTree, secrets.Kind)
}

// TestFilteredViewOverLocalStore stacks the whole thing: glob rules over a
// pebble store built from a real directory.
func TestFilteredViewOverLocalStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "secrets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.go"), []byte("package app"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets", "key"), []byte("hunter2"), 0o600))

	s := openTestStore(t)
	ctx := context.Background()
	treeID, err := s.ImportDir(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, s.SetRoot(store.RootID("main"), treeID))

	rules, err := filter.NewGlobFilter(map[string][]string{
		"no-secrets": {"secrets", "secrets/*"},
	})
	require.NoError(t, err)
	fs := filtered.New(s, rules)

	res, err := fs.GetRootTree(ctx, filtered.NewRootID("main", "no-secrets"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Tree.Len())
	_, ok := res.Tree.Find("app.go")
	require.True(t, ok)

	// the visible blob is fetchable through the facade
	entry, _ := res.Tree.Find("app.go")
	blob, err := fs.GetBlob(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("package app"), blob.Data)
}
