// Package mem provides an in-memory backing store. It backs unit tests and
// demos: contents are seeded directly, fetches are counted, and errors can
// be injected.
package mem

import (
	"context"
	"crypto/sha1" //nolint:gosec
	"sync"

	"github.com/treeverse/viewstore/pkg/store"
)

type Store struct {
	mu        sync.RWMutex
	repoName  string
	roots     map[store.RootID]store.ObjectID
	trees     map[string]*store.Tree
	blobs     map[string][]byte
	manifests map[store.RootID]store.Hash20

	failWith error

	recording bool
	recorded  []string

	// Counters are updated on every call of the matching operation.
	GetRootTreeCalls    int
	GetTreeCalls        int
	GetBlobCalls        int
	GetBlobMetaCalls    int
	PrefetchCalls       int
	ManagementTaskCalls int

	// LastPrefetch holds the ids passed to the most recent PrefetchBlobs.
	LastPrefetch []store.ObjectID
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

func WithRepoName(name string) Option {
	return func(s *Store) {
		s.repoName = name
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		roots:     make(map[store.RootID]store.ObjectID),
		trees:     make(map[string]*store.Tree),
		blobs:     make(map[string][]byte),
		manifests: make(map[store.RootID]store.Hash20),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetError makes every fetch operation fail with err until cleared with
// SetError(nil).
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// PutBlob seeds blob content under the given id.
func (s *Store) PutBlob(id store.ObjectID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[string(id)] = append([]byte(nil), data...)
}

// PutTree seeds a tree under the given id and returns it.
func (s *Store) PutTree(id store.ObjectID, cs store.CaseSensitivity, entries []store.TreeEntry) *store.Tree {
	tree := store.NewTree(id.Clone(), cs, entries)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[string(id)] = tree
	return tree
}

// PutRoot binds a root id to a tree id.
func (s *Store) PutRoot(rootID store.RootID, treeID store.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots[rootID] = treeID.Clone()
}

// Manifest returns the manifest imported for rootID, if any.
func (s *Store) Manifest(rootID store.RootID) (store.Hash20, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.manifests[rootID]
	return m, ok
}

func (s *Store) record(key string) {
	if s.recording {
		s.recorded = append(s.recorded, key)
	}
}

func (s *Store) GetRootTree(_ context.Context, rootID store.RootID) (*store.RootTreeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetRootTreeCalls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.record("root:" + string(rootID))
	treeID, ok := s.roots[rootID]
	if !ok {
		return nil, store.ErrNotFound
	}
	tree, ok := s.trees[string(treeID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.RootTreeResult{Tree: tree, TreeID: treeID.Clone()}, nil
}

func (s *Store) GetTree(_ context.Context, id store.ObjectID) (*store.TreeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetTreeCalls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.record("tree:" + id.String())
	tree, ok := s.trees[string(id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.TreeResult{Tree: tree, Origin: store.OriginMemory}, nil
}

func (s *Store) GetBlob(_ context.Context, id store.ObjectID) (*store.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetBlobCalls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.record("blob:" + id.String())
	data, ok := s.blobs[string(id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Blob{ID: id.Clone(), Data: append([]byte(nil), data...)}, nil
}

func (s *Store) GetBlobMetadata(_ context.Context, id store.ObjectID) (*store.BlobMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetBlobMetaCalls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	data, ok := s.blobs[string(id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.BlobMetadata{
		Size:        int64(len(data)),
		ContentHash: store.Hash20(sha1.Sum(data)), //nolint:gosec
	}, nil
}

func (s *Store) GetTreeEntryForObjectID(_ context.Context, id store.ObjectID, kind store.ObjectKind) (*store.TreeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &store.TreeEntry{ID: id.Clone(), Kind: kind}, nil
}

func (s *Store) PrefetchBlobs(_ context.Context, ids []store.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PrefetchCalls++
	if s.failWith != nil {
		return s.failWith
	}
	s.LastPrefetch = make([]store.ObjectID, 0, len(ids))
	for _, id := range ids {
		s.LastPrefetch = append(s.LastPrefetch, id.Clone())
	}
	return nil
}

// CompareObjectsByID is byte equality: the store is content-addressed, so
// distinct ids address distinct content.
func (s *Store) CompareObjectsByID(a, b store.ObjectID) (store.ObjectComparison, error) {
	if a.Equal(b) {
		return store.ComparisonIdentical, nil
	}
	return store.ComparisonDifferent, nil
}

func (s *Store) ParseRootID(printed string) (store.RootID, error) {
	return store.RootID(printed), nil
}

func (s *Store) RenderRootID(rootID store.RootID) (string, error) {
	return string(rootID), nil
}

func (s *Store) ParseObjectID(printed string) (store.ObjectID, error) {
	return store.ObjectID(printed), nil
}

func (s *Store) RenderObjectID(id store.ObjectID) (string, error) {
	return string(id), nil
}

func (s *Store) ImportManifestForRoot(_ context.Context, rootID store.RootID, manifest store.Hash20) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.manifests[rootID] = manifest
	return nil
}

func (s *Store) RepoName() (string, bool) {
	return s.repoName, s.repoName != ""
}

func (s *Store) StartRecordingFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = true
	s.recorded = nil
}

func (s *Store) StopRecordingFetch() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	recorded := s.recorded
	s.recorded = nil
	return recorded
}

func (s *Store) PeriodicManagementTask() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ManagementTaskCalls++
}
