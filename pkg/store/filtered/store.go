// Package filtered implements a backing store that decorates another store
// with a path filter: tree entries the filter hides are dropped from every
// materialized tree, and the ids handed out embed the filter id so later
// fetches re-apply the same view without a side channel.
package filtered

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/treeverse/viewstore/pkg/filter"
	"github.com/treeverse/viewstore/pkg/future"
	"github.com/treeverse/viewstore/pkg/logging"
	"github.com/treeverse/viewstore/pkg/store"
)

var (
	ErrInvalidCompare   = errors.New("cannot compare filtered ids of different types")
	ErrFilterEvaluation = errors.New("filter evaluation failed")
)

// Store is the filtered backing store. It shares the inner store with other
// owners and exclusively owns its filter; both must outlive it.
type Store struct {
	inner  store.Store
	filter filter.Filter
	log    logging.Logger
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

func WithLogger(log logging.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New builds a filtered view layer over inner. The facade adds no state of
// its own: every call decodes the composite ids it is given, forwards the
// inner portion, and re-encodes ids on results.
func New(inner store.Store, f filter.Filter, opts ...Option) *Store {
	s := &Store{
		inner:  inner,
		filter: f,
		log:    logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) GetRootTree(ctx context.Context, rootID store.RootID) (*store.RootTreeResult, error) {
	innerRoot, filterID, err := SplitRootID(rootID)
	if err != nil {
		return nil, fmt.Errorf("get root tree: %w", err)
	}
	s.log.WithContext(ctx).WithFields(logging.Fields{
		logging.RootIDFieldKey:   string(innerRoot),
		logging.FilterIDFieldKey: filterID,
	}).Trace("getting root tree")
	res, err := s.inner.GetRootTree(ctx, innerRoot)
	if err != nil {
		return nil, err
	}
	entries, err := s.filterTree(ctx, res.Tree, "", filterID)
	if err != nil {
		return nil, err
	}
	rootTreeID := NewTreeID("", filterID, res.TreeID).Encode()
	return &store.RootTreeResult{
		Tree:   store.NewTree(rootTreeID, res.Tree.CaseSensitivity(), entries),
		TreeID: rootTreeID,
	}, nil
}

func (s *Store) GetTree(ctx context.Context, id store.ObjectID) (*store.TreeResult, error) {
	foid, err := DecodeObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	treePath, err := foid.Path()
	if err != nil {
		return nil, fmt.Errorf("get tree %s: %w", id, err)
	}
	filterID, _ := foid.FilterID()
	res, err := s.inner.GetTree(ctx, foid.Inner())
	if err != nil {
		return nil, err
	}
	entries, err := s.filterTree(ctx, res.Tree, treePath, filterID)
	if err != nil {
		return nil, err
	}
	// The result keeps the id it was requested under: same path, same
	// filter, same inner tree.
	return &store.TreeResult{
		Tree:   store.NewTree(id.Clone(), res.Tree.CaseSensitivity(), entries),
		Origin: res.Origin,
	}, nil
}

// filterTree evaluates the filter for every entry of an inner tree and
// returns the visible entries with their ids rewritten to carry the filter
// forward. Filter evaluations run with no mutual ordering; results are
// gathered in entry order. An entry whose evaluation fails is logged and
// dropped (hidden on doubt); a cancelled context fails the whole call.
func (s *Store) filterTree(ctx context.Context, tree *store.Tree, treePath string, filterID string) ([]store.TreeEntry, error) {
	entries := tree.Entries()
	type decision struct {
		path string
		fut  *future.Value[bool]
	}
	decisions := make([]decision, 0, len(entries))
	for _, entry := range entries {
		entryPath := store.JoinPath(treePath, entry.Name)
		decisions = append(decisions, decision{
			path: entryPath,
			fut:  s.filter.IsPathFiltered(ctx, entryPath, filterID),
		})
	}

	visible := make([]store.TreeEntry, 0, len(entries))
	for i, d := range decisions {
		hidden, err := d.fut.Get(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.WithContext(ctx).WithError(err).WithFields(logging.Fields{
				logging.PathFieldKey:     d.path,
				logging.FilterIDFieldKey: filterID,
			}).Error("cannot determine if entry is filtered, dropping it")
			continue
		}
		if hidden {
			continue
		}
		entry := entries[i]
		var id store.ObjectID
		if entry.Kind == store.KindTree {
			id = NewTreeID(d.path, filterID, entry.ID).Encode()
		} else {
			id = NewBlobID(entry.ID).Encode()
		}
		visible = append(visible, store.TreeEntry{Name: entry.Name, ID: id, Kind: entry.Kind})
	}
	return visible, nil
}

func (s *Store) GetBlob(ctx context.Context, id store.ObjectID) (*store.Blob, error) {
	foid, err := DecodeObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}
	return s.inner.GetBlob(ctx, foid.Inner())
}

func (s *Store) GetBlobMetadata(ctx context.Context, id store.ObjectID) (*store.BlobMetadata, error) {
	foid, err := DecodeObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("get blob metadata: %w", err)
	}
	return s.inner.GetBlobMetadata(ctx, foid.Inner())
}

func (s *Store) GetTreeEntryForObjectID(ctx context.Context, id store.ObjectID, kind store.ObjectKind) (*store.TreeEntry, error) {
	foid, err := DecodeObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("get tree entry: %w", err)
	}
	return s.inner.GetTreeEntryForObjectID(ctx, foid.Inner(), kind)
}

func (s *Store) PrefetchBlobs(ctx context.Context, ids []store.ObjectID) error {
	innerIDs := make([]store.ObjectID, 0, len(ids))
	var merr *multierror.Error
	for _, id := range ids {
		foid, err := DecodeObjectID(id)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("prefetch %s: %w", id, err))
			continue
		}
		innerIDs = append(innerIDs, foid.Inner())
	}
	if err := merr.ErrorOrNil(); err != nil {
		return err
	}
	return s.inner.PrefetchBlobs(ctx, innerIDs)
}

// CompareObjectsByID answers whether two composite ids address identical
// content. It is synchronous: when the filter cannot answer without waiting
// it returns ComparisonUnknown instead of blocking.
func (s *Store) CompareObjectsByID(a, b store.ObjectID) (store.ObjectComparison, error) {
	// Equal bytes means same inner object under the same filter.
	if a.Equal(b) {
		return store.ComparisonIdentical, nil
	}
	foidA, err := DecodeObjectID(a)
	if err != nil {
		return store.ComparisonUnknown, fmt.Errorf("compare %s: %w", a, err)
	}
	foidB, err := DecodeObjectID(b)
	if err != nil {
		return store.ComparisonUnknown, fmt.Errorf("compare %s: %w", b, err)
	}
	if foidA.Type() != foidB.Type() {
		return store.ComparisonUnknown, fmt.Errorf("compare %s id with %s id: %w",
			foidA.Type(), foidB.Type(), ErrInvalidCompare)
	}

	switch foidA.Type() {
	case ObjectTypeBlob:
		// Blobs carry no filter: equality is the inner store's call.
		return s.inner.CompareObjectsByID(foidA.Inner(), foidB.Inner())
	case ObjectTypeTree:
		return s.compareTrees(foidA, foidB)
	default:
		return store.ComparisonUnknown, fmt.Errorf("compare tag 0x%02x: %w",
			byte(foidA.Type()), ErrUnknownObjectType)
	}
}

func (s *Store) compareTrees(foidA, foidB ObjectID) (store.ObjectComparison, error) {
	filterA, _ := foidA.FilterID()
	filterB, _ := foidB.FilterID()
	if filterA == filterB {
		return s.inner.CompareObjectsByID(foidA.Inner(), foidB.Inner())
	}

	// The filters differ. Deciding whether the change affects the tree's
	// descendants would require fetching them; all this layer can check
	// cheaply is whether the tree's own path flips visibility.
	pathA, _ := foidA.Path()
	pathB, _ := foidB.Path()
	affected, err, ready := s.pathAffectedByFilterChange(pathA, pathB, filterA, filterB).TryGet()
	if !ready {
		// Don't queue work behind a synchronous comparison; answer now.
		return store.ComparisonUnknown, nil
	}
	if err != nil {
		return store.ComparisonUnknown, err
	}
	if affected {
		return store.ComparisonDifferent, nil
	}
	res, err := s.inner.CompareObjectsByID(foidA.Inner(), foidB.Inner())
	if err != nil {
		return store.ComparisonUnknown, err
	}
	if res == store.ComparisonIdentical {
		// The path itself is untouched, but a descendant may still flip
		// under the other filter; identical inner trees are not enough.
		return store.ComparisonUnknown, nil
	}
	return res, nil
}

// pathAffectedByFilterChange reports whether a path is hidden under exactly
// one of two filters. A path hidden in both or visible in both is
// unaffected by switching between them.
func (s *Store) pathAffectedByFilterChange(pathOne, pathTwo, filterOne, filterTwo string) *future.Value[bool] {
	futOne := s.filter.IsPathFiltered(context.Background(), pathOne, filterOne)
	futTwo := s.filter.IsPathFiltered(context.Background(), pathTwo, filterTwo)

	combine := func(one, two bool, errOne, errTwo error) (bool, error) {
		if errOne != nil || errTwo != nil {
			merr := multierror.Append(nil, errOne, errTwo)
			return false, fmt.Errorf("%w: %w", ErrFilterEvaluation, merr.ErrorOrNil())
		}
		return one != two, nil
	}

	if one, errOne, ok := futOne.TryGet(); ok {
		if two, errTwo, ok := futTwo.TryGet(); ok {
			affected, err := combine(one, two, errOne, errTwo)
			if err != nil {
				return future.Failed[bool](err)
			}
			return future.Ready(affected)
		}
	}
	return future.Go(func() (bool, error) {
		ctx := context.Background()
		one, errOne := futOne.Get(ctx)
		two, errTwo := futTwo.Get(ctx)
		return combine(one, two, errOne, errTwo)
	})
}

func (s *Store) ParseRootID(printed string) (store.RootID, error) {
	innerPrinted, filterID, err := SplitRootID(store.RootID(printed))
	if err != nil {
		return "", fmt.Errorf("parse root id: %w", err)
	}
	parsed, err := s.inner.ParseRootID(string(innerPrinted))
	if err != nil {
		return "", err
	}
	return NewRootID(parsed, filterID), nil
}

func (s *Store) RenderRootID(rootID store.RootID) (string, error) {
	inner, filterID, err := SplitRootID(rootID)
	if err != nil {
		return "", fmt.Errorf("render root id: %w", err)
	}
	return string(NewRootID(inner, filterID)), nil
}

func (s *Store) ParseObjectID(printed string) (store.ObjectID, error) {
	return s.inner.ParseObjectID(printed)
}

func (s *Store) RenderObjectID(id store.ObjectID) (string, error) {
	return s.inner.RenderObjectID(id)
}

// ImportManifestForRoot forwards the manifest to the inner store. The
// manifest itself is unfiltered, so the filter id embedded in rootID is
// stripped and silently discarded; a caller that embeds a filter sees no
// error.
func (s *Store) ImportManifestForRoot(ctx context.Context, rootID store.RootID, manifest store.Hash20) error {
	innerRoot, _, err := SplitRootID(rootID)
	if err != nil {
		return fmt.Errorf("import manifest: %w", err)
	}
	return s.inner.ImportManifestForRoot(ctx, innerRoot, manifest)
}

func (s *Store) RepoName() (string, bool) {
	return s.inner.RepoName()
}

func (s *Store) StartRecordingFetch() {
	s.inner.StartRecordingFetch()
}

func (s *Store) StopRecordingFetch() []string {
	return s.inner.StopRecordingFetch()
}

func (s *Store) PeriodicManagementTask() {
	s.inner.PeriodicManagementTask()
}
