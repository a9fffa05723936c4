package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a root, tree or blob does not exist in
	// the store.
	ErrNotFound = errors.New("object not found")

	// ErrOperationNotSupported is returned by stores that do not implement
	// an optional operation.
	ErrOperationNotSupported = errors.New("operation not supported")
)

// ObjectComparison is the answer of CompareObjectsByID: whether two ids are
// known to address identical content, known to address different content, or
// whether the store cannot tell without fetching.
type ObjectComparison uint8

const (
	ComparisonUnknown ObjectComparison = iota
	ComparisonIdentical
	ComparisonDifferent
)

func (c ObjectComparison) String() string {
	switch c {
	case ComparisonIdentical:
		return "identical"
	case ComparisonDifferent:
		return "different"
	case ComparisonUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// FetchOrigin reports where a fetched object was served from.
type FetchOrigin uint8

const (
	OriginUnknown FetchOrigin = iota
	OriginMemory
	OriginDisk
	OriginNetwork
)

func (o FetchOrigin) String() string {
	switch o {
	case OriginMemory:
		return "memory"
	case OriginDisk:
		return "disk"
	case OriginNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Blob is opaque byte content addressed by id.
type Blob struct {
	ID   ObjectID
	Data []byte
}

// BlobMetadata describes a blob without its content.
type BlobMetadata struct {
	Size        int64
	ContentHash Hash20
}

// RootTreeResult is returned by GetRootTree.
type RootTreeResult struct {
	Tree   *Tree
	TreeID ObjectID
}

// TreeResult is returned by GetTree.
type TreeResult struct {
	Tree   *Tree
	Origin FetchOrigin
}

// Store is the backing-store contract: a content-addressed provider of
// roots, trees and blobs. Implementations must be safe for concurrent
// reads. Any method taking a context may block on IO and honours
// cancellation; CompareObjectsByID never blocks.
type Store interface {
	// GetRootTree resolves a root id to its root tree.
	GetRootTree(ctx context.Context, rootID RootID) (*RootTreeResult, error)

	// GetTree fetches a tree by id.
	GetTree(ctx context.Context, id ObjectID) (*TreeResult, error)

	// GetBlob fetches blob content by id.
	GetBlob(ctx context.Context, id ObjectID) (*Blob, error)

	// GetBlobMetadata fetches blob size and content hash without the
	// content itself.
	GetBlobMetadata(ctx context.Context, id ObjectID) (*BlobMetadata, error)

	// GetTreeEntryForObjectID builds a TreeEntry for a known object id and
	// kind, without fetching the containing tree.
	GetTreeEntryForObjectID(ctx context.Context, id ObjectID, kind ObjectKind) (*TreeEntry, error)

	// PrefetchBlobs hints the store to warm the given blobs. Stores with no
	// prefetch path may treat it as a no-op.
	PrefetchBlobs(ctx context.Context, ids []ObjectID) error

	// CompareObjectsByID reports whether two ids address identical content.
	// It is synchronous and never blocks: when the answer would require a
	// fetch it returns ComparisonUnknown.
	CompareObjectsByID(a, b ObjectID) (ObjectComparison, error)

	// ParseRootID parses a root id from its printed form.
	ParseRootID(printed string) (RootID, error)

	// RenderRootID renders a root id into its printed form.
	RenderRootID(rootID RootID) (string, error)

	// ParseObjectID parses an object id from its printed form.
	ParseObjectID(printed string) (ObjectID, error)

	// RenderObjectID renders an object id into its printed form.
	RenderObjectID(id ObjectID) (string, error)

	// ImportManifestForRoot associates a source-control manifest with a
	// root id.
	ImportManifestForRoot(ctx context.Context, rootID RootID, manifest Hash20) error

	// RepoName returns the repository name this store serves, when known.
	RepoName() (string, bool)

	// StartRecordingFetch begins recording the keys of fetched objects.
	StartRecordingFetch()

	// StopRecordingFetch ends recording and returns the recorded keys.
	StopRecordingFetch() []string

	// PeriodicManagementTask lets the store run background housekeeping.
	// Called by the owner on its own schedule.
	PeriodicManagementTask()
}
