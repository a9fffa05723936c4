// Package local provides a pebble-backed content-addressed backing store.
// Objects are addressed by the SHA-256 of their encoded form; tree records
// are stored as canonical CBOR so equal trees always produce equal ids.
package local

import (
	"context"
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/treeverse/viewstore/pkg/cache"
	"github.com/treeverse/viewstore/pkg/logging"
	"github.com/treeverse/viewstore/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Key prefixes within the pebble keyspace.
const (
	blobKeyPrefix     = "b/"
	treeKeyPrefix     = "t/"
	rootKeyPrefix     = "r/"
	manifestKeyPrefix = "m/"
)

const (
	blobCacheSize       = 10_000
	blobCacheExpiry     = 5 * time.Minute
	blobCacheJitter     = 30 * time.Second
	prefetchConcurrency = 8
)

var encMode cbor.EncMode

//nolint:gochecknoinits
func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

type treeEntryRecord struct {
	Name string `cbor:"n"`
	ID   []byte `cbor:"i"`
	Kind uint8  `cbor:"k"`
}

type treeRecord struct {
	CaseSensitivity uint8             `cbor:"cs"`
	Entries         []treeEntryRecord `cbor:"e"`
}

type Store struct {
	db        *pebble.DB
	repoName  string
	blobCache cache.Cache
	log       logging.Logger

	mu        sync.Mutex
	recording bool
	sessionID string
	recorded  []string
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

func WithRepoName(name string) Option {
	return func(s *Store) {
		s.repoName = name
	}
}

func WithLogger(log logging.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Open opens (or creates) a store at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	s := &Store{
		db:        db,
		blobCache: cache.NewCache(blobCacheSize, blobCacheExpiry, cache.NewJitterFn(blobCacheJitter)),
		log:       logging.Default().WithField(logging.StoreTypeFieldKey, "local"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func blobKey(id store.ObjectID) []byte {
	return []byte(blobKeyPrefix + hex.EncodeToString(id))
}

func treeKey(id store.ObjectID) []byte {
	return []byte(treeKeyPrefix + hex.EncodeToString(id))
}

// PutBlob stores blob content and returns its content address.
func (s *Store) PutBlob(data []byte) (store.ObjectID, error) {
	sum := sha256.Sum256(data)
	id := store.ObjectID(sum[:])
	if err := s.db.Set(blobKey(id), data, pebble.Sync); err != nil {
		return nil, fmt.Errorf("put blob: %w", err)
	}
	return id, nil
}

// PutTree stores a tree and returns its content address: the SHA-256 of the
// canonical CBOR encoding of its record.
func (s *Store) PutTree(cs store.CaseSensitivity, entries []store.TreeEntry) (store.ObjectID, error) {
	tree := store.NewTree(nil, cs, entries)
	record := treeRecord{
		CaseSensitivity: uint8(cs),
		Entries:         make([]treeEntryRecord, 0, tree.Len()),
	}
	for _, entry := range tree.Entries() {
		record.Entries = append(record.Entries, treeEntryRecord{
			Name: entry.Name,
			ID:   entry.ID,
			Kind: uint8(entry.Kind),
		})
	}
	encoded, err := encMode.Marshal(&record)
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	sum := sha256.Sum256(encoded)
	id := store.ObjectID(sum[:])
	if err := s.db.Set(treeKey(id), encoded, pebble.Sync); err != nil {
		return nil, fmt.Errorf("put tree: %w", err)
	}
	return id, nil
}

// SetRoot binds a root id to a tree id.
func (s *Store) SetRoot(rootID store.RootID, treeID store.ObjectID) error {
	if err := s.db.Set([]byte(rootKeyPrefix+string(rootID)), treeID, pebble.Sync); err != nil {
		return fmt.Errorf("set root %s: %w", rootID, err)
	}
	return nil
}

// ImportDir walks a directory bottom-up into the store and returns the id
// of the resulting root tree. Symlink targets are stored as blob content;
// the executable bit selects the entry kind.
func (s *Store) ImportDir(ctx context.Context, dir string) (store.ObjectID, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	entries := make([]store.TreeEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := de.Name()
		full := filepath.Join(dir, name)
		var (
			id   store.ObjectID
			kind store.ObjectKind
		)
		switch {
		case de.IsDir():
			id, err = s.ImportDir(ctx, full)
			kind = store.KindTree
		case de.Type()&os.ModeSymlink != 0:
			var target string
			target, err = os.Readlink(full)
			if err == nil {
				id, err = s.PutBlob([]byte(target))
			}
			kind = store.KindSymlink
		default:
			var data []byte
			data, err = os.ReadFile(full)
			if err == nil {
				id, err = s.PutBlob(data)
			}
			kind = store.KindBlob
			if info, infoErr := de.Info(); infoErr == nil && info.Mode()&0o111 != 0 {
				kind = store.KindExecutable
			}
		}
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", full, err)
		}
		entries = append(entries, store.TreeEntry{Name: name, ID: id, Kind: kind})
	}
	return s.PutTree(store.CaseSensitive, entries)
}

func (s *Store) get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer.Close() }()
	return append([]byte(nil), value...), nil
}

func (s *Store) record(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		s.recorded = append(s.recorded, key)
	}
}

func (s *Store) loadTree(id store.ObjectID) (*store.Tree, error) {
	encoded, err := s.get(treeKey(id))
	if err != nil {
		return nil, err
	}
	var record treeRecord
	if err := cbor.Unmarshal(encoded, &record); err != nil {
		return nil, fmt.Errorf("decode tree %s: %w", id, err)
	}
	entries := make([]store.TreeEntry, 0, len(record.Entries))
	for _, e := range record.Entries {
		entries = append(entries, store.TreeEntry{
			Name: e.Name,
			ID:   store.ObjectID(e.ID),
			Kind: store.ObjectKind(e.Kind),
		})
	}
	return store.NewTree(id.Clone(), store.CaseSensitivity(record.CaseSensitivity), entries), nil
}

func (s *Store) GetRootTree(_ context.Context, rootID store.RootID) (*store.RootTreeResult, error) {
	s.record("root:" + string(rootID))
	treeID, err := s.get([]byte(rootKeyPrefix + string(rootID)))
	if err != nil {
		return nil, fmt.Errorf("root %s: %w", rootID, err)
	}
	tree, err := s.loadTree(store.ObjectID(treeID))
	if err != nil {
		return nil, err
	}
	return &store.RootTreeResult{Tree: tree, TreeID: store.ObjectID(treeID)}, nil
}

func (s *Store) GetTree(_ context.Context, id store.ObjectID) (*store.TreeResult, error) {
	s.record("tree:" + id.String())
	tree, err := s.loadTree(id)
	if err != nil {
		return nil, err
	}
	return &store.TreeResult{Tree: tree, Origin: store.OriginDisk}, nil
}

func (s *Store) readBlob(id store.ObjectID) ([]byte, error) {
	return s.get(blobKey(id))
}

func (s *Store) GetBlob(_ context.Context, id store.ObjectID) (*store.Blob, error) {
	s.record("blob:" + id.String())
	v, err := s.blobCache.GetOrSet(string(id), func() (interface{}, error) {
		return s.readBlob(id)
	})
	if err != nil {
		return nil, err
	}
	return &store.Blob{ID: id.Clone(), Data: v.([]byte)}, nil
}

func (s *Store) GetBlobMetadata(ctx context.Context, id store.ObjectID) (*store.BlobMetadata, error) {
	blob, err := s.GetBlob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &store.BlobMetadata{
		Size:        int64(len(blob.Data)),
		ContentHash: store.Hash20(sha1.Sum(blob.Data)), //nolint:gosec
	}, nil
}

func (s *Store) GetTreeEntryForObjectID(_ context.Context, id store.ObjectID, kind store.ObjectKind) (*store.TreeEntry, error) {
	return &store.TreeEntry{ID: id.Clone(), Kind: kind}, nil
}

// PrefetchBlobs warms the blob cache. Missing blobs are not an error:
// prefetch is a hint.
func (s *Store) PrefetchBlobs(ctx context.Context, ids []store.ObjectID) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := s.blobCache.GetOrSet(string(id), func() (interface{}, error) {
				return s.readBlob(id)
			})
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// CompareObjectsByID is byte equality: ids are content addresses.
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
	id, err := hex.DecodeString(printed)
	if err != nil {
		return nil, fmt.Errorf("parse object id %q: %w", printed, err)
	}
	return id, nil
}

func (s *Store) RenderObjectID(id store.ObjectID) (string, error) {
	return hex.EncodeToString(id), nil
}

func (s *Store) ImportManifestForRoot(_ context.Context, rootID store.RootID, manifest store.Hash20) error {
	if err := s.db.Set([]byte(manifestKeyPrefix+string(rootID)), manifest[:], pebble.Sync); err != nil {
		return fmt.Errorf("import manifest for %s: %w", rootID, err)
	}
	return nil
}

func (s *Store) RepoName() (string, bool) {
	return s.repoName, s.repoName != ""
}

func (s *Store) StartRecordingFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = true
	s.sessionID = uuid.NewString()
	s.recorded = nil
	s.log.WithField(logging.SessionIDFieldKey, s.sessionID).Debug("started recording fetches")
}

func (s *Store) StopRecordingFetch() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	recorded := s.recorded
	s.recorded = nil
	s.log.WithFields(logging.Fields{
		logging.SessionIDFieldKey: s.sessionID,
		"recorded":                len(recorded),
	}).Debug("stopped recording fetches")
	return recorded
}

// PeriodicManagementTask surfaces pebble health counters into the log.
func (s *Store) PeriodicManagementTask() {
	if !s.log.IsDebugging() {
		return
	}
	metrics := s.db.Metrics()
	s.log.WithFields(logging.Fields{
		"disk_usage":  metrics.DiskSpaceUsage(),
		"read_amp":    metrics.ReadAmp(),
		"num_flushes": metrics.Flush.Count,
	}).Debug("pebble metrics")
}
