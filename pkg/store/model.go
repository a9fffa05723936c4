package store

import (
	"bytes"
	"encoding/hex"
	"sort"
	"strings"
)

// ObjectID identifies a single object (blob or tree) in a backing store.
// The byte contents are opaque to callers: each store layer defines its own
// encoding and only ids produced by that layer may be passed back into it.
type ObjectID []byte

func (id ObjectID) String() string {
	return hex.EncodeToString(id)
}

func (id ObjectID) Equal(other ObjectID) bool {
	return bytes.Equal(id, other)
}

// Clone returns a copy of the id that does not share backing memory.
func (id ObjectID) Clone() ObjectID {
	if id == nil {
		return nil
	}
	return ObjectID(bytes.Clone(id))
}

// RootID identifies a root (commit-level) snapshot in a backing store.
// Like ObjectID it is opaque, but it also appears at the system boundary in
// printed form via ParseRootID/RenderRootID.
type RootID string

// Hash20 is a 20-byte manifest hash, as produced by the source control
// system underneath the backing store.
type Hash20 [20]byte

func (h Hash20) String() string {
	return hex.EncodeToString(h[:])
}

// ObjectKind is the type of a tree entry.
type ObjectKind uint8

const (
	KindBlob ObjectKind = iota
	KindExecutable
	KindSymlink
	KindTree
)

func (k ObjectKind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindExecutable:
		return "executable"
	case KindSymlink:
		return "symlink"
	case KindTree:
		return "tree"
	default:
		return "unknown"
	}
}

// CaseSensitivity tags a tree with the name-lookup behaviour of the
// filesystem it was produced for.
type CaseSensitivity uint8

const (
	CaseSensitive CaseSensitivity = iota
	CaseInsensitive
)

// TreeEntry is a single child of a tree: a basename bound to an object id
// and its kind.
type TreeEntry struct {
	Name string
	ID   ObjectID
	Kind ObjectKind
}

// Tree is an immutable mapping from basename to TreeEntry. Entries are kept
// sorted byte-wise by name; lookup honours the tree's case sensitivity.
type Tree struct {
	id              ObjectID
	caseSensitivity CaseSensitivity
	entries         []TreeEntry
}

// NewTree builds a tree from the given entries. The entries slice is copied
// and sorted by name.
func NewTree(id ObjectID, cs CaseSensitivity, entries []TreeEntry) *Tree {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return &Tree{
		id:              id,
		caseSensitivity: cs,
		entries:         sorted,
	}
}

func (t *Tree) ID() ObjectID {
	return t.id
}

func (t *Tree) CaseSensitivity() CaseSensitivity {
	return t.caseSensitivity
}

// Entries returns the tree's entries in name order. The returned slice is
// owned by the tree and must not be modified.
func (t *Tree) Entries() []TreeEntry {
	return t.entries
}

func (t *Tree) Len() int {
	return len(t.entries)
}

// Find looks up an entry by basename. On a case-insensitive tree the lookup
// folds case; ordering is unaffected.
func (t *Tree) Find(name string) (TreeEntry, bool) {
	if t.caseSensitivity == CaseSensitive {
		i := sort.Search(len(t.entries), func(i int) bool {
			return t.entries[i].Name >= name
		})
		if i < len(t.entries) && t.entries[i].Name == name {
			return t.entries[i], true
		}
		return TreeEntry{}, false
	}
	for _, entry := range t.entries {
		if strings.EqualFold(entry.Name, name) {
			return entry, true
		}
	}
	return TreeEntry{}, false
}

// JoinPath joins a tree path with an entry basename. Paths are relative,
// forward-slash separated; the empty string is the root.
func JoinPath(treePath, name string) string {
	if treePath == "" {
		return name
	}
	return treePath + "/" + name
}

// Basename returns the last component of a relative path.
func Basename(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
