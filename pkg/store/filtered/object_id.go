package filtered

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/treeverse/viewstore/pkg/store"
)

var (
	ErrMalformedObjectID = errors.New("malformed filtered object id")
	ErrWrongVariant      = errors.New("filtered object id is not a tree id")
	ErrUnknownObjectType = errors.New("unknown filtered object type")
)

// ObjectType distinguishes the variants of a filtered object id.
type ObjectType byte

const (
	// ObjectTypeBlob ids carry only the inner id. Blobs are never
	// re-traversed, so no filter has to follow them.
	ObjectTypeBlob ObjectType = 0x01
	// ObjectTypeTree ids carry the path and filter id the tree was
	// materialized under, so the tree can be re-filtered on later access.
	ObjectTypeTree ObjectType = 0x02
)

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeBlob:
		return "blob"
	case ObjectTypeTree:
		return "tree"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// ObjectID is a parsed composite object id as produced by the filtered
// store. The wire layout is a single tag byte followed by variant fields:
//
//	blob: 0x01 ∥ inner-id
//	tree: 0x02 ∥ uvarint(len(path)) ∥ path ∥ uvarint(len(filter-id)) ∥ filter-id ∥ inner-id
//
// uvarint is unsigned LEB128 (7 bits per byte, MSB continuation), at most 10
// bytes. The trailing inner id has no length prefix; the enclosing record
// bounds it. Encoding is deterministic: equal components produce equal
// bytes.
type ObjectID struct {
	typ      ObjectType
	path     string
	filterID string
	inner    store.ObjectID
}

// NewBlobID builds the composite id of a blob.
func NewBlobID(inner store.ObjectID) ObjectID {
	return ObjectID{typ: ObjectTypeBlob, inner: inner.Clone()}
}

// NewTreeID builds the composite id of a tree materialized at path under
// filterID.
func NewTreeID(path string, filterID string, inner store.ObjectID) ObjectID {
	return ObjectID{typ: ObjectTypeTree, path: path, filterID: filterID, inner: inner.Clone()}
}

// DecodeObjectID parses the wire form of a composite id. A truncated record
// fails with ErrMalformedObjectID; an unrecognized tag fails with
// ErrUnknownObjectType.
func DecodeObjectID(raw store.ObjectID) (ObjectID, error) {
	if len(raw) == 0 {
		return ObjectID{}, fmt.Errorf("empty id: %w", ErrMalformedObjectID)
	}
	typ := ObjectType(raw[0])
	rest := []byte(raw[1:])
	switch typ {
	case ObjectTypeBlob:
		return ObjectID{typ: typ, inner: store.ObjectID(rest).Clone()}, nil
	case ObjectTypeTree:
		path, rest, err := readLengthPrefixed(rest)
		if err != nil {
			return ObjectID{}, fmt.Errorf("tree id path: %w", err)
		}
		filterID, rest, err := readLengthPrefixed(rest)
		if err != nil {
			return ObjectID{}, fmt.Errorf("tree id filter: %w", err)
		}
		return ObjectID{
			typ:      typ,
			path:     path,
			filterID: filterID,
			inner:    store.ObjectID(rest).Clone(),
		}, nil
	default:
		return ObjectID{}, fmt.Errorf("tag 0x%02x: %w", raw[0], ErrUnknownObjectType)
	}
}

// Encode renders the id into its deterministic wire form.
func (id ObjectID) Encode() store.ObjectID {
	switch id.typ {
	case ObjectTypeBlob:
		buf := make([]byte, 0, 1+len(id.inner))
		buf = append(buf, byte(id.typ))
		return append(buf, id.inner...)
	case ObjectTypeTree:
		buf := make([]byte, 0, 1+2*binary.MaxVarintLen64+len(id.path)+len(id.filterID)+len(id.inner))
		buf = append(buf, byte(id.typ))
		buf = appendLengthPrefixed(buf, id.path)
		buf = appendLengthPrefixed(buf, id.filterID)
		return append(buf, id.inner...)
	default:
		// Only the two constructors above produce ObjectID values.
		panic(fmt.Sprintf("encode filtered object id with type %s", id.typ))
	}
}

func (id ObjectID) Type() ObjectType {
	return id.typ
}

// Path returns the path a tree id was materialized at. Fails on blob ids:
// blobs carry no path.
func (id ObjectID) Path() (string, error) {
	if id.typ != ObjectTypeTree {
		return "", fmt.Errorf("path of %s id: %w", id.typ, ErrWrongVariant)
	}
	return id.path, nil
}

// FilterID returns the filter a tree id was materialized under. Fails on
// blob ids: blobs carry no filter.
func (id ObjectID) FilterID() (string, error) {
	if id.typ != ObjectTypeTree {
		return "", fmt.Errorf("filter of %s id: %w", id.typ, ErrWrongVariant)
	}
	return id.filterID, nil
}

// Inner returns the id the backing store underneath produced, byte-exact.
func (id ObjectID) Inner() store.ObjectID {
	return id.inner
}

func (id ObjectID) Equal(other ObjectID) bool {
	return id.typ == other.typ &&
		id.path == other.path &&
		id.filterID == other.filterID &&
		id.inner.Equal(other.inner)
}

func appendLengthPrefixed(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readLengthPrefixed(buf []byte) (string, []byte, error) {
	length, n := binary.Uvarint(buf)
	if n <= 0 {
		return "", nil, fmt.Errorf("bad length varint: %w", ErrMalformedObjectID)
	}
	rest := buf[n:]
	if length > uint64(len(rest)) {
		return "", nil, fmt.Errorf("declared length %d exceeds %d remaining bytes: %w",
			length, len(rest), ErrMalformedObjectID)
	}
	return string(rest[:length]), rest[length:], nil
}
