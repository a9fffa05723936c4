package filtered

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/treeverse/viewstore/pkg/store"
)

var ErrMalformedRootID = errors.New("malformed filtered root id")

// NewRootID encodes an inner root id and a filter id into a single root id:
//
//	uvarint(len(inner)) ∥ inner ∥ filter-id
//
// The filter id is the unbounded suffix and may be empty; the length prefix
// on the inner id keeps the empty case unambiguous.
func NewRootID(inner store.RootID, filterID string) store.RootID {
	buf := make([]byte, 0, binary.MaxVarintLen64+len(inner)+len(filterID))
	buf = binary.AppendUvarint(buf, uint64(len(inner)))
	buf = append(buf, inner...)
	buf = append(buf, filterID...)
	return store.RootID(buf)
}

// SplitRootID decodes a root id produced by NewRootID back into the inner
// root id and the filter id.
func SplitRootID(rootID store.RootID) (store.RootID, string, error) {
	length, n := binary.Uvarint([]byte(rootID))
	if n <= 0 {
		return "", "", fmt.Errorf("bad length varint in %q: %w", string(rootID), ErrMalformedRootID)
	}
	rest := string(rootID[n:])
	if length > uint64(len(rest)) {
		return "", "", fmt.Errorf("declared inner length %d exceeds %d remaining bytes: %w",
			length, len(rest), ErrMalformedRootID)
	}
	return store.RootID(rest[:length]), rest[length:], nil
}
