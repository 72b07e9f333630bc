// Package ids defines the two disjoint 32-bit identifier spaces used
// throughout stride: instance identifiers (IID) and instance-body
// identifiers (DID). They are distinct Go types so the compiler rejects
// accidental interconversion between the two spaces.
package ids

import (
	"encoding/binary"
	"strconv"
)

// IID identifies a benchmark instance (a row in the metadata store).
type IID uint32

// DID identifies the raw body of an instance (a blob in the instance-body
// store). Multiple IIDs may reference the same DID.
type DID uint32

func (i IID) String() string { return strconv.FormatUint(uint64(i), 10) }
func (d DID) String() string { return strconv.FormatUint(uint64(d), 10) }

// ParseIID parses a decimal string into an IID.
func ParseIID(s string) (IID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return IID(v), nil
}

// ParseDID parses a decimal string into a DID.
func ParseDID(s string) (DID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return DID(v), nil
}

// BytesKey renders a DID as a 4-byte big-endian key, the form used as the
// bbolt key in the instance-body store so that keys sort numerically.
func (d DID) BytesKey() []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(d))
	return buf[:]
}
