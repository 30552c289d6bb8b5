// Package keylet derives the opaque 256-bit identifiers of registry objects.
package keylet

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/LeJamon/gorebase/internal/crypto"
)

// Space identifiers for keylet generation
const (
	spaceRebase   uint16 = 'R' // Rebase ledger
	spaceShare    uint16 = 'H' // Share handle
	spaceMetadata uint16 = 'M' // Fungible asset metadata
)

// ID is the key of an object in the registry.
type ID [32]byte

func (id ID) String() string {
	return fmt.Sprintf("%X", id[:])
}

// IsZero reports whether the ID is all zeros.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Parse decodes a 64 character hex ID.
func Parse(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid keylet %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid keylet %q: want %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) ID {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Rebase returns the ID of the sequence-th rebase created by owner.
func Rebase(owner crypto.AccountID, sequence uint64) ID {
	return indexHash(spaceRebase, owner[:], uint64Bytes(sequence))
}

// Share returns the ID of the sequence-th share handle drawn from a rebase.
func Share(rebase ID, sequence uint64) ID {
	return indexHash(spaceShare, rebase[:], uint64Bytes(sequence))
}

// Metadata returns the ID of a fungible asset's metadata object.
func Metadata(name string) ID {
	return indexHash(spaceMetadata, []byte(name))
}
