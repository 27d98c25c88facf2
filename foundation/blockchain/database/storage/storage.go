// Package storage handles all the lower level support for reading and writing
// blocks to disk.
package storage

import (
	"fmt"

	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"github.com/ardanlabs/provenance/foundation/blockchain/database/storage/memory"
)

// Set of storage implementations that can be opened by name.
const (
	KindFile   = "file"
	KindDisk   = "disk"
	KindMemory = "memory"
)

// Open constructs the serializer for the specified kind of storage. For file
// storage the path is the blocks file, for disk storage it is the directory
// holding one file per block. Memory storage ignores the path.
func Open(kind string, dbPath string) (database.Serializer, error) {
	switch kind {
	case KindFile:
		return NewFile(dbPath)
	case KindDisk:
		return NewDisk(dbPath)
	case KindMemory:
		return memory.New(), nil
	}

	return nil, fmt.Errorf("storage %q does not exist", kind)
}
