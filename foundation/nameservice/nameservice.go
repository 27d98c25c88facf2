// Package nameservice reads a folder of private keys and creates a name
// service lookup for the addresses allowed to seal blocks.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/provenance/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	addresses map[string]string
}

// New constructs a name service with the addresses of every .ecdsa key
// found under the root folder. The name is the key file name.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading key %s: %w", fileName, err)
		}

		address := signature.PublicKeyToAddress(privateKey.PublicKey)
		ns.addresses[address] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Exists reports whether the address belongs to the name service.
func (ns *NameService) Exists(address string) bool {
	_, exists := ns.addresses[address]
	return exists
}

// Lookup returns the name for the specified address.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.addresses[address]
	if !exists {
		return address
	}
	return name
}

// Copy returns a copy of the map of names and addresses.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.addresses))
	for address, name := range ns.addresses {
		cpy[address] = name
	}
	return cpy
}
