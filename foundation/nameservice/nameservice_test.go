package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/provenance/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	address  = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

func Test_Lookup(t *testing.T) {
	t.Log("Given the need to load a folder of authority keys.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the folder holds one key.", testID)
		{
			root := t.TempDir()

			pk, err := crypto.HexToECDSA(pkHexKey)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to parse the key: %v", failed, testID, err)
			}

			if err := crypto.SaveECDSA(filepath.Join(root, "node.ecdsa"), pk); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to save the key: %v", failed, testID, err)
			}

			if err := os.WriteFile(filepath.Join(root, "README"), []byte("ignored"), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write a non key file: %v", failed, testID, err)
			}

			ns, err := nameservice.New(root)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the folder: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the folder.", success, testID)

			if !ns.Exists(address) || ns.Lookup(address) != "node" {
				t.Fatalf("\t%s\tTest %d:\tShould find the address under the name node: %v", failed, testID, ns.Copy())
			}
			t.Logf("\t%s\tTest %d:\tShould find the address under the name node.", success, testID)

			if len(ns.Copy()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould only load .ecdsa files.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould only load .ecdsa files.", success, testID)

			unknown := "0x0000000000000000000000000000000000000001"
			if ns.Exists(unknown) || ns.Lookup(unknown) != unknown {
				t.Fatalf("\t%s\tTest %d:\tShould return the address for an unknown address.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould return the address for an unknown address.", success, testID)
		}
	}
}
