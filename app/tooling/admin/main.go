// This program performs administrative tasks for the provenance ledger.
package main

import (
	"github.com/ardanlabs/provenance/app/tooling/admin/cmd"
)

func main() {
	cmd.Execute()
}
