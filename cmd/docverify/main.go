// Command docverify is the command line client of the document verification service.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/docverify/internal/adapters/driving/cli"
)

func main() {
	cli.SetWiring(wire)
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
