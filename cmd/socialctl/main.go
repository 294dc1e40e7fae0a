// Command socialctl runs schema migrations and demo data seeding.
package main

import (
	"os"

	"socialfeed/cmd/socialctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
