// Package main is the entry point for the dbfcat binary.
package main

import (
	"os"

	"github.com/Ulysses-Xu/dbfreader/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
