// Package main is the entry point for the schemamerge CLI binary.
package main

import (
	"os"

	"github.com/selvxhini-10/EY-Schema-Merger/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
