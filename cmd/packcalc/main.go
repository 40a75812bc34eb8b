// Command packcalc parses vendor pack sizes, prices packs and converts units
// from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
