// Command tzctl resolves time zones from the command line and maintains the
// cache database used by the server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
