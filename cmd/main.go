// inputmacro - global mouse and keyboard recorder
// Records input with its timing and replays it at any speed.
package main

import (
	"os"

	"inputmacro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
