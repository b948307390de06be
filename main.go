// The main package for the lkpg-rs executable.
package main

import (
	"github.com/ViktorIgeland/lkpg-rs/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
