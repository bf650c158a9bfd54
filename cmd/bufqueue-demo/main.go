// Command bufqueue-demo runs a BufferQueue producer/consumer pair with
// config loading, tracing, metrics, and a debug API, as a runnable
// demonstration and manual-test harness for the bufferqueue package.
package main

import (
	"fmt"
	"os"

	"github.com/vellumgfx/bufferqueue/cmd/bufqueue-demo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
