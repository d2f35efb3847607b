// Command nura is the NURA command-line client: log meals, check the day's
// flow score, run meal reminders and serve the MCP tools.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
