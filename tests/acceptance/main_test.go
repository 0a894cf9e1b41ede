package acceptance

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// binaryPath is where `go build -o bin/agentdefs ./cmd/agentdefs` puts the CLI
var binaryPath = filepath.Join("..", "..", "bin", "agentdefs")

// TestMain skips the suite when the binary has not been built
func TestMain(m *testing.M) {
	if _, err := os.Stat(binaryPath); err != nil {
		fmt.Fprintf(os.Stderr, "skipping acceptance tests: %s not found\n", binaryPath)
		os.Exit(0)
	}
	os.Exit(m.Run())
}
