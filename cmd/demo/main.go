// Command demo runs a colorized, self-contained demonstration of relay's
// coordination surface. It shells out to the relay binary against throwaway
// state, so it is safe to run anywhere.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dotcommander/relay/internal/demo"
)

func main() {
	var binPath string
	var continueOnError bool
	var fast bool
	flag.StringVar(&binPath, "bin", "", "Path to relay binary (default: builds from source)")
	flag.BoolVar(&continueOnError, "continue-on-error", false, "Continue after step failures")
	flag.BoolVar(&fast, "fast", false, "Skip 2s pause after each successful step")
	flag.Parse()

	if binPath == "" {
		tmpDir, err := os.MkdirTemp("", "relay-demo-bin-*")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create temp dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()

		binPath = filepath.Join(tmpDir, "relay")
		fmt.Fprintln(os.Stderr, "Building relay binary...")
		buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/relay")
		buildCmd.Stdout = os.Stderr
		buildCmd.Stderr = os.Stderr
		if err := buildCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build relay: %v\n", err)
			os.Exit(1)
		}
	}

	stateDir, err := os.MkdirTemp("", "relay-demo-state-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create state dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(stateDir) }()
	dbPath := filepath.Join(stateDir, "relay-demo.db")
	registryDir := filepath.Join(stateDir, "registry")

	r := demo.NewRunner(binPath, dbPath, registryDir, "agent-alpha", os.Stdout, fast)
	passed, failed := r.RunAll(continueOnError)

	_, _ = fmt.Fprintf(os.Stdout, "\n%d passed, %d failed, %d total\n", passed, failed, passed+failed)
	if failed > 0 {
		os.Exit(1)
	}
}
