package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/app"
	"github.com/dotcommander/relay/internal/board"
	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/output"
	"github.com/dotcommander/relay/internal/registry"
	"github.com/dotcommander/relay/internal/store"
)

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the JSON error response is the output.
	return "error already printed"
}

// resolveBackend picks the coordination backend.
// Precedence: --backend flag, then RELAY_BACKEND, then sqlite.
func resolveBackend(cmd *cobra.Command) (string, error) {
	backend := ""
	if v, err := cmd.Flags().GetString("backend"); err == nil && v != "" {
		backend = v
	}
	if backend == "" {
		backend = os.Getenv("RELAY_BACKEND")
	}
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "sqlite", "board":
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected sqlite or board)", backend)
	}
}

func openStore(cmd *cobra.Command) (coord.Store, func(), error) {
	backend, err := resolveBackend(cmd)
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case "board":
		dir, err := app.GetRegistryDir()
		if err != nil {
			return nil, nil, err
		}
		st, err := board.Open(dir, app.EffectiveLockTimeout())
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	default:
		st, err := store.Open()
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	}
}

func withStore(cmd *cobra.Command, fn func(st coord.Store) error) error {
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return cmdErr(err)
	}
	defer closeStore()

	if err := fn(st); err != nil {
		return cmdErr(err)
	}
	return nil
}

func openRegistry() (*registry.Registry, error) {
	dir, err := app.GetRegistryDir()
	if err != nil {
		return nil, err
	}
	return registry.Open(dir, app.EffectiveLockTimeout())
}

func withRegistry(fn func(reg *registry.Registry) error) error {
	reg, err := openRegistry()
	if err != nil {
		return cmdErr(err)
	}
	if err := fn(reg); err != nil {
		return cmdErr(err)
	}
	return nil
}

func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	attrs := []any{"error", err.Error()}
	type slogAttrError interface {
		SlogAttrs() []any
	}
	var detailed slogAttrError
	if errors.As(err, &detailed) {
		attrs = append(attrs, detailed.SlogAttrs()...)
	}
	slog.Error("command error", attrs...)
	_ = output.PrintError(err)
	return printedError{err: err}
}
