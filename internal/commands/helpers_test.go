package commands

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureCommandStdout redirects os.Stdout around fn and returns what was written.
func captureCommandStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}
