package coord

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateTaskID creates a globally unique task ID in the format:
//
//	task_{unix_nano}_{12_hex_chars}
//
// The 12 hex characters are derived from 6 cryptographically random bytes,
// giving 48 bits of randomness to avoid collisions at the same nanosecond,
// so independent agent processes can mint IDs without a central allocator.
// If crypto/rand fails, the ID omits the random suffix and relies on the
// nanosecond timestamp alone (acceptable for CLI-scale usage).
func GenerateTaskID() string {
	timestamp := time.Now().UnixNano()

	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("task_%d", timestamp)
	}

	return fmt.Sprintf("task_%d_%s", timestamp, hex.EncodeToString(b[:]))
}
