package store

import "github.com/dotcommander/relay/internal/coord"

// GenerateTaskID mints a task ID; see coord.GenerateTaskID for the format.
func GenerateTaskID() string {
	return coord.GenerateTaskID()
}
