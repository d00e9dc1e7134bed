package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/dotcommander/relay/internal/models"
)

// recoverableError mirrors models.RecoverableError so Error can enrich
// responses without the caller wrapping anything.
type recoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

var _ recoverableError = (models.RecoverableError)(nil)

// Response represents a standard JSON response
type Response struct {
	SchemaVersion   string            `json:"schema_version"`
	Success         bool              `json:"success"`
	Data            interface{}       `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty"`
	ErrorContext    map[string]string `json:"error_context,omitempty"`
	SuggestedAction string            `json:"suggested_action,omitempty"`
}

// Config controls where and how JSON output is written.
type Config struct {
	Writer io.Writer
	Pretty bool
}

// DefaultConfig writes compact JSON to stdout. Pretty printing is enabled
// via env var: RELAY_PRETTY_JSON=1 (or "true").
func DefaultConfig() Config {
	pretty := os.Getenv("RELAY_PRETTY_JSON") == "1" || os.Getenv("RELAY_PRETTY_JSON") == "true"
	return Config{Writer: os.Stdout, Pretty: pretty}
}

// Success wraps a successful response with data
func Success(data interface{}) Response {
	return Response{
		SchemaVersion: "v1",
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response. Errors implementing
// models.RecoverableError get their code, context, and suggested action
// included so agents can self-recover.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: "v1",
		Success:       false,
		Error:         err.Error(),
	}
	var re recoverableError
	if errors.As(err, &re) {
		resp.ErrorCode = re.ErrorCode()
		resp.ErrorContext = re.Context()
		resp.SuggestedAction = re.SuggestedAction()
	}
	return resp
}

// PrintWith writes a value as JSON using the given config.
func PrintWith(cfg Config, v interface{}) error {
	enc := json.NewEncoder(cfg.Writer)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Print prints a value as JSON to stdout.
// Default is compact JSON to minimize token/output size for agent consumption.
func Print(v interface{}) error {
	return PrintWith(DefaultConfig(), v)
}

// PrintSuccess prints a success response
func PrintSuccess(data interface{}) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}

// Keep output package focused: commands should handle human-readable formatting.
