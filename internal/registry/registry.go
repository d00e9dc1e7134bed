// Package registry maintains the global, cross-project directory of known
// projects: one JSON document listing a ProjectCard per project. The file is
// independently recoverable: unparseable content is backed up and the
// registry rebuilt by enumerating project directories on disk, so a corrupt
// registry never takes coordination down with it.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/mutex"
)

// FileName is the registry document inside the registry directory. It is
// also the advisory lock name serializing registry writers.
const FileName = "projects.json"

// ErrProjectNotFound is returned when a project id is not in the registry.
var ErrProjectNotFound = errors.New("project not found in registry")

// ProjectNotFoundError enriches ErrProjectNotFound with structured context.
type ProjectNotFoundError struct {
	ProjectID string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project not found in registry: %s", e.ProjectID)
}
func (e *ProjectNotFoundError) ErrorCode() string { return "PROJECT_NOT_FOUND" }
func (e *ProjectNotFoundError) Context() map[string]string {
	return map[string]string{"project_id": e.ProjectID}
}
func (e *ProjectNotFoundError) SuggestedAction() string {
	return fmt.Sprintf("register the project first: relay project register --id %s", e.ProjectID)
}

func (e *ProjectNotFoundError) SlogAttrs() []any {
	return []any{"project_id", e.ProjectID}
}

func (e *ProjectNotFoundError) Is(target error) bool { return target == ErrProjectNotFound }

// File is the persisted registry document shape.
type File struct {
	Projects []models.ProjectCard `json:"projects"`
}

// Registry manages the projects.json document rooted at one directory. The
// same directory holds the per-project coordination folders that recovery
// enumerates.
type Registry struct {
	dir      string
	locks    *mutex.Service
	searcher Searcher
}

// Option configures a Registry.
type Option func(*Registry)

// WithSearcher attaches a semantic search collaborator. Index failures are
// best-effort (logged, never propagated); Query failures fall back to
// substring matching.
func WithSearcher(s Searcher) Option {
	return func(r *Registry) { r.searcher = s }
}

// Open creates a registry rooted at dir. lockTimeout <= 0 uses the mutex
// service default.
func Open(dir string, lockTimeout time.Duration, opts ...Option) (*Registry, error) {
	if dir == "" {
		return nil, fmt.Errorf("registry directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	r := &Registry{
		dir:   dir,
		locks: mutex.NewService(filepath.Join(dir, ".locks"), lockTimeout),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the registry root directory.
func (r *Registry) Dir() string { return r.dir }

func (r *Registry) filePath() string { return filepath.Join(r.dir, FileName) }

// Ensure loads the registry, auto-recovering when the file is missing,
// empty, structurally invalid, or lists no projects while project folders
// exist on disk. Invalid content is always copied to a timestamped backup
// before being discarded; recovery never loses data silently.
func (r *Registry) Ensure() (*File, error) {
	var file *File
	err := r.locks.WithExclusive(FileName, func() error {
		var err error
		file, err = r.ensureLocked()
		return err
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (r *Registry) ensureLocked() (*File, error) {
	raw, err := os.ReadFile(r.filePath()) //nolint:gosec // G304: path derived from trusted dir
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	if err == nil && len(strings.TrimSpace(string(raw))) > 0 {
		var file File
		if jsonErr := json.Unmarshal(raw, &file); jsonErr == nil && file.Projects != nil {
			if len(file.Projects) > 0 || len(r.projectDirsOnDisk()) == 0 {
				return &file, nil
			}
			// Valid but empty while project folders exist: rebuild below.
		} else {
			// Unparseable or structurally invalid: preserve the original
			// bytes before discarding anything.
			if backupErr := r.backup(raw); backupErr != nil {
				return nil, backupErr
			}
		}
	}

	file := r.rebuild()
	if err := r.saveLocked(file); err != nil {
		return nil, err
	}
	return file, nil
}

// rebuild seeds one minimal card per project directory found on disk. Path
// and description stay empty for a later sync to populate.
func (r *Registry) rebuild() *File {
	file := &File{Projects: make([]models.ProjectCard, 0)}
	for _, id := range r.projectDirsOnDisk() {
		file.Projects = append(file.Projects, models.ProjectCard{ProjectID: id})
	}
	return file
}

func (r *Registry) projectDirsOnDisk() []string {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) backup(raw []byte) error {
	// Nanosecond precision so back-to-back recoveries never overwrite an
	// earlier backup.
	backupPath := fmt.Sprintf("%s.%s.bak", r.filePath(), time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.WriteFile(backupPath, raw, 0o644); err != nil { //nolint:gosec // backup of shared registry state
		return fmt.Errorf("backup corrupt registry: %w", err)
	}
	return nil
}

// saveLocked writes the registry via temp-file-and-rename. Caller must hold
// the registry lock.
func (r *Registry) saveLocked(file *File) error {
	b, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	tmp := r.filePath() + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil { //nolint:gosec // shared registry state
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp, r.filePath()); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

// Get returns the card for projectID, or ErrProjectNotFound.
func (r *Registry) Get(projectID string) (*models.ProjectCard, error) {
	file, err := r.Ensure()
	if err != nil {
		return nil, err
	}
	for i := range file.Projects {
		if file.Projects[i].ProjectID == projectID {
			return &file.Projects[i], nil
		}
	}
	return nil, &ProjectNotFoundError{ProjectID: projectID}
}

// List returns all known project cards.
func (r *Registry) List() ([]models.ProjectCard, error) {
	file, err := r.Ensure()
	if err != nil {
		return nil, err
	}
	return file.Projects, nil
}
