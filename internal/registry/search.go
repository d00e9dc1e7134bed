package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotcommander/relay/internal/models"
)

// Searcher is the boundary to the external semantic-search collaborator.
// The indexing pipeline behind it (chunking, embeddings, vector search) is
// not part of this core; a nil Searcher means discovery uses substring
// matching only.
type Searcher interface {
	// Index derives (or re-derives) the search representation of a project.
	Index(card models.ProjectCard) error
	// Query returns project ids ranked by relevance.
	Query(query string, limit int) ([]string, error)
}

// Discover returns project cards matching query. An empty query returns all
// cards. A configured Searcher is consulted first; on failure or an empty
// result, discovery falls back to case-insensitive substring matching over
// id, description, and keywords.
func (r *Registry) Discover(query string) ([]models.ProjectCard, error) {
	file, err := r.Ensure()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return file.Projects, nil
	}

	if r.searcher != nil {
		ids, err := r.searcher.Query(query, len(file.Projects))
		if err != nil {
			slog.Warn("semantic discovery failed, falling back to substring match", "error", err.Error())
		} else if len(ids) > 0 {
			return cardsByID(file.Projects, ids), nil
		}
	}

	return substringMatch(file.Projects, query), nil
}

// SyncResult reports a registry re-index pass. Individual failures do not
// stop the pass; partial success is reported, not treated as fatal.
type SyncResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Sync re-derives the search representation of every known project.
func (r *Registry) Sync() (*SyncResult, error) {
	file, err := r.Ensure()
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	if r.searcher == nil {
		result.Skipped = len(file.Projects)
		return result, nil
	}

	for _, card := range file.Projects {
		if err := r.searcher.Index(card); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", card.ProjectID, err))
			continue
		}
		result.Processed++
	}
	return result, nil
}

func cardsByID(cards []models.ProjectCard, ids []string) []models.ProjectCard {
	byID := make(map[string]models.ProjectCard, len(cards))
	for _, c := range cards {
		byID[c.ProjectID] = c
	}
	out := make([]models.ProjectCard, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func substringMatch(cards []models.ProjectCard, query string) []models.ProjectCard {
	q := strings.ToLower(query)
	out := make([]models.ProjectCard, 0)
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.ProjectID), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			keywordsMatch(c.Keywords, q) {
			out = append(out, c)
		}
	}
	return out
}

func keywordsMatch(keywords []string, q string) bool {
	for _, k := range keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}
