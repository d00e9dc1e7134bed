package registry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dotcommander/relay/internal/models"
)

// Register upserts a project card, merging on write: a present path,
// description, keyword list, or enrichment field is never blanked by an
// update that omits it. The search index update afterwards is best-effort:
// its failure is logged and swallowed, never propagated, because a broken
// search collaborator must not block registration.
func (r *Registry) Register(card models.ProjectCard) (*models.ProjectCard, error) {
	if card.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	var merged models.ProjectCard
	err := r.locks.WithExclusive(FileName, func() error {
		file, err := r.ensureLocked()
		if err != nil {
			return err
		}

		found := false
		for i := range file.Projects {
			if file.Projects[i].ProjectID != card.ProjectID {
				continue
			}
			file.Projects[i] = mergeCards(file.Projects[i], card)
			merged = file.Projects[i]
			found = true
			break
		}
		if !found {
			card.LastActive = time.Now().UTC()
			file.Projects = append(file.Projects, card)
			merged = card
		}

		return r.saveLocked(file)
	})
	if err != nil {
		return nil, err
	}

	if r.searcher != nil {
		if err := r.searcher.Index(merged); err != nil {
			slog.Warn("search index update failed", "project_id", merged.ProjectID, "error", err.Error())
		}
	}
	return &merged, nil
}

// mergeCards overlays incoming onto existing, keeping any existing value the
// incoming card leaves blank.
func mergeCards(existing, incoming models.ProjectCard) models.ProjectCard {
	out := existing
	if incoming.Path != "" {
		out.Path = incoming.Path
	}
	if incoming.Description != "" {
		out.Description = incoming.Description
	}
	if len(incoming.Keywords) > 0 {
		out.Keywords = incoming.Keywords
	}
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if len(incoming.Responsibilities) > 0 {
		out.Responsibilities = incoming.Responsibilities
	}
	if len(incoming.Owns) > 0 {
		out.Owns = incoming.Owns
	}
	if incoming.Exports != "" {
		out.Exports = incoming.Exports
	}
	if incoming.ProjectType != "" {
		out.ProjectType = incoming.ProjectType
	}
	out.LastActive = time.Now().UTC()
	return out
}
