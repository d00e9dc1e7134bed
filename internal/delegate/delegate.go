// Package delegate routes a task creation request from one project onto
// another project's task board, with near-duplicate suppression so retried
// requests stay safe to call at-least-once.
package delegate

import (
	"fmt"
	"strings"

	"github.com/dotcommander/relay/internal/coord"
	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/registry"
	"github.com/dotcommander/relay/internal/similarity"
)

// DefaultThreshold is the title-similarity score at or above which a
// delegation request is treated as a retry of a prior one. Upstream callers
// retry after timeouts with no acknowledgment of success; suppressing
// near-identical titles keeps a retried request from minting a second task.
const DefaultThreshold = 0.85

// Service composes the project registry (to resolve delegation targets) with
// the coordination store (to reach the target's task board).
type Service struct {
	registry  *registry.Registry
	store     coord.Store
	scorer    similarity.Scorer
	threshold float64
}

// Option configures a Service.
type Option func(*Service)

// WithScorer swaps the title-similarity metric.
func WithScorer(s similarity.Scorer) Option {
	return func(d *Service) { d.scorer = s }
}

// WithThreshold overrides the duplicate-suppression cutoff. Values outside
// (0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(d *Service) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// New creates a delegation service over the given registry and store.
func New(reg *registry.Registry, store coord.Store, opts ...Option) *Service {
	d := &Service{
		registry:  reg,
		store:     store,
		scorer:    similarity.TokenSet{},
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Delegate creates a task on targetProjectID's board on behalf of
// fromProjectID/fromAgent.
//
// An unknown target fails with registry.ErrProjectNotFound and no mutation
// anywhere. If any existing task on the target board has a title scoring at
// or above the threshold against the requested title, the request is treated
// as a retry: the existing task's id and status are returned with
// IsDuplicate set, and no task is created. Otherwise a new pending external
// task is created with description and context concatenated.
func (d *Service) Delegate(fromProjectID, fromAgent, targetProjectID, title, description, context string) (*models.DelegationResult, error) {
	if fromProjectID == "" {
		return nil, fmt.Errorf("source project id is required")
	}
	if targetProjectID == "" {
		return nil, fmt.Errorf("target project id is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	if _, err := d.registry.Get(targetProjectID); err != nil {
		return nil, err
	}

	existing, err := d.store.GetAllTasks(targetProjectID)
	if err != nil {
		return nil, fmt.Errorf("list target tasks: %w", err)
	}

	if match, score := d.bestMatch(title, existing); match != nil {
		return &models.DelegationResult{
			TaskID:         match.ID,
			TargetProject:  targetProjectID,
			IsDuplicate:    true,
			ExistingStatus: match.Status,
			Similarity:     score,
			Message:        fmt.Sprintf("matched existing task %q", match.Title),
		}, nil
	}

	task, err := d.store.CreateExternalTask(targetProjectID, title, joinDescription(description, context), fromProjectID, fromAgent)
	if err != nil {
		return nil, fmt.Errorf("create task on %s: %w", targetProjectID, err)
	}

	return &models.DelegationResult{
		TaskID:        task.ID,
		TargetProject: targetProjectID,
	}, nil
}

// bestMatch returns the highest-scoring existing task at or above the
// threshold, or nil.
func (d *Service) bestMatch(title string, tasks []*models.Task) (*models.Task, float64) {
	var best *models.Task
	var bestScore float64
	for _, t := range tasks {
		score := d.scorer.Score(title, t.Title)
		if score >= d.threshold && score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best, bestScore
}

func joinDescription(description, context string) string {
	description = strings.TrimSpace(description)
	context = strings.TrimSpace(context)
	switch {
	case description == "":
		return context
	case context == "":
		return description
	default:
		return description + "\n\nContext: " + context
	}
}
