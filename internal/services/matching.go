package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/workbridge/backend/internal/models"
)

// MatcherProjectRepo is the minimal interface required for matching.
type MatcherProjectRepo interface {
	ListOpen(ctx context.Context) ([]*models.Project, error)
}

// Matcher ranks open projects for a freelancer by area fit, budget, and
// freshness.
type Matcher struct {
	Projects MatcherProjectRepo
}

// NewMatcher returns a new Matcher.
func NewMatcher(projects MatcherProjectRepo) *Matcher {
	return &Matcher{Projects: projects}
}

type projectCandidate struct {
	project   *models.Project
	areaMatch bool
	budget    int64
	age       time.Duration
}

func buildProjectCandidates(open []*models.Project, freelancer *models.User, area string, now time.Time) []projectCandidate {
	area = strings.ToLower(strings.TrimSpace(area))
	var candidates []projectCandidate
	for _, p := range open {
		if p.ClientID == freelancer.ID {
			continue
		}
		candidates = append(candidates, projectCandidate{
			project:   p,
			areaMatch: area != "" && strings.ToLower(p.Area) == area,
			budget:    p.Budget,
			age:       now.Sub(p.CreatedAt),
		})
	}
	return candidates
}

// scoreAndSortProjects orders candidates best first. Area matches always rank
// above non-matches; within a band, higher budget and fresher postings win.
func scoreAndSortProjects(candidates []projectCandidate) {
	var maxBudget int64
	maxAge := time.Duration(1)
	for i := range candidates {
		if candidates[i].budget > maxBudget {
			maxBudget = candidates[i].budget
		}
		if candidates[i].age > maxAge {
			maxAge = candidates[i].age
		}
	}
	if maxBudget <= 0 {
		maxBudget = 1
	}
	scores := make([]float64, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		budgetNorm := float64(c.budget) / float64(maxBudget)
		freshNorm := 1.0 - float64(c.age)/float64(maxAge)
		score := budgetNorm*0.6 + freshNorm*0.4
		if c.areaMatch {
			score += 1.0
		}
		scores[i] = score
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[i] > scores[j]
	})
}

// RecommendProjects returns up to limit open projects ranked for the
// freelancer. area is an optional filter hint; a blank area ranks on budget
// and freshness alone.
func (m *Matcher) RecommendProjects(ctx context.Context, freelancer *models.User, area string, limit int) ([]*models.Project, error) {
	open, err := m.Projects.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	candidates := buildProjectCandidates(open, freelancer, area, time.Now())
	if len(candidates) == 0 {
		return nil, nil
	}
	scoreAndSortProjects(candidates)
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]*models.Project, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, candidates[i].project)
	}
	return out, nil
}
