package match

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultLimit is the result cap used when a caller does not choose one.
	DefaultLimit = 20
	// DefaultOverFetch is how many candidates are requested per wanted result.
	// Some candidates will score zero and be dropped.
	DefaultOverFetch = 2
)

// Matcher retrieves candidates, scores them against a requester and returns
// the best non-zero matches. It holds no per-request state and is safe for
// concurrent use.
type Matcher struct {
	candidates CandidateSource
	questions  QuestionProvider
	overFetch  int
	workers    int
	logger     zerolog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithOverFetch sets the candidate over-fetch factor. Values below 1 are ignored.
func WithOverFetch(factor int) Option {
	return func(m *Matcher) {
		if factor >= 1 {
			m.overFetch = factor
		}
	}
}

// WithWorkers scores candidates on up to n goroutines. n <= 1 scores inline.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		if n >= 1 {
			m.workers = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Matcher) {
		m.logger = l
	}
}

// New builds a Matcher over the given collaborators.
func New(candidates CandidateSource, questions QuestionProvider, opts ...Option) *Matcher {
	m := &Matcher{
		candidates: candidates,
		questions:  questions,
		overFetch:  DefaultOverFetch,
		workers:    1,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FindMatches returns at most limit candidates with a compatibility above
// zero, best first. Equal scores keep the order the CandidateSource returned.
// Errors from the collaborators are returned as is.
func (m *Matcher) FindMatches(ctx context.Context, requester User, limit int) ([]Result, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		return []Result{}, nil
	}

	questions, err := m.questions.Questions(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		m.logger.Debug().Int("requester_id", requester.ID).Msg("no profile questions configured")
		return []Result{}, nil
	}

	pool, err := m.candidates.Candidates(ctx, requester.ID, EligibleFilters(), limit*m.overFetch)
	if err != nil {
		return nil, err
	}

	scores, err := m.scoreAll(ctx, requester, pool, questions)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(pool))
	for i, c := range pool {
		if c.ID == requester.ID || scores[i] == 0 {
			continue
		}
		results = append(results, Result{User: c, Compatibility: scores[i]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Compatibility > results[j].Compatibility
	})
	if len(results) > limit {
		results = results[:limit]
	}

	m.logger.Debug().
		Int("requester_id", requester.ID).
		Int("questions", len(questions)).
		Int("candidates", len(pool)).
		Int("matches", len(results)).
		Msg("matches ranked")
	return results, nil
}

// scoreAll returns one score per candidate, index aligned with pool.
func (m *Matcher) scoreAll(ctx context.Context, requester User, pool []User, questions []Question) ([]int, error) {
	scores := make([]int, len(pool))
	if m.workers <= 1 || len(pool) < 2 {
		for i, c := range pool {
			scores[i] = Score(requester, c, questions)
		}
		return scores, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range pool {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = Score(requester, pool[i], questions)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
