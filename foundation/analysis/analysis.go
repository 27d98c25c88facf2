// Package analysis provides the scorers that judge an uploaded artifact and
// the fingerprint that identifies it.
package analysis

import (
	"context"
	"fmt"
)

// Score limits. Scores are the likelihood, as a percentage, that the
// artifact was manipulated.
const (
	MinScore     = 0
	MaxScore     = 100
	NeutralScore = 50
)

// Scorer represents the behavior of an analyzer that scores an artifact
// stored at the specified path.
type Scorer interface {
	Score(ctx context.Context, path string) (int, error)
}

// ScorerFunc is an adapter to allow the use of ordinary functions as scorers.
type ScorerFunc func(ctx context.Context, path string) (int, error)

// Score calls f(ctx, path).
func (f ScorerFunc) Score(ctx context.Context, path string) (int, error) {
	return f(ctx, path)
}

// Neutral returns a scorer that always returns the specified score.
func Neutral(score int) Scorer {
	return ScorerFunc(func(ctx context.Context, path string) (int, error) {
		return score, nil
	})
}

// =============================================================================

// fallback absorbs the failures of the scorer it wraps.
type fallback struct {
	name    string
	scorer  Scorer
	neutral int
	ev      func(v string, args ...any)
}

// WithFallback wraps the scorer so failures and out of range scores are
// replaced by the neutral score. The returned scorer never fails.
func WithFallback(name string, scorer Scorer, neutral int, evHandler func(v string, args ...any)) Scorer {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	return fallback{
		name:    name,
		scorer:  scorer,
		neutral: neutral,
		ev:      evHandler,
	}
}

// Score implements the Scorer interface.
func (f fallback) Score(ctx context.Context, path string) (int, error) {
	score, err := f.scorer.Score(ctx, path)
	if err != nil {
		f.ev("analysis: %s: WARNING: using neutral score[%d]: %s", f.name, f.neutral, err)
		return f.neutral, nil
	}

	if score < MinScore || score > MaxScore {
		f.ev("analysis: %s: WARNING: using neutral score[%d]: %s", f.name, f.neutral, fmt.Errorf("score %d out of range", score))
		return f.neutral, nil
	}

	return score, nil
}
