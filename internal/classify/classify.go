// Package classify decides whether article text is about a brand. The
// scoring backend is injectable: a zero-shot inference service for real
// deployments, a keyword matcher for offline and test use.
package classify

import (
	"context"

	"go.uber.org/zap"
)

// Relevance is the binary verdict attached to each article. The wire
// values are the human-readable strings the API has always returned.
type Relevance string

const (
	Relevant    Relevance = "Yes, it is relevant"
	NotRelevant Relevance = "No, it is not relevant"
)

// Threshold is the fixed confidence cutoff for a Relevant verdict.
// Deliberately not configurable at runtime.
const Threshold = 0.5

// Scorer reports confidence in [0,1] that text belongs to the category
// named by label.
type Scorer interface {
	Score(ctx context.Context, text, label string) (float64, error)
}

// Classifier applies the threshold policy to a Scorer. A failing scorer
// degrades to NotRelevant rather than failing the request.
type Classifier struct {
	Scorer Scorer
	Logger *zap.Logger
}

func New(scorer Scorer, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{Scorer: scorer, Logger: logger}
}

func (c *Classifier) Classify(ctx context.Context, text, label string) Relevance {
	score, err := c.Scorer.Score(ctx, text, label)
	if err != nil {
		c.Logger.Warn("scorer unavailable, defaulting to not relevant",
			zap.String("label", label), zap.Error(err))
		return NotRelevant
	}
	if score >= Threshold {
		return Relevant
	}
	return NotRelevant
}
