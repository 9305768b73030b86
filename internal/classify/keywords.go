package classify

import (
	"context"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Keywords is a deterministic scorer: the score is the fraction of the
// label's tokens that occur in the text. It needs no network and no
// model, which also makes it the substitute backend in tests.
type Keywords struct{}

func NewKeywords() *Keywords {
	return &Keywords{}
}

func (k *Keywords) Score(ctx context.Context, text, label string) (float64, error) {
	tokens := labelTokens(label)
	if len(tokens) == 0 {
		return 0, nil
	}

	matcher := ahocorasick.NewStringMatcher(tokens)
	hits := matcher.Match([]byte(strings.ToLower(text)))

	return float64(len(hits)) / float64(len(tokens)), nil
}

func labelTokens(label string) []string {
	fields := strings.Fields(strings.ToLower(label))
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?'"`)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
