// Package intent maps a free-text utterance to the best matching topic of a
// knowledge catalog using keyword scoring with typo tolerance.
package intent

import (
	"sort"
	"unicode/utf8"

	"support-workers/internal/chatbot/knowledge"
	"support-workers/internal/chatbot/textnorm"
)

const (
	exactMatchBase  = 10
	fuzzyMatchScore = 5
	longKeywordLen  = 8
)

type Kind int

const (
	KindFallback Kind = iota
	KindMatched
)

func (k Kind) String() string {
	if k == KindMatched {
		return "matched"
	}
	return "fallback"
}

// Result is the outcome of resolving an utterance. Topic is the winning
// topic for KindMatched and the catalog fallback for KindFallback.
type Result struct {
	Kind  Kind
	Topic knowledge.Topic
	Score int
}

func (r Result) Matched() bool {
	return r.Kind == KindMatched
}

func (r Result) Text() string {
	return r.Topic.Response
}

func (r Result) QuickReplies() []string {
	return r.Topic.QuickReplies
}

// Ranked is a topic with a positive score.
type Ranked struct {
	TopicID string
	Score   int
}

// Resolve returns the highest scoring topic for utterance, or the fallback
// when no topic scores above zero. Among equal scores the topic declared
// first in the catalog wins. Resolve never fails.
func Resolve(utterance string, catalog *knowledge.Catalog) Result {
	tokens := textnorm.Tokens(utterance)

	best, bestScore := -1, 0
	catalog.Each(func(i int, t *knowledge.Topic) {
		if s := ScoreTopic(t.Keywords, tokens); s > bestScore {
			best, bestScore = i, s
		}
	})

	if best < 0 {
		return Result{Kind: KindFallback, Topic: catalog.Fallback()}
	}
	return Result{Kind: KindMatched, Topic: catalog.At(best), Score: bestScore}
}

// Rank scores every topic and returns those above zero, highest first.
// The sort is stable, so ties keep catalog order and Rank(...)[0] is the
// topic Resolve picks.
func Rank(utterance string, catalog *knowledge.Catalog) []Ranked {
	tokens := textnorm.Tokens(utterance)

	var ranked []Ranked
	catalog.Each(func(_ int, t *knowledge.Topic) {
		if s := ScoreTopic(t.Keywords, tokens); s > 0 {
			ranked = append(ranked, Ranked{TopicID: t.ID, Score: s})
		}
	})

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// ScoreTopic sums the keyword/token pair scores of one topic. Keywords and
// tokens are expected to be normalized already.
func ScoreTopic(keywords, tokens []string) int {
	score := 0
	for _, k := range keywords {
		for _, u := range tokens {
			score += pairScore(k, u)
		}
	}
	return score
}

func pairScore(keyword, token string) int {
	d := EditDistance(keyword, token)
	n := utf8.RuneCountInString(keyword)
	switch {
	case d == 0:
		return exactMatchBase + n
	case d <= threshold(n):
		return fuzzyMatchScore
	default:
		return 0
	}
}

func threshold(keywordLen int) int {
	if keywordLen > longKeywordLen {
		return 2
	}
	return 1
}
