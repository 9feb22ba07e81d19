// Package knowledge holds the immutable catalog of support topics the
// chatbot answers from.
package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"support-workers/internal/chatbot/textnorm"
)

var (
	ErrEmptyCatalog      = errors.New("catalog has no topics")
	ErrMissingTopicID    = errors.New("catalog topic has no id")
	ErrMissingFallback   = errors.New("catalog fallback topic not found")
	ErrFallbackKeywords  = errors.New("catalog fallback topic must not have keywords")
	ErrTopicWithoutWords = errors.New("catalog topic has no keywords")
	ErrDuplicateTopic    = errors.New("catalog topic id is duplicated")
	ErrEmptyResponse     = errors.New("catalog topic has an empty response")
)

// Catalog is an ordered, read-only set of topics with exactly one fallback.
// A Catalog never changes after construction and may be shared freely.
type Catalog struct {
	topics   []Topic
	fallback Topic
	index    map[string]int
}

// NewCatalog validates topics and builds a Catalog. Keywords are folded
// (lowercase, accents stripped) and de-duplicated per topic, keeping their
// first position. The topic named fallbackID is set apart from the scored
// topics; declaration order of the rest is preserved.
func NewCatalog(topics []Topic, fallbackID string) (*Catalog, error) {
	if len(topics) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{index: make(map[string]int, len(topics))}
	foundFallback := false

	for _, t := range topics {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return nil, ErrMissingTopicID
		}
		if _, dup := c.index[id]; dup || (foundFallback && id == c.fallback.ID) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTopic, id)
		}
		if strings.TrimSpace(t.Response) == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptyResponse, id)
		}

		topic := t.clone()
		topic.ID = id
		topic.Keywords = foldKeywords(t.Keywords)

		if id == fallbackID {
			if len(topic.Keywords) > 0 {
				return nil, fmt.Errorf("%w: %s", ErrFallbackKeywords, id)
			}
			c.fallback = topic
			foundFallback = true
			continue
		}

		if len(topic.Keywords) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrTopicWithoutWords, id)
		}
		c.index[id] = len(c.topics)
		c.topics = append(c.topics, topic)
	}

	if !foundFallback {
		return nil, fmt.Errorf("%w: %q", ErrMissingFallback, fallbackID)
	}
	return c, nil
}

func foldKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(textnorm.Fold(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		folded = append(folded, k)
	}
	return folded
}

// Topics returns the scored topics in declaration order, fallback excluded.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	for i, t := range c.topics {
		out[i] = t.clone()
	}
	return out
}

// Each calls fn for every scored topic in declaration order without copying.
// fn must not modify the topic's slices.
func (c *Catalog) Each(fn func(i int, t *Topic)) {
	for i := range c.topics {
		fn(i, &c.topics[i])
	}
}

// At returns the i-th scored topic. It panics when i is out of range.
func (c *Catalog) At(i int) Topic {
	return c.topics[i].clone()
}

func (c *Catalog) Fallback() Topic {
	return c.fallback.clone()
}

// Lookup finds a topic by id. The fallback topic is found too.
func (c *Catalog) Lookup(id string) (Topic, bool) {
	if id == c.fallback.ID {
		return c.Fallback(), true
	}
	i, ok := c.index[id]
	if !ok {
		return Topic{}, false
	}
	return c.topics[i].clone(), true
}

// Len is the number of scored topics.
func (c *Catalog) Len() int {
	return len(c.topics)
}

// QuickReplyLabels lists every distinct quick reply offered by any topic,
// the fallback included, in first-seen order.
func (c *Catalog) QuickReplyLabels() []string {
	seen := make(map[string]struct{})
	var labels []string
	add := func(replies []string) {
		for _, r := range replies {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			labels = append(labels, r)
		}
	}
	for _, t := range c.topics {
		add(t.QuickReplies)
	}
	add(c.fallback.QuickReplies)
	return labels
}
