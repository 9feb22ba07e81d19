package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-workers/internal/chatbot/knowledge"
)

func testCatalog(t *testing.T, topics ...knowledge.Topic) *knowledge.Catalog {
	t.Helper()
	topics = append(topics, knowledge.Topic{ID: "fallback", Response: "não entendi", QuickReplies: []string{"Falar com humano"}})
	c, err := knowledge.NewCatalog(topics, "fallback")
	require.NoError(t, err)
	return c
}

// ==========================
// Scoring
// ==========================

func TestScoreTopic(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		tokens   []string
		want     int
	}{
		{"exact match rewards length", []string{"upload"}, []string{"upload"}, 16},
		{"one substitution on short keyword", []string{"upload"}, []string{"uplaad"}, 5},
		{"transposition is two edits", []string{"upload"}, []string{"upolad"}, 0},
		{"two edits on long keyword", []string{"saudacoes"}, []string{"sadacoez"}, 5},
		{"three edits on long keyword", []string{"saudacoes"}, []string{"sadacez"}, 0},
		{"eight letters is not long", []string{"download"}, []string{"dowload"}, 5},
		{"eight letters with two edits", []string{"download"}, []string{"dowlod"}, 0},
		{"sums every pair", []string{"nao", "funciona"}, []string{"nao", "funciona", "nao"}, 13 + 18 + 13},
		{"punctuation counts as an edit", []string{"bem"}, []string{"bem?"}, 5},
		{"no tokens", []string{"oi"}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreTopic(tt.keywords, tt.tokens))
		})
	}
}

// ==========================
// Resolve
// ==========================

func TestResolve_DownloadBeatsUpload(t *testing.T) {
	c := testCatalog(t,
		knowledge.Topic{ID: "upload", Keywords: []string{"upload"}, Response: "up"},
		knowledge.Topic{ID: "download", Keywords: []string{"download"}, Response: "down"},
	)

	result := Resolve("download", c)
	assert.True(t, result.Matched())
	assert.Equal(t, "download", result.Topic.ID)
	assert.Equal(t, 18, result.Score)
	assert.Equal(t, "down", result.Text())
}

func TestResolve_Greeting(t *testing.T) {
	c := knowledge.MustDefault()

	result := Resolve("oi", c)
	assert.Equal(t, KindMatched, result.Kind)
	assert.Equal(t, "saudacao", result.Topic.ID)
	assert.Equal(t, 12, result.Score)
	assert.NotEmpty(t, result.QuickReplies())
}

func TestResolve_Fallback(t *testing.T) {
	c := knowledge.MustDefault()

	for _, utterance := range []string{"", "   ", "asdf qwerty zxcv", "upolad"} {
		result := Resolve(utterance, c)
		assert.False(t, result.Matched(), utterance)
		assert.Equal(t, KindFallback, result.Kind)
		assert.Equal(t, "naoEncontrado", result.Topic.ID)
		assert.Zero(t, result.Score)
		assert.Equal(t, c.Fallback().Response, result.Text())
	}
}

func TestResolve_TieKeepsCatalogOrder(t *testing.T) {
	c := testCatalog(t,
		knowledge.Topic{ID: "first", Keywords: []string{"erro"}, Response: "1"},
		knowledge.Topic{ID: "second", Keywords: []string{"erro"}, Response: "2"},
	)
	assert.Equal(t, "first", Resolve("erro", c).Topic.ID)

	swapped := testCatalog(t,
		knowledge.Topic{ID: "second", Keywords: []string{"erro"}, Response: "2"},
		knowledge.Topic{ID: "first", Keywords: []string{"erro"}, Response: "1"},
	)
	assert.Equal(t, "second", Resolve("erro", swapped).Topic.ID)

	builtin := knowledge.MustDefault()
	assert.Equal(t, "tudoBem", Resolve("como", builtin).Topic.ID)
	assert.Equal(t, "upload", Resolve("erro", builtin).Topic.ID)
	assert.Equal(t, "github", Resolve("projeto", builtin).Topic.ID)
}

func TestResolve_AccentsAndCase(t *testing.T) {
	c := knowledge.MustDefault()

	assert.Equal(t, "comoUsar", Resolve("INSTRUÇÕES", c).Topic.ID)
	assert.Equal(t, "download", Resolve("Quero BAIXAR meu vídeo", c).Topic.ID)
	assert.Equal(t, "legendar", Resolve("legendas", c).Topic.ID)
}

func TestResolve_Deterministic(t *testing.T) {
	c := knowledge.MustDefault()

	for _, utterance := range []string{"nao funciona", "como usar o editor", "quero falar com humano", "bom"} {
		first := Resolve(utterance, c)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, Resolve(utterance, c), utterance)
		}
	}
}

func TestResolve_ExactSelfMatch(t *testing.T) {
	c := knowledge.MustDefault()

	for _, topic := range c.Topics() {
		for _, keyword := range topic.Keywords {
			result := Resolve(keyword, c)
			require.True(t, result.Matched(), keyword)

			if result.Topic.ID == topic.ID {
				continue
			}
			assert.Contains(t, result.Topic.Keywords, keyword,
				"%q resolved to %s which does not share the keyword", keyword, result.Topic.ID)
			assert.GreaterOrEqual(t, result.Score, ScoreTopic(topic.Keywords, []string{keyword}))
		}
	}
}

// ==========================
// Rank
// ==========================

func TestRank(t *testing.T) {
	c := knowledge.MustDefault()

	ranked := Rank("nao funciona", c)
	require.Len(t, ranked, 3)
	assert.Equal(t, Ranked{TopicID: "upload", Score: 31}, ranked[0])
	assert.Equal(t, Ranked{TopicID: "download", Score: 31}, ranked[1])
	assert.Equal(t, Ranked{TopicID: "comoUsar", Score: 18}, ranked[2])

	assert.Equal(t, Resolve("nao funciona", c).Topic.ID, ranked[0].TopicID)
	assert.Empty(t, Rank("xyzzy", c))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "matched", KindMatched.String())
	assert.Equal(t, "fallback", KindFallback.String())
}
