package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTopics() []Topic {
	return []Topic{
		{ID: "upload", Keywords: []string{"upload"}, Response: "up", QuickReplies: []string{"Voltar"}},
		{ID: "download", Keywords: []string{"Download", "download", "BAIXAR"}, Response: "down"},
		{ID: "fallback", Response: "sorry", QuickReplies: []string{"Falar com humano", "Voltar"}},
	}
}

// ==========================
// NewCatalog
// ==========================

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog(sampleTopics(), "fallback")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "fallback", c.Fallback().ID)

	topics := c.Topics()
	require.Len(t, topics, 2)
	assert.Equal(t, "upload", topics[0].ID)
	assert.Equal(t, "download", topics[1].ID)
	assert.Equal(t, []string{"download", "baixar"}, topics[1].Keywords)
}

func TestNewCatalog_FoldsAccents(t *testing.T) {
	c, err := NewCatalog([]Topic{
		{ID: "guia", Keywords: []string{"Instruções", "  "}, Response: "r"},
		{ID: "fb", Response: "r"},
	}, "fb")
	require.NoError(t, err)

	topic, ok := c.Lookup("guia")
	require.True(t, ok)
	assert.Equal(t, []string{"instrucoes"}, topic.Keywords)
}

func TestNewCatalog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		topics   []Topic
		fallback string
		wantErr  error
	}{
		{"empty", nil, "fb", ErrEmptyCatalog},
		{
			"missing fallback",
			[]Topic{{ID: "a", Keywords: []string{"a"}, Response: "r"}},
			"fb",
			ErrMissingFallback,
		},
		{
			"fallback with keywords",
			[]Topic{{ID: "fb", Keywords: []string{"x"}, Response: "r"}},
			"fb",
			ErrFallbackKeywords,
		},
		{
			"topic without keywords",
			[]Topic{{ID: "a", Response: "r"}, {ID: "fb", Response: "r"}},
			"fb",
			ErrTopicWithoutWords,
		},
		{
			"duplicate id",
			[]Topic{{ID: "a", Keywords: []string{"a"}, Response: "r"}, {ID: "a", Keywords: []string{"b"}, Response: "r"}, {ID: "fb", Response: "r"}},
			"fb",
			ErrDuplicateTopic,
		},
		{
			"duplicate fallback",
			[]Topic{{ID: "fb", Response: "r"}, {ID: "fb", Response: "r"}},
			"fb",
			ErrDuplicateTopic,
		},
		{
			"empty response",
			[]Topic{{ID: "a", Keywords: []string{"a"}, Response: " "}, {ID: "fb", Response: "r"}},
			"fb",
			ErrEmptyResponse,
		},
		{
			"missing id",
			[]Topic{{Keywords: []string{"a"}, Response: "r"}, {ID: "fb", Response: "r"}},
			"fb",
			ErrMissingTopicID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.topics, tt.fallback)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCatalog_Immutable(t *testing.T) {
	topics := sampleTopics()
	c, err := NewCatalog(topics, "fallback")
	require.NoError(t, err)

	topics[0].Keywords[0] = "changed"
	got := c.Topics()
	got[0].QuickReplies[0] = "changed"

	again := c.Topics()
	assert.Equal(t, "upload", again[0].Keywords[0])
	assert.Equal(t, "Voltar", again[0].QuickReplies[0])
}

func TestCatalog_Lookup(t *testing.T) {
	c, err := NewCatalog(sampleTopics(), "fallback")
	require.NoError(t, err)

	_, ok := c.Lookup("download")
	assert.True(t, ok)
	fb, ok := c.Lookup("fallback")
	assert.True(t, ok)
	assert.Equal(t, "sorry", fb.Response)
	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestCatalog_QuickReplyLabels(t *testing.T) {
	c, err := NewCatalog(sampleTopics(), "fallback")
	require.NoError(t, err)

	assert.Equal(t, []string{"Voltar", "Falar com humano"}, c.QuickReplyLabels())
}

// ==========================
// Loader
// ==========================

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 23, c.Len())
	assert.Equal(t, "naoEncontrado", c.Fallback().ID)
	assert.Equal(t, "saudacao", c.Topics()[0].ID)

	comoUsar, ok := c.Lookup("comoUsar")
	require.True(t, ok)
	assert.Contains(t, comoUsar.Keywords, "instrucoes")

	assert.NotPanics(t, func() { MustDefault() })
}

func TestParse_SchemaViolation(t *testing.T) {
	_, err := Parse([]byte(`
fallback: fb
topics:
  - id: a
    keywords: [a]
    response: r
    color: blue
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog")
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("topics: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fallback: fb
topics:
  - id: hello
    keywords: [oi]
    response: Olá
  - id: fb
    response: Não entendi
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	builtin, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 23, builtin.Len())
}
