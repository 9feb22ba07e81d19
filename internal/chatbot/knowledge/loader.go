package knowledge

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"support-workers/internal/common/validation"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

//go:embed catalog.schema.json
var catalogSchemaJSON []byte

var catalogSchema = validation.MustCompile(catalogSchemaJSON)

type catalogFile struct {
	Fallback string      `yaml:"fallback"`
	Topics   []topicFile `yaml:"topics"`
}

type topicFile struct {
	ID           string   `yaml:"id"`
	Label        string   `yaml:"label"`
	Keywords     []string `yaml:"keywords"`
	Response     string   `yaml:"response"`
	QuickReplies []string `yaml:"quick_replies"`
}

// Parse decodes a YAML catalog, checks it against the catalog schema and
// builds the Catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	result, err := catalogSchema.Validate(doc)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	topics := make([]Topic, 0, len(file.Topics))
	for _, t := range file.Topics {
		topics = append(topics, Topic{
			ID:           t.ID,
			Label:        t.Label,
			Keywords:     t.Keywords,
			Response:     t.Response,
			QuickReplies: t.QuickReplies,
		})
	}

	return NewCatalog(topics, file.Fallback)
}

// Load reads a catalog file from disk. An empty path loads the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Default builds the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// MustDefault is like Default but panics if the built-in catalog is broken.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}
