package policy

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed documents.toml
var defaultDocumentsRaw []byte

type Document struct {
	ID      string `toml:"id" json:"id"`
	Title   string `toml:"title" json:"title"`
	Content string `toml:"content" json:"content"`
}

type documentFile struct {
	Documents []Document `toml:"document"`
}

// DefaultDocuments returns the built-in policy set.
func DefaultDocuments() ([]Document, error) {
	return ParseDocuments(defaultDocumentsRaw)
}

// ParseDocuments reads a TOML file of [[document]] tables.
func ParseDocuments(raw []byte) ([]Document, error) {
	var f documentFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse policy documents: %w", err)
	}

	seen := make(map[string]bool, len(f.Documents))
	for i, d := range f.Documents {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return nil, fmt.Errorf("policy document %d has no id", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate policy document id %q", id)
		}
		seen[id] = true
		f.Documents[i].ID = id
	}
	return f.Documents, nil
}
