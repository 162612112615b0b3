// Package bootstrap provides the built-in models every registry starts with.
package bootstrap

import (
	"embed"
	"fmt"

	"github.com/jacoelho/dictionary/internal/m2"
)

// Namespace URIs of the built-in models.
const (
	DictionaryNamespace = "http://www.alfresco.org/model/dictionary/1.0"
	SystemNamespace     = "http://www.alfresco.org/model/system/1.0"
)

// Files lists the embedded model documents in dependency order.
var Files = []string{"dictionaryModel.xml", "systemModel.xml"}

//go:embed dictionaryModel.xml systemModel.xml
var models embed.FS

// FS returns the embedded model documents.
func FS() embed.FS {
	return models
}

// Models decodes the built-in models in dependency order.
func Models() ([]*m2.Model, error) {
	out := make([]*m2.Model, 0, len(Files))
	for _, name := range Files {
		m, err := m2.DecodeFile(models, name)
		if err != nil {
			return nil, fmt.Errorf("bootstrap model: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
