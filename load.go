package dictionary

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load compiles the single model document at location in fsys against the
// built-in models.
func Load(fsys fs.FS, location string) (*CompiledModel, error) {
	return LoadWithOptions(fsys, location, NewLoadOptions())
}

// LoadWithOptions compiles one model document with explicit configuration.
func LoadWithOptions(fsys fs.FS, location string, opts LoadOptions) (*CompiledModel, error) {
	set := NewModelSet(opts)
	if err := set.AddFS(fsys, location); err != nil {
		return nil, fmt.Errorf("load model %s: %w", location, err)
	}
	res, err := set.Compile()
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", location, err)
	}
	if len(res.Models) != 1 {
		return nil, fmt.Errorf("load model %s: compiled %d models", location, len(res.Models))
	}
	return res.Models[0], nil
}

// LoadFile compiles the model document at path.
func LoadFile(path string) (*CompiledModel, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	return LoadWithOptions(os.DirFS(dir), base, NewLoadOptions())
}
