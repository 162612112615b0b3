package m2

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// Decode reads one model document. YAML and JSON documents are checked
// against the model document schema before decoding.
func Decode(r io.Reader, format Format) (*Model, error) {
	if r == nil {
		return nil, fmt.Errorf("decode model: nil reader")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return DecodeBytes(data, format)
}

// DecodeBytes decodes one model document held in memory.
func DecodeBytes(data []byte, format Format) (*Model, error) {
	var m Model
	switch format {
	case FormatXML:
		var doc xmlModel
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode xml model: %w", err)
		}
		converted, err := doc.model()
		if err != nil {
			return nil, fmt.Errorf("decode xml model: %w", err)
		}
		m = *converted
	case FormatYAML:
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode yaml model: %w", err)
		}
		if err := checkDocument(generic); err != nil {
			return nil, fmt.Errorf("decode yaml model: %w", err)
		}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode yaml model: %w", err)
		}
	case FormatJSON:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode json model: %w", err)
		}
		if err := checkDocument(generic); err != nil {
			return nil, fmt.Errorf("decode json model: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode json model: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode model: unsupported format %s", format)
	}
	return &m, nil
}

// DecodeFile decodes the document at p in fsys, inferring the format from its extension.
func DecodeFile(fsys fs.FS, p string) (*Model, error) {
	if fsys == nil {
		return nil, fmt.Errorf("decode model %s: nil fs", p)
	}
	format, err := FormatFromPath(p)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", p, err)
	}
	m, err := DecodeBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return m, nil
}

// Encode writes m in the given format.
func Encode(w io.Writer, m *Model, format Format) error {
	if m == nil {
		return fmt.Errorf("encode model: nil model")
	}
	switch format {
	case FormatXML:
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(fromModel(m)); err != nil {
			return fmt.Errorf("encode xml model %s: %w", m.Name, err)
		}
		return enc.Close()
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode yaml model %s: %w", m.Name, err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode json model %s: %w", m.Name, err)
		}
		return nil
	default:
		return fmt.Errorf("encode model %s: unsupported format %s", m.Name, format)
	}
}

// Canonical returns the compact JSON form of m, used for checksums and storage.
func Canonical(m *Model) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("canonical model: nil model")
	}
	return json.Marshal(m)
}
