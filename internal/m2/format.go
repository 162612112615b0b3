package m2

import (
	"fmt"
	"path"
	"strings"
)

// Format identifies a model document encoding.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatXML
	FormatYAML
	FormatJSON
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name as produced by String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown model format %q", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(p string) (Format, error) {
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return FormatUnknown, fmt.Errorf("model document %s has no extension", p)
	}
	return ParseFormat(ext)
}
