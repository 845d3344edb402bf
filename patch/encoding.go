package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Format of the document encoding.
type Format int

// Supported formats.
const (
	YAML Format = iota
	JSON
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case JSON:
		return "json"
	}
	return "unknown"
}

// FormatOf returns the format by file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Encode writes the document in provided format.
func Encode(w io.Writer, doc Document, f Format) error {
	switch f {
	case YAML:
		b, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("error encoding yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("error encoding json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
}

// Decode reads the document in provided format.
func Decode(r io.Reader, f Format) (Document, error) {
	var doc Document
	switch f {
	case YAML:
		b, err := io.ReadAll(r)
		if err != nil {
			return Document{}, err
		}
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return Document{}, fmt.Errorf("error decoding yaml: %w", err)
		}
	case JSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("error decoding json: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
	return doc, nil
}

// ReadFile decodes the document from file. Format is chosen by
// extension.
func ReadFile(path string) (Document, error) {
	f, err := FormatOf(path)
	if err != nil {
		return Document{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Decode(bytes.NewReader(b), f)
}

// WriteFile encodes the document into file. Format is chosen by
// extension.
func WriteFile(path string, doc Document) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc, f); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
