package persistence

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// Format is a snapshot document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Encode serializes snap as a self-contained versioned document.
func Encode(snap *registry.Snapshot, format Format) ([]byte, error) {
	doc := snap.Document()
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, apperrors.Wrap(err, "encode snapshot")
		}
		if err := enc.Close(); err != nil {
			return nil, apperrors.Wrap(err, "encode snapshot")
		}
		return buf.Bytes(), nil
	}
	return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "snapshot format %q", format)
}

// Decode parses and validates a snapshot document.
func Decode(data []byte, format Format) (*registry.Snapshot, error) {
	var doc registry.Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "snapshot format %q", format)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "decode snapshot")
	}
	return registry.FromDocument(doc)
}
