package persistence

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embedding-harmonizer/internal/app/errors"
)

func TestCodecFormats(t *testing.T) {
	snap := testSnapshot(t, 9, baseTime)

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(snap, format)
			require.NoError(t, err)

			decoded, err := Decode(data, format)
			require.NoError(t, err)
			assert.True(t, snap.Equal(decoded))
		})
	}
}

func TestEncodeYAMLLayout(t *testing.T) {
	data, err := Encode(testSnapshot(t, 9, baseTime), FormatYAML)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "schema_version: 1\n"))
	assert.Contains(t, text, "version: 9")
	assert.Contains(t, text, "mock/c:")
	assert.Contains(t, text, "  - 1024")
	// Unavailable models carry no native dimension.
	assert.NotContains(t, text[strings.Index(text, "mock/d:"):], "native_dimension")
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "::::"},
		{name: "wrong schema version", data: "schema_version: 2\nversion: 1\nmodels: {}\n"},
		{
			name: "available without dimension",
			data: "schema_version: 1\nversion: 1\nmodels:\n  mock/a:\n    provider: mock\n    status: available\n",
		},
		{
			name: "mismatched key",
			data: "schema_version: 1\nversion: 1\nmodels:\n  mock/a:\n    model_key: mock/b\n    provider: mock\n    native_dimension: 3\n    status: available\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), FormatYAML)
			assert.Error(t, err)
		})
	}
}

func TestCodecUnsupportedFormat(t *testing.T) {
	_, err := Encode(testSnapshot(t, 1, baseTime), Format("toml"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)

	_, err = Decode([]byte("{}"), Format("toml"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, SchemaID, schema["$id"])
	assert.Equal(t, "object", schema["type"])
	assert.ElementsMatch(t, []any{"schema_version", "version", "generated_at", "models"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "models")
	assert.Contains(t, props, "generated_at")
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "cassandra"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)
}

func TestNewFileBackend(t *testing.T) {
	store, err := New(context.Background(), Config{Backend: " File ", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "file", store.Name())
	fs, ok := store.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, DefaultRetention, fs.retention)
}
