package persistence

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"embedding-harmonizer/internal/app/registry"
)

// SchemaID is the $id of the snapshot document schema.
const SchemaID = "https://embedding-harmonizer.dev/schemas/registry-snapshot.json"

// Schema reflects the JSON Schema of the persisted snapshot document.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&registry.Document{})
	schema.ID = SchemaID
	schema.Title = "Embedding model registry snapshot"
	return schema
}

// SchemaJSON renders Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
