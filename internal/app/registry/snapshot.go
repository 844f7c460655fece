package registry

import (
	"fmt"
	"slices"
	"time"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// SchemaVersion is the version of the persisted snapshot document layout.
const SchemaVersion = 1

// BackupIDLayout formats GeneratedAt into the sortable key used for backups.
const BackupIDLayout = "20060102T150405.000000000Z"

// Document is the self-contained, serializable form of a Snapshot.
type Document struct {
	SchemaVersion int                        `json:"schema_version" yaml:"schema_version" jsonschema:"required,enum=1"`
	Version       uint64                     `json:"version" yaml:"version" jsonschema:"required"`
	GeneratedAt   time.Time                  `json:"generated_at" yaml:"generated_at" jsonschema:"required"`
	Models        map[string]ModelDescriptor `json:"models" yaml:"models" jsonschema:"required"`
}

// Snapshot is an immutable view of the full model registry. All accessors
// return copies; nothing reachable from a Snapshot can be mutated.
type Snapshot struct {
	version     uint64
	generatedAt time.Time
	models      map[string]ModelDescriptor
	keys        []string
}

// NewSnapshot validates the descriptors and freezes them into a Snapshot.
func NewSnapshot(version uint64, generatedAt time.Time, models []ModelDescriptor) (*Snapshot, error) {
	s := &Snapshot{
		version:     version,
		generatedAt: generatedAt.UTC(),
		models:      make(map[string]ModelDescriptor, len(models)),
		keys:        make([]string, 0, len(models)),
	}
	for _, m := range models {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.models[m.ModelKey]; dup {
			return nil, apperrors.Newf("duplicate model_key %s", m.ModelKey)
		}
		s.models[m.ModelKey] = m.normalized()
		s.keys = append(s.keys, m.ModelKey)
	}
	slices.Sort(s.keys)
	return s, nil
}

// FromDocument rebuilds a Snapshot from its persisted form.
func FromDocument(doc Document) (*Snapshot, error) {
	if doc.SchemaVersion != SchemaVersion {
		return nil, apperrors.Newf("unsupported snapshot schema_version %d", doc.SchemaVersion)
	}
	models := make([]ModelDescriptor, 0, len(doc.Models))
	for key, m := range doc.Models {
		if m.ModelKey == "" {
			m.ModelKey = key
		}
		if m.ModelKey != key {
			return nil, apperrors.Newf("model entry %s carries mismatched model_key %s", key, m.ModelKey)
		}
		models = append(models, m)
	}
	return NewSnapshot(doc.Version, doc.GeneratedAt, models)
}

// Document returns a deep copy of the snapshot in serializable form.
func (s *Snapshot) Document() Document {
	doc := Document{
		SchemaVersion: SchemaVersion,
		Version:       s.version,
		GeneratedAt:   s.generatedAt,
		Models:        make(map[string]ModelDescriptor, len(s.models)),
	}
	for k, m := range s.models {
		doc.Models[k] = m.clone()
	}
	return doc
}

// Version is the monotonically increasing registry version.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// GeneratedAt is when the snapshot was produced.
func (s *Snapshot) GeneratedAt() time.Time {
	return s.generatedAt
}

// BackupID is the timestamp key under which this snapshot is backed up.
func (s *Snapshot) BackupID() string {
	return s.generatedAt.UTC().Format(BackupIDLayout)
}

// Len returns the number of models.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// Lookup returns a copy of the descriptor for key.
func (s *Snapshot) Lookup(key string) (ModelDescriptor, bool) {
	m, ok := s.models[key]
	if !ok {
		return ModelDescriptor{}, false
	}
	return m.clone(), true
}

// All returns copies of every descriptor ordered by model key.
func (s *Snapshot) All() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.models[k].clone())
	}
	return out
}

// Keys returns the model keys in order.
func (s *Snapshot) Keys() []string {
	return slices.Clone(s.keys)
}

// Equal reports whether two snapshots hold the same version, timestamp and models.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.version == o.version && s.generatedAt.Equal(o.generatedAt) && s.SameModels(o)
}

// SameModels reports whether two snapshots describe identical model sets,
// ignoring version and timestamp.
func (s *Snapshot) SameModels(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !slices.Equal(s.keys, o.keys) {
		return false
	}
	for _, k := range s.keys {
		if !s.models[k].Equal(o.models[k]) {
			return false
		}
	}
	return true
}

// String summarizes the snapshot for logs.
func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot v%d (%s, %d models)", s.version, s.BackupID(), len(s.keys))
}
