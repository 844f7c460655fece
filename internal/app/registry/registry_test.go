package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(key string, dim int, status Status) ModelDescriptor {
	return ModelDescriptor{
		ModelKey:        key,
		DisplayName:     key,
		Provider:        ProviderMock,
		NativeDimension: Dim(dim),
		Status:          status,
	}
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       ModelDescriptor
		wantErr string
	}{
		{
			name: "available with dimension",
			d:    descriptor("mock/a", 384, StatusAvailable),
		},
		{
			name:    "missing key",
			d:       ModelDescriptor{Status: StatusAvailable, NativeDimension: Dim(3)},
			wantErr: "model_key is required",
		},
		{
			name:    "available without dimension",
			d:       ModelDescriptor{ModelKey: "mock/b", Status: StatusAvailable},
			wantErr: "must be set",
		},
		{
			name:    "unavailable with dimension",
			d:       descriptor("mock/c", 384, StatusUnavailable),
			wantErr: "must be unset",
		},
		{
			name: "unavailable without dimension",
			d:    ModelDescriptor{ModelKey: "mock/d", Status: StatusUnavailable},
		},
		{
			name: "configurable containing native",
			d: ModelDescriptor{
				ModelKey: "mock/e", Status: StatusNew, NativeDimension: Dim(1536),
				ConfigurableDimensions: true, SupportedDimensions: []int{512, 1536},
			},
		},
		{
			name: "supported missing native",
			d: ModelDescriptor{
				ModelKey: "mock/f", Status: StatusAvailable, NativeDimension: Dim(1536),
				ConfigurableDimensions: true, SupportedDimensions: []int{256, 512},
			},
			wantErr: "must contain native_dimension",
		},
		{
			name: "fixed model listing several sizes",
			d: ModelDescriptor{
				ModelKey: "mock/g", Status: StatusAvailable, NativeDimension: Dim(768),
				SupportedDimensions: []int{384, 768},
			},
			wantErr: "only configurable models",
		},
		{
			name:    "bad status",
			d:       ModelDescriptor{ModelKey: "mock/h", Status: "retired", NativeDimension: Dim(3)},
			wantErr: "status is invalid",
		},
		{
			name:    "non-positive dimension",
			d:       descriptor("mock/i", 0, StatusAvailable),
			wantErr: "native_dimension is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDescriptorAccepts(t *testing.T) {
	configurable := ModelDescriptor{
		ModelKey: "openai/text-embedding-3-large", Status: StatusAvailable, NativeDimension: Dim(3072),
		ConfigurableDimensions: true, SupportedDimensions: []int{256, 1024, 3072},
	}
	assert.True(t, configurable.Accepts(3072))
	assert.True(t, configurable.Accepts(256))
	assert.False(t, configurable.Accepts(1536))

	fixed := descriptor("mock/fixed", 384, StatusAvailable)
	assert.True(t, fixed.Accepts(384))
	assert.False(t, fixed.Accepts(768))

	unavailable := ModelDescriptor{ModelKey: "mock/gone", Status: StatusUnavailable}
	assert.False(t, unavailable.Accepts(384))
	assert.Empty(t, unavailable.EmittableDimensions())
}

func TestNewSnapshotRejectsDuplicates(t *testing.T) {
	_, err := NewSnapshot(1, time.Now(), []ModelDescriptor{
		descriptor("mock/a", 3, StatusAvailable),
		descriptor("mock/a", 4, StatusAvailable),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSnapshotIsImmutable(t *testing.T) {
	supported := []int{1536, 512, 512}
	native := 1536
	s, err := NewSnapshot(1, time.Now(), []ModelDescriptor{{
		ModelKey: "openai/small", Provider: ProviderOpenAI, Status: StatusAvailable,
		NativeDimension: &native, ConfigurableDimensions: true, SupportedDimensions: supported,
	}})
	require.NoError(t, err)

	// Mutating the caller's inputs must not leak into the snapshot.
	supported[0] = 99
	native = 7

	got, ok := s.Lookup("openai/small")
	require.True(t, ok)
	assert.Equal(t, []int{512, 1536}, got.SupportedDimensions)
	assert.Equal(t, 1536, *got.NativeDimension)

	// Mutating a returned copy must not leak either.
	got.SupportedDimensions[0] = 1
	*got.NativeDimension = 2
	again, _ := s.Lookup("openai/small")
	assert.Equal(t, []int{512, 1536}, again.SupportedDimensions)
	assert.Equal(t, 1536, *again.NativeDimension)

	doc := s.Document()
	delete(doc.Models, "openai/small")
	assert.Equal(t, 1, s.Len())
}

func TestDocumentRoundTrip(t *testing.T) {
	s := DefaultSnapshot()
	back, err := FromDocument(s.Document())
	require.NoError(t, err)
	assert.True(t, s.Equal(back))

	doc := s.Document()
	doc.SchemaVersion = 99
	_, err = FromDocument(doc)
	assert.Error(t, err)
}

func TestAllIsOrderedByKey(t *testing.T) {
	s, err := NewSnapshot(1, time.Now(), []ModelDescriptor{
		descriptor("mock/c", 3, StatusAvailable),
		descriptor("mock/a", 3, StatusAvailable),
		descriptor("mock/b", 3, StatusAvailable),
	})
	require.NoError(t, err)

	keys := make([]string, 0, 3)
	for _, m := range s.All() {
		keys = append(keys, m.ModelKey)
	}
	assert.Equal(t, []string{"mock/a", "mock/b", "mock/c"}, keys)
}

func TestRegistryReplace(t *testing.T) {
	r := New(DefaultSnapshot())

	var notified *Snapshot
	r.OnReplace(func(s *Snapshot) { notified = s })

	next, err := NewSnapshot(1, time.Now(), []ModelDescriptor{descriptor("mock/a", 384, StatusNew)})
	require.NoError(t, err)
	require.NoError(t, r.Replace(next))

	assert.Same(t, next, r.Current())
	assert.Same(t, next, notified)

	_, ok := r.Lookup("mock/a")
	assert.True(t, ok)

	stale, err := NewSnapshot(1, time.Now(), nil)
	require.NoError(t, err)
	assert.Error(t, r.Replace(stale))
	assert.Same(t, next, r.Current())

	assert.Error(t, r.Replace(nil))
}

// Every snapshot published below tags all of its models with its own
// generation; a reader seeing mixed generations would have observed a
// partially applied update.
func TestRegistryReadersNeverSeePartialState(t *testing.T) {
	const models = 50
	build := func(gen uint64) *Snapshot {
		ds := make([]ModelDescriptor, 0, models)
		for i := 0; i < models; i++ {
			d := descriptor(fmt.Sprintf("mock/m%02d", i), 100+i, StatusAvailable)
			d.DisplayName = fmt.Sprintf("gen-%d", gen)
			ds = append(ds, d)
		}
		s, err := NewSnapshot(gen, time.Now(), ds)
		require.NoError(t, err)
		return s
	}

	r := New(build(1))
	done := make(chan struct{})
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := r.Current()
				want := fmt.Sprintf("gen-%d", snap.Version())
				for _, m := range snap.All() {
					if m.DisplayName != want {
						t.Errorf("mixed snapshot: model %s has %s, want %s", m.ModelKey, m.DisplayName, want)
						return
					}
				}
			}
		}()
	}

	for gen := uint64(2); gen <= 200; gen++ {
		require.NoError(t, r.Replace(build(gen)))
	}
	close(done)
	wg.Wait()

	assert.Equal(t, uint64(200), r.Current().Version())
}

func TestCompatibilityReport(t *testing.T) {
	s, err := NewSnapshot(3, time.Now(), []ModelDescriptor{
		{ModelKey: "openai/small", Provider: ProviderOpenAI, Status: StatusAvailable, NativeDimension: Dim(1536), ConfigurableDimensions: true, SupportedDimensions: []int{512, 1536}},
		{ModelKey: "openai/ada", Provider: ProviderOpenAI, Status: StatusDeprecated, NativeDimension: Dim(1536)},
		{ModelKey: "gemini/004", Provider: ProviderGemini, Status: StatusNew, NativeDimension: Dim(768)},
		{ModelKey: "ollama/broken", Provider: ProviderOllama, Status: StatusUnavailable},
	})
	require.NoError(t, err)

	report := BuildReport(s)
	assert.Equal(t, uint64(3), report.Version)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 1, report.Available)
	assert.Equal(t, 1, report.Deprecated)
	assert.Equal(t, 1, report.New)
	assert.Equal(t, 1, report.Unavailable)
	assert.Equal(t, map[string]int{"openai": 2, "gemini": 1, "ollama": 1}, report.ByProvider)
	assert.Equal(t, map[int]int{1536: 2, 768: 1}, report.ByDimension)
	assert.Equal(t, []string{"openai/small"}, report.Configurable)
}

func TestSplitModelKey(t *testing.T) {
	p, name, ok := SplitModelKey("ollama/library/nomic-embed-text")
	require.True(t, ok)
	assert.Equal(t, ProviderOllama, p)
	assert.Equal(t, "library/nomic-embed-text", name)

	for _, bad := range []string{"", "openai", "/x", "openai/"} {
		_, _, ok := SplitModelKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestDefaultSnapshot(t *testing.T) {
	s := DefaultSnapshot()
	require.Greater(t, s.Len(), 0)

	report := BuildReport(s)
	assert.Equal(t, report.Total, report.Available)

	small, ok := s.Lookup("openai/text-embedding-3-small")
	require.True(t, ok)
	assert.True(t, small.ConfigurableDimensions)
	assert.Equal(t, []int{512, 1536}, small.SupportedDimensions)

	// Defaults are reproducible.
	assert.True(t, s.Equal(DefaultSnapshot()))
}
