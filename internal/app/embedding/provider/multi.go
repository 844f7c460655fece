package provider

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/pool"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/registry"
)

// MultiCatalog merges several provider catalogs into one and routes
// embedding calls by the provider prefix of the model key.
type MultiCatalog struct {
	catalogs map[registry.Provider]Catalog
	order    []registry.Provider
	logger   logging.Logger
}

// NewMultiCatalog creates a catalog over catalogs. Later catalogs with an
// already registered provider name replace earlier ones.
func NewMultiCatalog(logger logging.Logger, catalogs ...Catalog) *MultiCatalog {
	m := &MultiCatalog{
		catalogs: make(map[registry.Provider]Catalog, len(catalogs)),
		logger:   logging.OrNop(logger),
	}
	for _, c := range catalogs {
		if _, exists := m.catalogs[c.Name()]; !exists {
			m.order = append(m.order, c.Name())
		}
		m.catalogs[c.Name()] = c
	}
	return m
}

// Providers lists the configured providers in registration order.
func (m *MultiCatalog) Providers() []registry.Provider {
	return slices.Clone(m.order)
}

type listing struct {
	provider registry.Provider
	models   []CatalogModel
	err      error
}

// PartialListingError is returned together with the models of the providers
// that answered when the others could not be listed. Callers must not read
// the missing providers' models as withdrawn.
type PartialListingError struct {
	Providers []registry.Provider
	Err       error
}

func (e *PartialListingError) Error() string {
	return "catalog partially unreachable: " + e.Err.Error()
}

func (e *PartialListingError) Unwrap() error {
	return e.Err
}

// ListModels queries every provider concurrently. When some providers fail,
// the others' models are returned with a *PartialListingError naming the
// failed ones; only when every provider fails is the catalog unreachable.
func (m *MultiCatalog) ListModels(ctx context.Context) ([]CatalogModel, error) {
	if len(m.order) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrCatalogUnreachable, "no providers configured")
	}

	p := pool.NewWithResults[listing]().WithMaxGoroutines(len(m.order))
	for _, name := range m.order {
		c := m.catalogs[name]
		p.Go(func() listing {
			models, err := c.ListModels(ctx)
			return listing{provider: c.Name(), models: models, err: err}
		})
	}

	var (
		models []CatalogModel
		errs   []error
		failed []registry.Provider
	)
	for _, l := range p.Wait() {
		if l.err != nil {
			m.logger.Warnw("Provider catalog unavailable", "provider", l.provider, "error", l.err)
			errs = append(errs, apperrors.Wrapf(l.err, "provider %s", l.provider))
			failed = append(failed, l.provider)
			continue
		}
		models = append(models, l.models...)
	}

	if len(errs) == len(m.order) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, apperrors.Mark(apperrors.ErrCatalogUnreachable, errors.Join(errs...))
	}

	slices.SortFunc(models, func(a, b CatalogModel) int { return strings.Compare(a.ModelKey, b.ModelKey) })
	models = slices.CompactFunc(models, func(a, b CatalogModel) bool { return a.ModelKey == b.ModelKey })
	if len(failed) > 0 {
		slices.Sort(failed)
		return models, &PartialListingError{Providers: failed, Err: errors.Join(errs...)}
	}
	return models, nil
}

// ProbeEmbed embeds text with the model identified by its registry key.
func (m *MultiCatalog) ProbeEmbed(ctx context.Context, modelKey string, text string) ([]float32, error) {
	c, name, err := m.resolve(modelKey)
	if err != nil {
		return nil, err
	}
	return c.Embed(ctx, name, text)
}

// Embedder binds one model key to an EmbeddingProvider.
func (m *MultiCatalog) Embedder(modelKey string) (EmbeddingProvider, error) {
	c, name, err := m.resolve(modelKey)
	if err != nil {
		return nil, err
	}
	return Bind(c, name), nil
}

func (m *MultiCatalog) resolve(modelKey string) (Catalog, string, error) {
	p, name, ok := registry.SplitModelKey(modelKey)
	if !ok {
		return nil, "", apperrors.InvalidField("model_key", "expected <provider>/<model>")
	}
	c, ok := m.catalogs[p]
	if !ok {
		return nil, "", apperrors.Wrapf(apperrors.ErrUnknownModel, "no provider %s configured for %s", p, modelKey)
	}
	return c, name, nil
}
