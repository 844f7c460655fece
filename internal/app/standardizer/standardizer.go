// Package standardizer maps native embedding vectors of any model onto the
// single target dimension of the vector index.
package standardizer

import (
	"errors"
	"sync/atomic"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/metrics"
	"embedding-harmonizer/internal/app/registry"
)

// Action describes what standardization did to a vector.
type Action string

const (
	ActionPassthrough Action = "passthrough"
	ActionPad         Action = "pad"
	ActionTruncate    Action = "truncate"
)

// Validation describes how the vector was checked against the registry.
type Validation string

const (
	// ValidationPassed means the length matched a dimension the model emits.
	ValidationPassed Validation = "passed"
	// ValidationUnknownModel means the model is not registered; not validated.
	ValidationUnknownModel Validation = "unknown_model"
	// ValidationSkipped means the model is registered as unavailable and has
	// no known dimension to validate against.
	ValidationSkipped Validation = "skipped"
)

// Result is the outcome of a standardization call.
type Result struct {
	Vector          []float32
	Action          Action
	Validation      Validation
	InputDimension  int
	TargetDimension int
	// PaddingStrategy is the strategy of the policy the call ran under, set
	// whether or not the vector was padded.
	PaddingStrategy PaddingStrategy
}

// Standardize is the pure core: it validates vector against the model's
// descriptor in snap and pads or truncates it to policy.TargetDimension. The
// returned vector never aliases the input. Truncation does not re-normalize.
// An invalid policy is rejected before the vector is looked at.
func Standardize(vector []float32, modelKey string, snap *registry.Snapshot, policy Policy) (Result, error) {
	policy, err := policy.Normalize()
	if err != nil {
		return Result{}, err
	}
	if len(vector) == 0 {
		return Result{}, apperrors.Wrap(apperrors.ErrEmptyVector, "model "+modelKey)
	}

	validation := ValidationUnknownModel
	if snap != nil {
		if d, ok := snap.Lookup(modelKey); ok {
			switch {
			case d.Status == registry.StatusUnavailable:
				validation = ValidationSkipped
			case d.Accepts(len(vector)):
				validation = ValidationPassed
			default:
				return Result{}, &apperrors.DimensionMismatchError{
					ModelKey: modelKey,
					Got:      len(vector),
					Expected: d.EmittableDimensions(),
				}
			}
		}
	}

	target := policy.TargetDimension
	res := Result{
		Vector:          make([]float32, target),
		Validation:      validation,
		InputDimension:  len(vector),
		TargetDimension: target,
		PaddingStrategy: policy.PaddingStrategy,
	}

	switch {
	case len(vector) == target:
		copy(res.Vector, vector)
		res.Action = ActionPassthrough
	case len(vector) > target:
		copy(res.Vector, vector[:target])
		res.Action = ActionTruncate
	default:
		res.Action = ActionPad
		switch policy.PaddingStrategy {
		case PaddingRepeat:
			padRepeat(res.Vector, vector)
		case PaddingRandom:
			padRandom(res.Vector, vector)
		case PaddingZeros:
			padZeros(res.Vector, vector)
		}
	}
	return res, nil
}

// Standardizer binds the pure Standardize function to the live registry and a
// hot-swappable policy, adding logging and metrics. It holds no locks.
type Standardizer struct {
	registry registry.Reader
	policy   atomic.Pointer[Policy]
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// New creates a Standardizer. It fails fast on an invalid policy.
func New(reg registry.Reader, policy Policy, logger logging.Logger, m *metrics.Metrics) (*Standardizer, error) {
	policy, err := policy.Normalize()
	if err != nil {
		return nil, err
	}
	s := &Standardizer{
		registry: reg,
		logger:   logging.OrNop(logger),
		metrics:  m,
	}
	s.policy.Store(&policy)
	return s, nil
}

// Policy returns the active policy.
func (s *Standardizer) Policy() Policy {
	return *s.policy.Load()
}

// SetPolicy swaps the padding strategy. The target dimension is fixed for the
// lifetime of an index, so a policy with a different target is rejected.
func (s *Standardizer) SetPolicy(p Policy) error {
	p, err := p.Normalize()
	if err != nil {
		return err
	}
	current := s.policy.Load()
	if p.TargetDimension != current.TargetDimension {
		return apperrors.Wrapf(apperrors.ErrInvalidPolicy,
			"target_dimension cannot change from %d to %d without re-embedding the index",
			current.TargetDimension, p.TargetDimension)
	}
	s.policy.Store(&p)
	s.logger.Infow("Standardization policy updated",
		"target_dimension", p.TargetDimension, "padding_strategy", p.PaddingStrategy)
	return nil
}

// Standardize standardizes vector against the registry's current snapshot.
func (s *Standardizer) Standardize(vector []float32, modelKey string) (Result, error) {
	return s.StandardizeWith(s.registry.Current(), vector, modelKey)
}

// StandardizeWith standardizes against an explicit snapshot, letting a caller
// process a batch against one consistent model set.
func (s *Standardizer) StandardizeWith(snap *registry.Snapshot, vector []float32, modelKey string) (Result, error) {
	res, err := Standardize(vector, modelKey, snap, s.Policy())
	if err != nil {
		if errors.Is(err, apperrors.ErrDimensionMismatch) {
			s.metrics.RecordDimensionMismatch(modelKey)
		}
		s.logger.Errorw("Standardization rejected vector",
			"model_key", modelKey, "input_dimension", len(vector), "error", err)
		return Result{}, err
	}

	if res.Validation == ValidationUnknownModel {
		s.metrics.RecordUnknownModel()
		s.logger.Warnw("Model not in registry, standardizing without validation",
			"model_key", modelKey, "input_dimension", len(vector))
	}
	s.metrics.RecordStandardize(string(res.Action), string(res.PaddingStrategy))
	return res, nil
}
