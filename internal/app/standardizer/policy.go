package standardizer

import (
	"strings"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// PaddingStrategy decides how short vectors are extended to the target dimension.
type PaddingStrategy string

const (
	PaddingZeros  PaddingStrategy = "zeros"
	PaddingRepeat PaddingStrategy = "repeat"
	PaddingRandom PaddingStrategy = "random"
)

// ParsePaddingStrategy parses a strategy name, case-insensitively.
func ParsePaddingStrategy(s string) (PaddingStrategy, error) {
	switch PaddingStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case PaddingZeros:
		return PaddingZeros, nil
	case PaddingRepeat:
		return PaddingRepeat, nil
	case PaddingRandom:
		return PaddingRandom, nil
	}
	return "", apperrors.Wrap(apperrors.ErrInvalidPolicy, "unknown padding strategy "+s)
}

// Policy is the process-wide standardization configuration.
type Policy struct {
	TargetDimension int
	PaddingStrategy PaddingStrategy
}

// NewPolicy validates and builds a Policy. A non-positive target dimension is
// a construction error. The strategy is stored in its canonical form.
func NewPolicy(targetDimension int, strategy PaddingStrategy) (Policy, error) {
	return Policy{TargetDimension: targetDimension, PaddingStrategy: strategy}.Normalize()
}

// Validate checks the policy.
func (p Policy) Validate() error {
	_, err := p.Normalize()
	return err
}

// Normalize validates p and returns a copy whose padding strategy is one of the
// canonical constants.
func (p Policy) Normalize() (Policy, error) {
	if p.TargetDimension <= 0 {
		return Policy{}, apperrors.Wrapf(apperrors.ErrInvalidPolicy, "target_dimension must be positive, got %d", p.TargetDimension)
	}
	strategy, err := ParsePaddingStrategy(string(p.PaddingStrategy))
	if err != nil {
		return Policy{}, err
	}
	p.PaddingStrategy = strategy
	return p, nil
}
