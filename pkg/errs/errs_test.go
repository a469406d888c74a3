package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not found", NotFound("role %s not found", "abc"), ErrNotFound},
		{"already exists", AlreadyExists("permission exists"), ErrAlreadyExists},
		{"validation", Validation("id is required"), ErrValidation},
		{"infrastructure", Infrastructure(errors.New("conn refused"), "role query failed"), ErrInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.kind))
			for _, other := range []error{ErrNotFound, ErrAlreadyExists, ErrValidation, ErrInfrastructure} {
				if other != tt.kind {
					assert.False(t, errors.Is(tt.err, other))
				}
			}
		})
	}
}

func TestInfrastructureUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Infrastructure(cause, "group query failed")
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "group query failed: connection reset", err.Error())
}

func TestWrappedKindSurvives(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("permission missing"))
	assert.True(t, errors.Is(err, ErrNotFound))
}
