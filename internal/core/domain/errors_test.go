package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrStoreUnavailable", ErrStoreUnavailable},
		{"ErrSchemaDowngrade", ErrSchemaDowngrade},
		{"ErrMigrationFailed", ErrMigrationFailed},
		{"ErrStatement", ErrStatement},
		{"ErrUnknownOwner", ErrUnknownOwner},
		{"ErrAllocationConflict", ErrAllocationConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrUnknownOwner, ErrAllocationConflict))
	assert.False(t, errors.Is(ErrSchemaDowngrade, ErrMigrationFailed))
	assert.False(t, errors.Is(ErrStatement, ErrNotFound))
}

func TestDowngradeError(t *testing.T) {
	err := fmt.Errorf("opening store: %w", &DowngradeError{Recorded: 3, Target: 2})

	assert.True(t, errors.Is(err, ErrSchemaDowngrade))
	assert.False(t, errors.Is(err, ErrMigrationFailed))

	var de *DowngradeError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, 3, de.Recorded)
	assert.Equal(t, 2, de.Target)
	assert.Contains(t, err.Error(), "version 3")
}

func TestMigrationError(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := &MigrationError{From: 1, To: 2, Step: "rebuild invoices", Err: cause}

	assert.True(t, errors.Is(err, ErrMigrationFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "v1->v2")
	assert.Contains(t, err.Error(), "rebuild invoices")
}

func TestStatementError_Constraint(t *testing.T) {
	tests := []struct {
		name string
		code int
		want bool
	}{
		{"unique", 2067, true},
		{"foreign key", 787, true},
		{"not null", 1299, true},
		{"syntax", 1, false},
		{"unknown", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &StatementError{Op: "insert", Code: tt.code, Err: errors.New("boom")}
			assert.Equal(t, tt.want, err.Constraint())
			assert.True(t, errors.Is(err, ErrStatement))
		})
	}
}
