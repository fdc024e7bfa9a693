package store_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
	}

	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := store.ErrNotFound.WithCause(cause)

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "underlying error")
	assert.ErrorIs(t, err, cause)
}

func TestError_IsMatchesCustomMessages(t *testing.T) {
	err := fmt.Errorf("resolve: %w", store.ErrNotFound.WithMessage("illustration 999 not found"))

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrForbidden)
}

func TestToDomain(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want *domainerrors.Error
	}{
		{"not found", store.ErrNotFound.WithMessage("illustration 9 not found"), domainerrors.ErrNotFound},
		{"forbidden", store.ErrForbidden, domainerrors.ErrForbidden},
		{"conflict", store.ErrAlreadyExists, domainerrors.ErrAlreadyExists},
		{"driver failure", errors.New("database is locked"), domainerrors.ErrPersistence},
		{"domain passes through", domainerrors.ValidationField("name", "is required"), domainerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.ToDomain(tt.in, "op"), tt.want)
		})
	}
}

func TestToDomain_PassesThroughCancellation(t *testing.T) {
	err := store.ToDomain(fmt.Errorf("tx: %w", context.Canceled), "op")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, store.ToDomain(nil, "op"))
}
