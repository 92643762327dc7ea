package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrInvalidInput, http.StatusBadRequest, "query must not be empty"), http.StatusBadRequest},
		{fmt.Errorf("parse: %w", ErrQuerySyntax), http.StatusBadRequest},
		{fmt.Errorf("reloading: %w", ErrIndexNotFound), http.StatusServiceUnavailable},
		{ErrTimeout, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusInternalServerError},
		{Newf(ErrInternal, http.StatusTeapot, "odd %d", 1), http.StatusTeapot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), tt.err.Error())
	}
}

func TestAppErrorWraps(t *testing.T) {
	err := fmt.Errorf("executing: %w", Newf(ErrInvalidInput, http.StatusBadRequest, "unknown search mode %q", "fuzzy"))
	assert.True(t, Is(err, ErrInvalidInput))
	assert.Equal(t, `executing: invalid input: unknown search mode "fuzzy"`, err.Error())

	var appErr *AppError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}
