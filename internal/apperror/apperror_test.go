package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryPassesClassifiedErrorsThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "validation", err: Validation("bad time %q", "25:00")},
		{name: "forbidden", err: Forbidden("no access")},
		{name: "not found", err: NotFound("routine not found")},
		{name: "wrapped forbidden", err: fmt.Errorf("loading link: %w", Forbidden("no access"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Boundary(tt.err, "failed to do thing")
			assert.Same(t, tt.err, got)
		})
	}
}

func TestBoundaryWrapsUnclassifiedErrors(t *testing.T) {
	cause := fmt.Errorf("failed to query routines: %w", sql.ErrConnDone)

	err := Boundary(cause, "failed to build today's overview")

	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "failed to build today's overview", PublicMessage(err))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.NotContains(t, PublicMessage(err), "connection")
}

func TestBoundaryRewrapsNestedInternalErrors(t *testing.T) {
	inner := Boundary(fmt.Errorf("failed to query routines: %w", sql.ErrConnDone), "failed to load routines")

	err := Boundary(inner, "failed to build today's overview")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "failed to build today's overview", PublicMessage(err))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Same(t, err, Boundary(err, "failed to build today's overview"))
}

func TestBoundaryNil(t *testing.T) {
	assert.NoError(t, Boundary(nil, "unused"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("x"), http.StatusBadRequest},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{Unauthenticated("x"), http.StatusUnauthorized},
		{Conflict("x"), http.StatusConflict},
		{Internal("x", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(KindOf(tt.err)), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessageHidesUnclassifiedDetail(t *testing.T) {
	assert.Equal(t, GenericMessage, PublicMessage(errors.New("pq: password authentication failed")))
	assert.Equal(t, "no log to remove", PublicMessage(Validation("no log to remove")))
}

func TestIs(t *testing.T) {
	assert.True(t, Is(Forbidden("x"), KindForbidden))
	assert.False(t, Is(Forbidden("x"), KindNotFound))
	assert.False(t, Is(nil, KindInternal))
}
