package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Constructors(t *testing.T) {
	err := NewAppError(http.StatusBadRequest, CodeBadRequest, "bad", ErrBadRequest)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, CodeBadRequest, err.Code)
	assert.Equal(t, "bad", err.Message)
	assert.Equal(t, ErrBadRequest.Error(), err.Error())

	notFound := NotFound("missing")
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.Equal(t, CodeNotFound, notFound.Code)

	conflict := Conflict("exists")
	assert.Equal(t, http.StatusConflict, conflict.Status)
	assert.Equal(t, CodeConflict, conflict.Code)

	internal := InternalError(stderrors.New("db down"))
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.Equal(t, CodeInternalError, internal.Code)

	badReq := BadRequest("bad request")
	assert.Equal(t, http.StatusBadRequest, badReq.Status)
	assert.Equal(t, CodeInvalidInput, badReq.Code)

	unauth := Unauthorized("unauthorized")
	assert.Equal(t, http.StatusUnauthorized, unauth.Status)

	forbidden := Forbidden("forbidden")
	assert.Equal(t, http.StatusForbidden, forbidden.Status)

	noErr := &AppError{Message: "plain"}
	assert.Equal(t, "plain", noErr.Error())
}

func TestProfileNotFoundIsNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrProfileNotFound, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("update points: %w", ErrProfileNotFound), ErrNotFound)
}

func TestValidationAndUpstreamWrapping(t *testing.T) {
	v := Validation("totalUsers must be non-negative, got %d", -1)
	assert.ErrorIs(t, v, ErrValidationFailed)
	assert.Contains(t, v.Error(), "totalUsers")

	u := Upstream("explorer", stderrors.New("timeout"))
	assert.ErrorIs(t, u, ErrUpstreamUnavailable)
	assert.Contains(t, u.Error(), "explorer")
}

func TestFromDomain(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrProfileNotFound, http.StatusNotFound, CodeNotFound},
		{Validation("x"), http.StatusUnprocessableEntity, CodeValidationFailed},
		{ErrBadRequest, http.StatusBadRequest, CodeBadRequest},
		{ErrAlreadyProcessed, http.StatusConflict, CodeAlreadyProcessed},
		{ErrAlreadyExists, http.StatusConflict, CodeConflict},
		{Upstream("oracle", stderrors.New("down")), http.StatusServiceUnavailable, CodeUpstreamUnavailable},
		{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{ErrForbidden, http.StatusForbidden, CodeForbidden},
		{stderrors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tc := range cases {
		appErr := FromDomain(tc.err)
		assert.Equal(t, tc.status, appErr.Status, tc.err.Error())
		assert.Equal(t, tc.code, appErr.Code, tc.err.Error())
	}

	existing := NotFound("missing")
	assert.Same(t, existing, FromDomain(existing))
}
