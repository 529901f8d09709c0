package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"fiddler/domain/core"
)

func TestGetCodeClassifiesDomainErrors(t *testing.T) {
	cfg := core.NewConfigurationError("noise", "negative")
	gen := &core.GenerationError{Requested: 3, Cause: stderrors.New("budget")}

	assert.Equal(t, CodeConfigInvalid, GetCode(cfg))
	assert.Equal(t, CodeGenerationFailed, GetCode(gen))
	assert.Equal(t, CodeNotFound, GetCode(core.NewRunNotFoundError("x")))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestWrapKeepsCodeAndCause(t *testing.T) {
	cfg := core.NewConfigurationError("noise", "negative")
	wrapped := Wrapf(cfg, "loading preset %s", "fast.yaml")

	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.True(t, core.IsConfigurationError(wrapped))
	assert.Contains(t, wrapped.Error(), "loading preset fast.yaml")
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(core.NewConfigurationError("n_traces", "zero")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("bad json")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(core.NewRunNotFoundError("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(&core.GenerationError{}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ExportFailed("out", stderrors.New("disk"))))
}
