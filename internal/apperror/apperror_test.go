package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errThing = New(KindNotFound, "THING_NOT_FOUND", "thing not found")

func TestIsMatchesByCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("lookup: %w", errThing.Wrap(errors.New("no rows")))

	assert.ErrorIs(t, err, errThing)
	assert.NotErrorIs(t, err, New(KindNotFound, "OTHER", "other"))
}

func TestFromClassifiesUnknownErrorsAsInternal(t *testing.T) {
	e := From(errors.New("connection refused"))

	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, "Something went wrong", e.Message)
}

func TestWithStatusDoesNotMutateSentinel(t *testing.T) {
	pinned := errThing.WithStatus(http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, pinned.Status)
	assert.Equal(t, http.StatusNotFound, errThing.Status)
	assert.ErrorIs(t, pinned, errThing)
}
