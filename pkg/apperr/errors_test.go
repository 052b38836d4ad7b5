package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfExtractsThroughWrapping(t *testing.T) {
	err := Newf(KindConflict, "row changed")
	wrapped := fmt.Errorf("update vm: %w", err)

	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestKindOfUnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKindOfDeadlineIsTransient(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindTransient, KindOf(fmt.Errorf("query: %w", context.DeadlineExceeded)))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(Newf(KindTransient, "db gone")))
	assert.False(t, IsTransient(Newf(KindValidation, "bad date")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:           http.StatusBadRequest,
		KindConfirmationMismatch: http.StatusBadRequest,
		KindReferentialIntegrity: http.StatusBadRequest,
		KindNotFound:             http.StatusNotFound,
		KindConflict:             http.StatusConflict,
		KindCatalogMissing:       http.StatusUnprocessableEntity,
		KindTransient:            http.StatusServiceUnavailable,
		KindInternal:             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), "kind %s", kind)
	}
}

func TestErrorMessageIncludesWrappedCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindTransient, "ping database", cause)

	assert.Contains(t, err.Error(), "ping database")
	assert.ErrorIs(t, err, cause)
}
