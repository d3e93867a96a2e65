package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/nalgeon/be"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("fetch page: %w", NotFoundf("thread %s not found", "t1"))
	be.Equal(t, KindOf(err), NotFound)
	be.Equal(t, KindOf(errors.New("boom")), Internal)
}

func TestHTTPStatus(t *testing.T) {
	be.Equal(t, Invalid("missing").HTTPStatus(), http.StatusBadRequest)
	be.Equal(t, NotFoundf("x").HTTPStatus(), http.StatusNotFound)
	be.Equal(t, FromProvider(401, `{"error":{}}`, nil).HTTPStatus(), http.StatusUnauthorized)
	be.Equal(t, FromProvider(0, "", nil).HTTPStatus(), http.StatusBadGateway)
	be.Equal(t, Unreachable(errors.New("dial")).HTTPStatus(), http.StatusServiceUnavailable)
	be.Equal(t, Wrap(errors.New("x")).HTTPStatus(), http.StatusInternalServerError)
}

func TestWrapKeepsExisting(t *testing.T) {
	orig := FromProvider(403, "quota", nil)
	wrapped := Wrap(fmt.Errorf("list: %w", orig))
	be.Equal(t, wrapped, orig)
	be.Equal(t, wrapped.Body, "quota")
}
