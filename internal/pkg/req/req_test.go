package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
)

type bindTarget struct {
	Name string `json:"name"`
}

func jsonRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestBindJSON(t *testing.T) {
	var target bindTarget
	customErr := BindJSON(jsonRequest(`{"name":"groovz"}`), &target)
	require.Nil(t, customErr)
	assert.Equal(t, "groovz", target.Name)
}

func TestBindJSONRejectsWrongContentType(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "text/plain")

	var target bindTarget
	customErr := BindJSON(r, &target)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUnsupportedMediaType, customErr.Code)
}

func TestBindJSONRejectsUnknownFields(t *testing.T) {
	var target bindTarget
	customErr := BindJSON(jsonRequest(`{"name":"x","extra":true}`), &target)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrInvalidJSONFormat, customErr.Code)
}

func TestBindJSONRejectsTrailingContent(t *testing.T) {
	var target bindTarget
	customErr := BindJSON(jsonRequest(`{"name":"x"}{"name":"y"}`), &target)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrExtraContentInBody, customErr.Code)
}
