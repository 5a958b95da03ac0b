package orchestrator

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

func TestClientAttachesAccessTokenCookie(t *testing.T) {
	var gotCookie *http.Cookie
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie, _ = r.Cookie("access_token")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token")
	resp, err := c.Get(t.Context(), "/v2/apps/foo")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, gotCookie)
	assert.Equal(t, "secret-token", gotCookie.Value)
}

func TestClientPostSendsJSONBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	obj := jsonval.NewObject()
	obj.Set("id", jsonval.String("/app1"))
	resp, err := c.Post(t.Context(), "/v2/apps", jsonval.FromObject(obj))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, gotBody, `"id":"/app1"`)
}

func TestClientPutWithQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	obj := jsonval.NewObject()
	_, err := c.Put(t.Context(), "/v2/groups", jsonval.FromObject(obj), url.Values{"force": {"true"}})
	require.NoError(t, err)
	assert.Equal(t, "force=true", gotQuery)
}

func TestClientDeleteNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	resp, err := c.Delete(t.Context(), "/v2/groups/foo")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
