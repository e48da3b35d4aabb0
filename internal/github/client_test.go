package github

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/readme-generator/internal/apperror"
)

// newFakeGitHub serves canned JSON by path and records the Authorization header.
func newFakeGitHub(t *testing.T, routes map[string]string) (*httptest.Server, *[]string) {
	t.Helper()
	var auth []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		body, ok := routes[r.URL.RequestURI()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &auth
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, 5*time.Second, slog.New(slog.DiscardHandler))
}

// =========================================================================
// LIST REPOSITORIES TESTS
// =========================================================================

func TestListRepositories(t *testing.T) {
	srv, auth := newFakeGitHub(t, map[string]string{
		"/user/repos?sort=updated&per_page=20": `[
			{"id":1,"name":"demo","full_name":"octo/demo","private":false,"description":null,"updated_at":"2024-05-01T00:00:00Z","stargazers_count":9},
			{"id":2,"name":"secret","full_name":"octo/secret","private":true,"description":"hidden","updated_at":"2024-04-01T00:00:00Z"}
		]`,
	})

	repos, err := newTestClient(srv).ListRepositories(t.Context(), "gho_abc")
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Equal(t, "octo/demo", repos[0].FullName)
	assert.Nil(t, repos[0].Description)
	assert.True(t, repos[1].Private)
	require.NotNil(t, repos[1].Description)
	assert.Equal(t, "hidden", *repos[1].Description)
	assert.Equal(t, "Bearer gho_abc", (*auth)[0])
}

func TestListRepositories_UpstreamError(t *testing.T) {
	srv, _ := newFakeGitHub(t, map[string]string{})

	_, err := newTestClient(srv).ListRepositories(t.Context(), "gho_abc")
	assert.ErrorIs(t, err, apperror.ErrUpstreamRepo)
}

func TestListRepositories_EmptyIsNotNil(t *testing.T) {
	srv, _ := newFakeGitHub(t, map[string]string{
		"/user/repos?sort=updated&per_page=20": `[]`,
	})

	repos, err := newTestClient(srv).ListRepositories(t.Context(), "gho_abc")
	require.NoError(t, err)
	assert.NotNil(t, repos)
	assert.Empty(t, repos)
}

// =========================================================================
// FILE TREE TESTS
// =========================================================================

func TestGetFileTree(t *testing.T) {
	srv, auth := newFakeGitHub(t, map[string]string{
		"/repos/octo/demo":                              `{"default_branch":"main"}`,
		"/repos/octo/demo/branches/main":                `{"commit":{"sha":"abc123"}}`,
		"/repos/octo/demo/git/trees/abc123?recursive=1": `{"tree":[{"path":"src","type":"tree"},{"path":"src/main.go","type":"blob"}],"truncated":false}`,
	})

	paths, err := newTestClient(srv).GetFileTree(t.Context(), "gho_abc", "octo/demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "src/main.go"}, paths)
	assert.Len(t, *auth, 3)
}

func TestGetFileTree_TruncatedStillReturnsPaths(t *testing.T) {
	srv, _ := newFakeGitHub(t, map[string]string{
		"/repos/octo/big":                           `{"default_branch":"trunk"}`,
		"/repos/octo/big/branches/trunk":            `{"commit":{"sha":"f00"}}`,
		"/repos/octo/big/git/trees/f00?recursive=1": `{"tree":[{"path":"a"}],"truncated":true}`,
	})

	paths, err := newTestClient(srv).GetFileTree(t.Context(), "gho_abc", "octo/big")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, paths)
}

func TestGetFileTree_Failures(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		routes   map[string]string
	}{
		{
			name:     "repository missing",
			fullName: "octo/gone",
			routes:   map[string]string{},
		},
		{
			name:     "empty repository has no branch",
			fullName: "octo/empty",
			routes: map[string]string{
				"/repos/octo/empty": `{"default_branch":"main"}`,
			},
		},
		{
			name:     "branch without commit",
			fullName: "octo/odd",
			routes: map[string]string{
				"/repos/octo/odd":               `{"default_branch":"main"}`,
				"/repos/octo/odd/branches/main": `{"commit":{}}`,
			},
		},
		{
			name:     "tree call fails",
			fullName: "octo/demo",
			routes: map[string]string{
				"/repos/octo/demo":               `{"default_branch":"main"}`,
				"/repos/octo/demo/branches/main": `{"commit":{"sha":"abc"}}`,
			},
		},
		{
			name:     "malformed name",
			fullName: "no-slash",
			routes:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newFakeGitHub(t, tt.routes)

			paths, err := newTestClient(srv).GetFileTree(t.Context(), "gho_abc", tt.fullName)
			assert.ErrorIs(t, err, apperror.ErrUpstreamRepo)
			assert.Nil(t, paths)
		})
	}
}
