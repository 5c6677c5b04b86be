package github

import (
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(token, nil)
	c.APIURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestReadmeRaw(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/spigell/kube-tool/readme", r.URL.Path)
		assert.Equal(t, rawAccept, r.Header.Get("Accept"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("# kube-tool\nA CLI."))
		_ = gz.Close()
	}, "secret")

	got, err := c.Readme(context.Background(), "spigell/kube-tool")
	require.NoError(t, err)
	assert.Equal(t, "# kube-tool\nA CLI.", got)
}

func TestReadmeJSONPayload(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		encoded := base64.StdEncoding.EncodeToString([]byte("# Encoded readme"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content":  encoded[:8] + "\n" + encoded[8:],
			"encoding": "base64",
		})
	}, "")

	got, err := c.Readme(context.Background(), "owner/repo")
	require.NoError(t, err)
	assert.Equal(t, "# Encoded readme", got)
}

func TestReadmeErrors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/owner/missing/readme" {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}, "")

	_, err := c.Readme(context.Background(), "owner/missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.Readme(context.Background(), "owner/broken")
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusInternalServerError, status.Code)

	for _, repo := range []string{"", "owner", "/repo", "owner/", "a/b/c"} {
		_, err = c.Readme(context.Background(), repo)
		assert.Error(t, err, repo)
	}
}

func TestDownloadReadmes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("readme of " + r.URL.Path))
	}, "")

	dir := filepath.Join(t.TempDir(), "readmes")
	paths, err := c.DownloadReadmes(context.Background(), []string{"a/one", " ", "b/two"}, dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a__one__README.md"),
		filepath.Join(dir, "b__two__README.md"),
	}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "readme of /repos/b/two/readme", string(data))
}

func TestUserReposPaginates(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/spigell/repos", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		var repos []repository
		switch r.URL.Query().Get("page") {
		case "1":
			for i := 0; i < perPage; i++ {
				repos = append(repos, repository{FullName: fmt.Sprintf("spigell/r%d", i), Fork: i%2 == 1})
			}
		case "2":
			repos = []repository{{FullName: "spigell/last"}, {FullName: "spigell/old", Archived: true}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(repos)
	}, "")

	names, err := c.UserRepos(context.Background(), "spigell")
	require.NoError(t, err)
	assert.Len(t, names, perPage/2+1)
	assert.Equal(t, "spigell/r0", names[0])
	assert.Equal(t, "spigell/last", names[len(names)-1])
}
