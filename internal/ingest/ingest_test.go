package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/cv-refiner/internal/cv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const posting = `<html><head><title>Jobs</title><style>.a{color:red}</style></head>
<body>
<nav>Home</nav>
<header>Acme careers</header>
<div class="job-description">
  <h1>Senior Go Engineer</h1>
  <p>We build   platforms.</p>
  <ul><li>Go</li><li>Kubernetes</li></ul>
  <p>Apply</p>
</div>
<footer>Copyright</footer>
<script>var x = 1;</script>
</body></html>`

func TestExtractMainText(t *testing.T) {
	t.Parallel()

	text, err := ExtractMainText(posting)
	require.NoError(t, err)
	assert.Equal(t, "# Senior Go Engineer\n\nWe build platforms.\n- Go\n- Kubernetes", text)
}

func TestExtractMainTextFallsBackToBody(t *testing.T) {
	t.Parallel()

	text, err := ExtractMainText(`<html><body><div>Plain text only here</div></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Plain text only here", text)
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b\n\nc", CleanText("  a   b\n\n \n\n\nc  "))
	assert.Empty(t, CleanText(" \n\n "))
}

func TestLoadURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/job":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(posting))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("Go   engineer\n\n\n\nRemote"))
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	l := New(nil)

	got, err := l.Load(context.Background(), srv.URL+"/job")
	require.NoError(t, err)
	assert.Equal(t, KindURL, got.Kind)
	assert.Contains(t, got.Text, "# Senior Go Engineer")

	got, err = l.Load(context.Background(), srv.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "Go engineer\n\nRemote", got.Text)

	_, err = l.Load(context.Background(), srv.URL+"/empty")
	require.ErrorIs(t, err, ErrNoText)

	_, err = l.Load(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := New(nil)

	md := filepath.Join(dir, "jd.md")
	require.NoError(t, os.WriteFile(md, []byte("# Go Engineer\n"), 0o600))
	got, err := l.Load(context.Background(), md)
	require.NoError(t, err)
	assert.Equal(t, &Content{Text: "# Go Engineer\n", Kind: KindFile}, got)

	doc := &cv.CV{Name: "Ada Lovelace", Summary: []string{"Engineer"}}
	jsonPath := filepath.Join(dir, "cv.json")
	require.NoError(t, doc.Save(jsonPath))
	got, err = l.Load(context.Background(), jsonPath)
	require.NoError(t, err)
	assert.Equal(t, doc.PlainText(), got.Text)

	_, err = l.Load(context.Background(), filepath.Join(dir, "cv.pdf"))
	require.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = l.Load(context.Background(), filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("https://example.com/job"))
	assert.True(t, IsURL("http://example.com"))
	assert.False(t, IsURL("ftp://example.com"))
	assert.False(t, IsURL("jd.md"))
}
