package tailoring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/cv-refiner/internal/cv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	response string
	err      error
	system   string
	prompt   string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.system = system
	s.prompt = prompt
	return s.response, s.err
}

func (s *stubGenerator) Model() string { return "stub" }

func testCV() *cv.CV {
	return &cv.CV{
		Name:    "Jane Doe",
		Title:   "Platform Engineer",
		Contact: cv.Contact{Email: "jane@example.com"},
		Summary: []string{"Builds platforms."},
		Experience: []cv.Role{
			{Company: "Acme", Role: "SRE", Dates: "2020 - 2024", Bullets: []string{"Ran Kubernetes"}},
		},
		Projects: []cv.Project{{Name: "kube-tool", Bullets: []string{"CLI"}}},
		Skills:   cv.Skills{Groups: []cv.SkillGroup{{Name: "Languages", Items: []string{"Go"}}}},
	}
}

func TestTailorReturnsModelObject(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "Here you go:\n{\"name\": \"Jane Doe\", \"summary\": [\"New\"]}\nThanks"}
	tailor := New(gen, nil)

	out, err := tailor.Tailor(context.Background(), testCV(), map[string]string{"b.md": "beta", "a.md": "alpha"}, "  emphasize Go ")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", out["name"])
	assert.True(t, strings.HasPrefix(gen.system, "You are a world-class technical resume writer"))
	assert.Contains(t, gen.prompt, "User Guidance (optional; apply if compatible with critical rules):\nemphasize Go")
	assert.Contains(t, gen.prompt, `"name":"Jane Doe"`)
	assert.Contains(t, gen.prompt, "Experience entries: 1")
	assert.Less(t, strings.Index(gen.prompt, "### a.md\nalpha"), strings.Index(gen.prompt, "### b.md\nbeta"))
	assert.NotContains(t, gen.prompt, "{{")
}

func TestTailorPropagatesFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("timeout")
	_, err := New(&stubGenerator{err: boom}, nil).Tailor(context.Background(), testCV(), nil, "")
	require.ErrorIs(t, err, boom)

	_, err = New(&stubGenerator{response: "no json here"}, nil).Tailor(context.Background(), testCV(), nil, "")
	require.ErrorIs(t, err, cv.ErrNoJSONObject)

	_, err = New(nil, nil).Tailor(context.Background(), testCV(), nil, "")
	require.Error(t, err)
}

func TestBuildUserPromptDefaults(t *testing.T) {
	t.Parallel()

	prompt, err := BuildUserPrompt(testCV(), nil, "")
	require.NoError(t, err)
	assert.Contains(t, prompt, "User Guidance (optional; apply if compatible with critical rules):\n(none)")
	assert.Contains(t, prompt, "(No README content provided.)")
}

func TestReadmeBlocksTrimmed(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", MaxReadmeRunes+5)
	block := readmeBlocks(map[string]string{"r.md": long})
	assert.Equal(t, "### r.md\n"+strings.Repeat("é", MaxReadmeRunes), block)
}

func TestLoadReadmes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.md"), []byte("one"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("skip"), 0o600))
	single := filepath.Join(t.TempDir(), "two.md")
	require.NoError(t, os.WriteFile(single, []byte("two"), 0o600))

	readmes, err := LoadReadmes(dir, single, " ")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"one.md": "one", "two.md": "two"}, readmes)

	_, err = LoadReadmes(filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}
