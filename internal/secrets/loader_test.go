package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("  from-file\n"), 0o600))
	emptyFile := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(emptyFile, []byte("\n"), 0o600))

	t.Setenv("CV_REFINER_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "CV_REFINER_TEST_KEY"}, want: "from-file"},
		{name: "value before env", src: Source{Value: " inline ", Env: "CV_REFINER_TEST_KEY"}, want: "inline"},
		{name: "env fallback", src: Source{Env: "CV_REFINER_TEST_KEY"}, want: "from-env"},
		{name: "empty file", src: Source{Name: "api key", File: emptyFile, Value: "inline"}, wantErr: `api key file "` + emptyFile + `" is empty`},
		{name: "missing file", src: Source{File: filepath.Join(dir, "missing")}, wantErr: "reading secret from file"},
		{name: "unset env", src: Source{Name: "openrouter api key", Env: "CV_REFINER_TEST_UNSET"}, wantErr: "openrouter api key is not configured (set CV_REFINER_TEST_UNSET)"},
		{name: "nothing", src: Source{}, wantErr: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptional(t *testing.T) {
	got, err := Optional(Source{Name: "github token", Env: "CV_REFINER_TEST_UNSET"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Optional(Source{File: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
