package pkgjson

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func seed(t *testing.T, fsys afero.Fs, dir, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(dir, 0755))
	require.NoError(t, afero.WriteFile(fsys, Path(dir), []byte(content), 0644))
}

func read(t *testing.T, fsys afero.Fs, dir string) []byte {
	t.Helper()
	data, err := afero.ReadFile(fsys, Path(dir))
	require.NoError(t, err)
	return data
}

func TestApplyAddsDependencies(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/web", `{"name":"web","dependencies":{"react":"^19.0.0"}}`)

	changed, err := Apply(fsys, "/web", Edit{
		Dependencies:    []string{"ai", "@ai-sdk/react"},
		DevDependencies: []string{"@vite-pwa/assets-generator"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ai", "@ai-sdk/react", "@vite-pwa/assets-generator"}, changed)

	data := read(t, fsys, "/web")
	assert.Equal(t, "^19.0.0", gjson.GetBytes(data, "dependencies.react").String())
	assert.Equal(t, versions["ai"], gjson.GetBytes(data, "dependencies.ai").String())
	assert.Equal(t, versions["@ai-sdk/react"], gjson.GetBytes(data, "dependencies."+gjson.Escape("@ai-sdk/react")).String())
	assert.True(t, gjson.GetBytes(data, "devDependencies").IsObject())
}

func TestApplyPreservesKeyOrder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/srv", `{"name":"server","type":"module","scripts":{"dev":"tsx watch"},"dependencies":{"hono":"^4.8.2"}}`)

	_, err := Apply(fsys, "/srv", Edit{Dependencies: []string{"stripe"}})
	require.NoError(t, err)

	var keys []string
	gjson.ParseBytes(read(t, fsys, "/srv")).ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	assert.Equal(t, []string{"name", "type", "scripts", "dependencies"}, keys)
}

func TestApplyNeverDowngrades(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/app", `{"dependencies":{"zod":"^9.0.0","ai":"^1.0.0","stripe":"workspace:*"}}`)

	changed, err := Apply(fsys, "/app", Edit{Dependencies: []string{"zod", "ai", "stripe"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ai"}, changed)

	data := read(t, fsys, "/app")
	assert.Equal(t, "^9.0.0", gjson.GetBytes(data, "dependencies.zod").String())
	assert.Equal(t, versions["ai"], gjson.GetBytes(data, "dependencies.ai").String())
	assert.Equal(t, "workspace:*", gjson.GetBytes(data, "dependencies.stripe").String())
}

func TestApplyKeepsExistingSection(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/app", `{"dependencies":{"husky":"^8.0.0"}}`)

	_, err := Apply(fsys, "/app", Edit{DevDependencies: []string{"husky"}})
	require.NoError(t, err)

	data := read(t, fsys, "/app")
	assert.Equal(t, versions["husky"], gjson.GetBytes(data, "dependencies.husky").String())
	assert.False(t, gjson.GetBytes(data, "devDependencies.husky").Exists())
}

func TestApplyIsIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/app", `{"name":"app"}`)
	edit := Edit{
		DevDependencies: []string{"turbo"},
		Scripts:         map[string]string{"dev": "turbo dev", "build": "turbo build"},
		Fields:          map[string]string{"lint-staged": `{"*.ts":["biome check --write"]}`},
	}

	_, err := Apply(fsys, "/app", edit)
	require.NoError(t, err)
	first := read(t, fsys, "/app")

	changed, err := Apply(fsys, "/app", edit)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, string(first), string(read(t, fsys, "/app")))
}

func TestApplyKeepsExistingScripts(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/app", `{"scripts":{"check":"eslint ."}}`)

	_, err := Apply(fsys, "/app", Edit{
		Scripts:     map[string]string{"check": "biome check --write .", "prepare": "husky"},
		ScriptOrder: []string{"check", "prepare"},
	})
	require.NoError(t, err)

	data := read(t, fsys, "/app")
	assert.Equal(t, "eslint .", gjson.GetBytes(data, "scripts.check").String())
	assert.Equal(t, "husky", gjson.GetBytes(data, "scripts.prepare").String())
}

func TestApplyMissingManifest(t *testing.T) {
	_, err := Apply(afero.NewMemMapFs(), "/apps/native", Edit{Dependencies: []string{"ai"}})
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestApplyUnknownPackage(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/app", `{}`)

	_, err := Apply(fsys, "/app", Edit{Dependencies: []string{"left-pad"}})
	assert.True(t, errors.Is(err, ErrUnknownPackage))
}

func TestApplyRejectsInvalidJSON(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "/app", `{"name":`)

	_, err := Apply(fsys, "/app", Edit{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestCreate(t *testing.T) {
	fsys := afero.NewMemMapFs()

	m, err := Create(fsys, "/apps/docs", "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", m.Name())

	data := read(t, fsys, "/apps/docs")
	assert.True(t, gjson.GetBytes(data, "private").Bool())

	// A second call leaves the existing manifest alone.
	seed(t, fsys, "/apps/docs", `{"name":"custom"}`)
	m, err = Create(fsys, "/apps/docs", "docs")
	require.NoError(t, err)
	assert.Equal(t, "custom", m.Name())
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		want, have string
		expected   bool
	}{
		{"^2.0.0", "^1.9.9", true},
		{"^1.0.0", "^1.0.0", false},
		{"^1.0.0", "~2.0.0", false},
		{"^1.0.0", "latest", false},
		{"^1.0.0", "catalog:", false},
		{">=1.2", "1.1.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.want+"_over_"+tt.have, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNewer(tt.want, tt.have))
		})
	}
}
