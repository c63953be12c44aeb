package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0, cfg.Index.Jobs)
	assert.Equal(t, 256, cfg.Index.MaxDiagnostics)
	assert.Equal(t, 512, cfg.Index.IndexCacheSize)
	assert.Equal(t, 8192, cfg.Index.ScopeCacheSize)
	assert.Equal(t, []string{".py", ".pyi"}, cfg.Index.Extensions)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[index]
jobs = 4
max_diagnostics = 50
extensions = [".py"]
disabled = ["SEM3013"]

[members]
helpers = ["first", "second"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Index.Jobs)
	assert.Equal(t, 50, cfg.Index.MaxDiagnostics)
	assert.Equal(t, []string{".py"}, cfg.Index.Extensions)
	// unset values keep the defaults
	assert.Equal(t, 512, cfg.Index.IndexCacheSize)
	assert.Equal(t, []string{"first", "second"}, cfg.Members["helpers"])
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[index]
jbos = 4
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[index\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[index]\njobs = 2\n")
	nested := filepath.Join(root, "pkg", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := FindManifest(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, ManifestName), path)

	projectRoot, ok, err := FindProjectRoot(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, projectRoot)
}

func TestLoadProjectConfigWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	cfg, ok, err := LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadProjectConfigFindsManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[index]\njobs = 3\n")
	nested := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, ok, err := LoadProjectConfig(nested)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, cfg.Index.Jobs)
}

func TestIsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.Disabled = []string{"SEM3013", "sem3014"}
	assert.True(t, cfg.IsDisabled("SEM3013"))
	assert.True(t, cfg.IsDisabled("SEM3014"))
	assert.False(t, cfg.IsDisabled("SEM3001"))
}
