package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstack-labs/tstack/internal/stack"
)

func TestSetAndReload(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := New(fsys, "/home/u/.tstack/config.yaml")
	require.NoError(t, s.Load())

	require.NoError(t, s.Set(KeyPackageManager, "pnpm"))
	require.NoError(t, s.Set(KeyInstall, "true"))

	reloaded := New(fsys, "/home/u/.tstack/config.yaml")
	require.NoError(t, reloaded.Load())
	assert.Equal(t, "pnpm", reloaded.Get(KeyPackageManager))

	d := reloaded.Defaults()
	assert.Equal(t, stack.PackageManagerPNPM, d.PackageManager)
	require.NotNil(t, d.Install)
	assert.True(t, *d.Install)
	assert.Nil(t, d.Git)
}

func TestSetRejectsUnknownKeyAndBadValues(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/c/config.yaml")

	err := s.Set("mirror_url", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")

	assert.Error(t, s.Set(KeyPackageManager, "yarn"))
	assert.Error(t, s.Set(KeyInstall, "maybe"))
	assert.Error(t, s.Set(KeyLogLevel, "loud"))
}

func TestLoadMissingFile(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/nowhere/config.yaml")
	require.NoError(t, s.Load())
	assert.Equal(t, "", s.Get(KeyLogLevel))
	assert.Equal(t, Defaults{}, s.Defaults())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TSTACK_PACKAGE_MANAGER", "bun")
	s := New(afero.NewMemMapFs(), "/c/config.yaml")
	require.NoError(t, s.Load())
	assert.Equal(t, stack.PackageManagerBun, s.Defaults().PackageManager)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{KeyGit, KeyInstall, KeyLogLevel, KeyPackageManager}, Keys())
}
