package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoad_MergesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
parse:
  accept_latin1: true
serialize:
  compact: true
  encoding: UTF-16LE
  padding: 512
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Parse.AcceptLatin1)
	assert.Equal(t, ".xmpstore", cfg.Store.Path, "unset keys keep defaults")
	assert.Equal(t, "info", cfg.LogLevel)

	opts, err := cfg.SerializeOptions()
	require.NoError(t, err)
	assert.True(t, opts.UseCompactFormat)
	assert.Equal(t, xmp.EncodingUTF16LE, opts.Encoding)
	assert.Equal(t, 512, opts.Padding)

	assert.True(t, cfg.ParseOptions().AcceptLatin1)
}

func TestLoad_InvalidEncoding(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("serialize:\n  encoding: EBCDIC\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, xmp.KindBadOptions, xmp.KindOf(err))
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("parse: [unclosed"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Store.Path = "/var/lib/xmp"
	cfg.Serialize.Sort = true
	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	env := "XMPTOOL_STORE=/srv/packets\nXMPTOOL_LOG_LEVEL=warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))
	t.Setenv("XMPTOOL_LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(dir))
	assert.Equal(t, "/srv/packets", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.LogLevel, "the process environment wins over .env")

	cfg = Default()
	require.NoError(t, cfg.ApplyEnv(t.TempDir()))
	assert.Equal(t, ".xmpstore", cfg.Store.Path)
}
