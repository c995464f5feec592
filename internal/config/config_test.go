package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/mix"
	"github.com/Rifine/smix/internal/scale"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	return Parse(args, Options{Output: io.Discard})
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(t, "0.8", "0.15", "0.05", "--mask-directories", "masks/a")
	require.NoError(t, err)

	assert.Equal(t, mix.Weight{0.8, 0.15, 0.05}, cfg.Weight())
	assert.Equal(t, "output", cfg.Output)
	assert.Equal(t, []string{"masks/a"}, cfg.MaskDirectories)
	assert.Equal(t, []float32{1}, cfg.Scales)
	assert.Equal(t, scale.Lanczos3, cfg.Filter)
	assert.False(t, cfg.Preview)
	assert.Equal(t, 256, cfg.PreviewSize)
}

func TestParseMultiValueGroups(t *testing.T) {
	cfg, err := parse(t,
		"1", "0", "0",
		"--mask-directories", "a", "b", "c",
		"--scale", "2", "0.5", "2",
		"-f", "catmull-rom",
		"-o", "out/dir",
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.MaskDirectories)
	assert.Equal(t, []float32{0.5, 1, 2}, cfg.Scales)
	assert.Equal(t, scale.CatmullRom, cfg.Filter)
	assert.Equal(t, "out/dir", cfg.Output)
}

func TestParseKeepsNegativeScales(t *testing.T) {
	cfg, err := parse(t, "--scale", "-1", "3", "--mask-directories=a", "0.2", "0.2", "0.2")
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, 1, 3}, cfg.Scales)
	assert.Equal(t, mix.Weight{0.2, 0.2, 0.2}, cfg.Weight())
}

func TestParseRepeatedFlags(t *testing.T) {
	cfg, err := parse(t, "-m=a", "-m", "b", "-s=1.5,3", "0", "0", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.MaskDirectories)
	assert.Equal(t, []float32{1, 1.5, 3}, cfg.Scales)
}

func TestParsePreviewValue(t *testing.T) {
	cfg, err := Parse([]string{"1", "1", "1", "-m", "a", "--preview", "false"}, Options{PreviewDefault: true, Output: io.Discard})
	require.NoError(t, err)
	assert.False(t, cfg.Preview)

	cfg, err = Parse([]string{"1", "1", "1", "-m", "a"}, Options{PreviewDefault: true, Output: io.Discard})
	require.NoError(t, err)
	assert.True(t, cfg.Preview)

	cfg, err = parse(t, "--preview", "1", "1", "1", "-m", "a")
	require.NoError(t, err, "a weight after --preview is not taken as its value unless it parses as bool")
	assert.True(t, cfg.Preview)
	assert.Equal(t, mix.Weight{1, 1, 1}, cfg.Weight())
}

func TestParseWeightOutOfRange(t *testing.T) {
	cases := []struct {
		args []string
		msg  string
	}{
		{[]string{"1.5", "0", "0"}, "Red weight must be in [0, 1]"},
		{[]string{"0", "-0.1", "0"}, "Green weight must be in [0, 1]"},
		{[]string{"0", "0", "2"}, "Blue weight must be in [0, 1]"},
	}
	for _, c := range cases {
		_, err := parse(t, append(c.args, "-m", "a")...)
		require.Error(t, err)
		assert.Equal(t, diagnostics.Validation, diagnostics.KindOf(err))
		assert.Contains(t, err.Error(), c.msg)
	}
}

func TestParseErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"no dirs":        {"1", "1", "1"},
		"two weights":    {"1", "1", "-m", "a"},
		"not a number":   {"x", "1", "1", "-m", "a"},
		"bad filter":     {"1", "1", "1", "-m", "a", "--filter", "box"},
		"unknown flag":   {"1", "1", "1", "-m", "a", "--nope", "x"},
		"no weights":     {"-m", "a"},
		"bad scale":      {"1", "1", "1", "-m", "a", "--scale", "big"},
		"no preview px":  {"1", "1", "1", "-m", "a", "--preview-size", "0"},
		"missing output": {"1", "1", "1", "-m", "a", "-o", ""},
	} {
		_, err := parse(t, args...)
		assert.Equal(t, diagnostics.Validation, diagnostics.KindOf(err), name)
	}
}

func TestParseHelp(t *testing.T) {
	_, err := parse(t, "-h")
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestParseConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
weights: [0.5, 0.25, 0.25]
output: from-file
mask_directories: [x, y]
scale: [2]
filter: gaussian
`), 0644))

	cfg, err := parse(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, mix.Weight{0.5, 0.25, 0.25}, cfg.Weight())
	assert.Equal(t, "from-file", cfg.Output)
	assert.Equal(t, []string{"x", "y"}, cfg.MaskDirectories)
	assert.Equal(t, []float32{1, 2}, cfg.Scales)
	assert.Equal(t, scale.Gaussian, cfg.Filter)

	cfg, err = parse(t, "--config", path, "-o", "cli", "-f", "nearest", "1", "0", "0")
	require.NoError(t, err, "explicit flags win over the file")
	assert.Equal(t, "cli", cfg.Output)
	assert.Equal(t, scale.Nearest, cfg.Filter)
	assert.Equal(t, mix.Weight{1, 0, 0}, cfg.Weight())
}

func TestParseConfigFilePreview(t *testing.T) {
	dir := t.TempDir()
	off := filepath.Join(dir, "off.yaml")
	require.NoError(t, os.WriteFile(off, []byte("preview: false\nmask_directories: [a]\nweights: [1, 1, 1]\n"), 0644))
	silent := filepath.Join(dir, "silent.yaml")
	require.NoError(t, os.WriteFile(silent, []byte("mask_directories: [a]\nweights: [1, 1, 1]\n"), 0644))

	gui := Options{PreviewDefault: true, Output: io.Discard}
	cfg, err := Parse([]string{"--config", off}, gui)
	require.NoError(t, err)
	assert.False(t, cfg.Preview, "a file can turn the preview off")

	cfg, err = Parse([]string{"--config", silent}, gui)
	require.NoError(t, err)
	assert.True(t, cfg.Preview, "a file without preview keeps the default")

	cfg, err = Parse([]string{"--config", off, "--preview=true"}, gui)
	require.NoError(t, err)
	assert.True(t, cfg.Preview, "the flag wins over the file")
}

func TestParseAllowOrigin(t *testing.T) {
	cfg, err := parse(t, "1", "1", "1", "-m", "a", "--allow-origin", "http://a.test", "--allow-origin=http://b.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
}

func TestParseConfigFileMissing(t *testing.T) {
	_, err := parse(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "1", "1", "1", "-m", "a")
	assert.Equal(t, diagnostics.IOFailure, diagnostics.KindOf(err))
}

func TestWriteConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want, err := parse(t, "0.1", "0.2", "0.3", "-m", "a", "b", "-s", "4", "-f", "bilinear", "--write-config", path)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSplitArgs(t *testing.T) {
	flags, pos := splitArgs([]string{"0.1", "--scale", "-2", "3", "-o", "dir", "0.2", "--", "-0.5"})
	assert.Equal(t, []string{"-scale=-2", "-scale=3", "-o", "dir"}, flags)
	assert.Equal(t, []string{"0.1", "0.2", "-0.5"}, pos)
}
