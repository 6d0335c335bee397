package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = `# id	neighbors
1	10:1 20:1
2	10:1
3	30:1
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "in.tsv")
	require.NoError(t, os.WriteFile(path, []byte(sampleTSV), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "simmat "+version+"\n", out)
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir)
	src := filepath.Join(dir, "a.smx")
	tp := filepath.Join(dir, "t.smx")
	sim := filepath.Join(dir, "s.smx")
	blobs := filepath.Join(dir, "blobs")

	out, err := execute(t, "build", in, src)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 rows")

	out, err = execute(t, "inspect", src, "--verify", "--dump", "-1", "--windows")
	require.NoError(t, err)
	assert.Contains(t, out, "checksum")
	assert.Contains(t, out, "window 0:")
	for _, prefix := range []string{"1\t10:", "2\t10:", "3\t30:"} {
		assert.Contains(t, out, prefix)
	}

	out, err = execute(t, "inspect", src, "--dump", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\t10:"))

	out, err = execute(t, "transpose", src, tp, "--memory-budget", "16")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 columns (4 entries)")

	out, err = execute(t, "similarity", src, sim, "--transposed", tp, "--k", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 rows (1 empty)")

	out, err = execute(t, "inspect", sim, "--row", "1", "--row", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "1\t2:0.")
	assert.Contains(t, out, "\n3\n")

	out, err = execute(t, "publish", src, "mats/a.smx", "--codec", "lz4", "--store-path", blobs)
	require.NoError(t, err)
	assert.Contains(t, out, "published mats/a.smx")

	out, err = execute(t, "list", "mats/", "--store-path", blobs)
	require.NoError(t, err)
	assert.Equal(t, "mats/a.smx\n", out)

	restored := filepath.Join(dir, "restored.smx")
	_, err = execute(t, "fetch", "mats/a.smx", restored, "--store-path", blobs)
	require.NoError(t, err)

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSimilarityPipeline(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.smx")
	_, err := execute(t, "build", writeSample(t, dir), src)
	require.NoError(t, err)

	kept := filepath.Join(dir, "kept.smx")
	out, err := execute(t, "similarity", src, filepath.Join(dir, "s.smx"), "--keep-transpose", kept, "--min-score", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 rows (1 empty)")
	assert.FileExists(t, kept)

	_, err = execute(t, "similarity", src, filepath.Join(dir, "s2.smx"), "--k", "0")
	assert.Error(t, err)
}

func TestBuildFromStdin(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.smx")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("7\t1:0.5\n"))
	cmd.SetArgs([]string{"build", "-", dst})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "wrote 1 rows")
}

func TestBuildRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.tsv")
	dst := filepath.Join(dir, "a.smx")
	require.NoError(t, os.WriteFile(in, []byte("1\t1:0.5\n1\t2:0.5\n"), 0o644))

	_, err := execute(t, "build", in, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.NoFileExists(t, dst)
}

func TestInspectMissingRow(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.smx")
	_, err := execute(t, "build", writeSample(t, dir), src)
	require.NoError(t, err)

	_, err = execute(t, "inspect", src, "--row", "42")
	assert.ErrorContains(t, err, "row 42 not found")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	blobs := filepath.Join(dir, "from-config")
	cfgPath := filepath.Join(dir, "simmat.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
log:
  level: warn
  format: json
store:
  type: local
  path: `+blobs+`
`), 0o644))

	src := filepath.Join(dir, "a.smx")
	_, err := execute(t, "build", writeSample(t, dir), src)
	require.NoError(t, err)

	_, err = execute(t, "publish", src, "a.smx", "--config", cfgPath, "--codec", "none")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(blobs, "a.smx"))
}

func TestConfigEnv(t *testing.T) {
	dir := t.TempDir()
	blobs := filepath.Join(dir, "from-env")
	require.NoError(t, os.MkdirAll(blobs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blobs, "x.smx"), []byte("x"), 0o644))
	t.Setenv("SIMMAT_STORE_PATH", blobs)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "x.smx\n", out.String())
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "list", "--config", filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = execute(t, "list", "--store", "ftp")
	assert.ErrorContains(t, err, "unknown store type")

	_, err = execute(t, "list", "--log-format", "xml", "--store-path", dir)
	assert.ErrorContains(t, err, "unknown log format")

	_, err = execute(t, "publish", "a.smx", "b", "--codec", "brotli", "--store-path", dir)
	assert.ErrorContains(t, err, "unknown codec")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "local", cfg.Store.Type)
	assert.Equal(t, "blobs", cfg.Store.Path)
	assert.True(t, cfg.Store.Secure)
	assert.Zero(t, cfg.Resources.MemoryLimit)
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = parseLevel("loud")
	assert.Error(t, err)
}
