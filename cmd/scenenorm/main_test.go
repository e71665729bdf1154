package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenenorm/internal/batch"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return root
}

func readManifest(t *testing.T, path string) []batch.ManifestEntry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []batch.ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestRunConvertsTree(t *testing.T) {
	src := writeTree(t, map[string]string{
		"scene/box.brs":  "3\n0 0 0\n1 0 0\n0 1 0\n1\n0 1 2\n0\n",
		"scene/view.cam": "Camera\neye 0 0 5\nenddef\n",
		"scene/skip.txt": "ignored",
	})
	dst := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", src, "-dest", dst, "-workers", "2", "-preview", "-preview-format", "tga"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.FileExists(t, filepath.Join(dst, "scene", "box.brs"))
	assert.FileExists(t, filepath.Join(dst, "scene", "box.preview.tga"))
	assert.FileExists(t, filepath.Join(dst, "scene", "view.cam"))
	assert.NoFileExists(t, filepath.Join(dst, "scene", "skip.txt"))
	assert.Contains(t, stdout.String(), "Converted: 2/2")
	assert.Contains(t, stderr.String(), "skip.txt")

	entries := readManifest(t, filepath.Join(dst, "manifest.json"))
	require.Len(t, entries, 2)
	assert.Equal(t, "scene/box.brs", entries[0].Source)
	assert.Equal(t, "scene/box.preview.tga", entries[0].Preview)
}

func TestRunReportsFailures(t *testing.T) {
	src := writeTree(t, map[string]string{
		"good.cam": "1 2 3\n",
		"bad.brs":  "4\n0 0 0\n",
	})
	dst := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", src, "-dest", dst, "-log-format", "json"}, &stdout, &stderr)

	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.FileExists(t, filepath.Join(dst, "good.cam"))
	assert.NoFileExists(t, filepath.Join(dst, "bad.brs"))
	assert.Contains(t, stderr.String(), `"level":"ERROR"`)

	entries := readManifest(t, filepath.Join(dst, "manifest.json"))
	require.Len(t, entries, 2)
	assert.Equal(t, "bad.brs", entries[0].Source)
	assert.NotEmpty(t, entries[0].Error)
	assert.Empty(t, entries[1].Error)
}

func TestRunConfigFile(t *testing.T) {
	src := writeTree(t, map[string]string{"view.cam": "1 2 3\n"})
	dst := filepath.Join(t.TempDir(), "from-config")
	cfgPath := filepath.Join(t.TempDir(), "scenenorm.json")
	cfgBody, err := json.Marshal(map[string]any{"source_dir": src, "dest_dir": dst, "manifest": "index.json"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, cfgBody, 0644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", cfgPath}, &stdout, &stderr))
	assert.FileExists(t, filepath.Join(dst, "view.cam"))
	assert.FileExists(t, filepath.Join(dst, "index.json"))
}

func TestRunUsageErrors(t *testing.T) {
	var exitErr *exitError
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-nope"}, &stdout, &stderr)
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)

	err = run(context.Background(), nil, &stdout, &stderr)
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)

	src := t.TempDir()
	err = run(context.Background(), []string{"-source", src, "-preview-format", "gif"}, &stdout, &stderr)
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)

	err = run(context.Background(), []string{"-source", src, "-encoding", "no-such-charset"}, &stdout, &stderr)
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}
