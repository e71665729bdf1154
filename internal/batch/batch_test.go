package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenenorm/internal/convert"
	"scenenorm/internal/ctxlog"
	"scenenorm/internal/preview"
)

const (
	mesh = `3
0 0 0
1 0 0
0 1 0
1
0 1 2
parts
0
`
	materials = `Attr one
kd 0.5
ks 0.1
gs 10
ka 0.2
color 255 0 0
kts 0
eta 1
ktd 0
enddef
`
	camera = `Camera
eye 0 0 5
enddef
`
	badMesh = "2\n0 0 0\n"
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

func testContext(buf *bytes.Buffer) context.Context {
	logger, _ := ctxlog.New(buf, "text", "debug")
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestDiscover(t *testing.T) {
	root := writeTree(t, map[string]string{
		"room/room.brs":   mesh,
		"room/room.atr":   materials,
		"view.cam":        camera,
		"notes.txt":       "hello",
		"out/stale.brs":   mesh,
		"room/README.md":  "",
		"lights/main.lgt": "",
	})

	var logs bytes.Buffer
	jobs, err := Discover(testContext(&logs), root, filepath.Join(root, "out"))
	require.NoError(t, err)

	var rels []string
	for _, j := range jobs {
		rels = append(rels, filepath.ToSlash(j.Rel))
	}
	assert.Equal(t, []string{"lights/main.lgt", "room/room.atr", "room/room.brs", "view.cam"}, rels)
	assert.Equal(t, convert.Light, jobs[0].Kind)
	assert.Contains(t, logs.String(), "notes.txt")
	assert.Contains(t, logs.String(), "README.md")
}

func TestRunMirrorsLayoutAndIsolatesFailures(t *testing.T) {
	src := writeTree(t, map[string]string{
		"a/room.brs":   mesh,
		"a/room.atr":   materials,
		"b/broken.brs": badMesh,
		"view.cam":     camera,
	})
	dst := t.TempDir()

	var logs bytes.Buffer
	ctx := testContext(&logs)
	jobs, err := Discover(ctx, src, dst)
	require.NoError(t, err)
	require.Len(t, jobs, 4)

	results := Run(ctx, Config{SourceDir: src, DestDir: dst, Workers: 2}, jobs)
	require.Len(t, results, 4)

	byRel := map[string]Result{}
	for _, r := range results {
		byRel[filepath.ToSlash(r.Source)] = r
	}

	assert.True(t, byRel["a/room.brs"].Success)
	assert.Equal(t, 4, byRel["a/room.brs"].Records)
	assert.True(t, byRel["a/room.atr"].Success)
	assert.True(t, byRel["view.cam"].Success)

	broken := byRel["b/broken.brs"]
	assert.False(t, broken.Success)
	assert.NotEmpty(t, broken.Error)
	assert.NoFileExists(t, filepath.Join(dst, "b", "broken.brs"))

	got, err := os.ReadFile(filepath.Join(dst, "a", "room.brs"))
	require.NoError(t, err)
	assert.Equal(t, "3\n0 0 0\n1 0 0\n0 1 0\n1\n0 1 2\n0\n", string(got))

	got, err = os.ReadFile(filepath.Join(dst, "view.cam"))
	require.NoError(t, err)
	assert.Equal(t, "0 0 5\n", string(got))

	assert.Contains(t, logs.String(), "Conversion failed")
	assert.Equal(t, 3, strings.Count(logs.String(), "msg=Converted"))
}

func TestRunCancelled(t *testing.T) {
	src := writeTree(t, map[string]string{"view.cam": camera})
	dst := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs, err := Discover(ctx, src, "")
	require.NoError(t, err)
	results := Run(ctx, Config{SourceDir: src, DestDir: dst, Workers: 1}, jobs)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, context.Canceled.Error(), results[0].Error)
	assert.NoFileExists(t, filepath.Join(dst, "view.cam"))
}

func TestRunPreview(t *testing.T) {
	src := writeTree(t, map[string]string{
		"room.brs":  mesh,
		"room.atr":  materials,
		"plain.brs": mesh,
	})
	dst := t.TempDir()

	ctx := testContext(&bytes.Buffer{})
	jobs, err := Discover(ctx, src, "")
	require.NoError(t, err)

	cfg := Config{
		SourceDir: src,
		DestDir:   dst,
		Workers:   1,
		Preview:   &preview.Options{Format: "bmp", Size: 32, Supersample: 2},
	}
	results := Run(ctx, cfg, jobs)
	for _, r := range results {
		require.True(t, r.Success, r.Error)
		if r.Kind == convert.Mesh {
			assert.FileExists(t, r.Preview)
			assert.Empty(t, r.Warnings)
		} else {
			assert.Empty(t, r.Preview)
		}
	}
	assert.FileExists(t, filepath.Join(dst, "room.preview.bmp"))
	assert.FileExists(t, filepath.Join(dst, "plain.preview.bmp"))
}

func TestWriteManifest(t *testing.T) {
	dst := t.TempDir()
	results := []Result{
		{
			Source:   "a/room.atr",
			Output:   filepath.Join(dst, "a", "room.atr"),
			Kind:     convert.Material,
			Records:  2,
			Warnings: []string{"line 3: ks: missing"},
			Success:  true,
		},
		{
			Source: "b/broken.brs",
			Output: filepath.Join(dst, "b", "broken.brs"),
			Kind:   convert.Mesh,
			Error:  "brs: truncated",
		},
	}

	path := filepath.Join(dst, "manifest.json")
	require.NoError(t, WriteManifest(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))

	require.Len(t, entries, 2)
	assert.Equal(t, ManifestEntry{
		Source:   "a/room.atr",
		Output:   "a/room.atr",
		Kind:     "atr",
		Records:  2,
		Warnings: []string{"line 3: ks: missing"},
	}, entries[0])
	assert.Equal(t, ManifestEntry{
		Source: "b/broken.brs",
		Kind:   "brs",
		Error:  "brs: truncated",
	}, entries[1])
}
