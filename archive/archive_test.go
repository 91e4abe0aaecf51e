package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestCreateExtract_RoundTrip(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"lib.config.json": `{"name":"mylib","version":"1.0.0"}`,
		"src/index.js":    "module.exports = 42;",
		"src/util/a.js":   "// a",
		"README.md":       "# mylib",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0755))

	var buf bytes.Buffer
	require.NoError(t, Create(src, &buf))

	dst := filepath.Join(t.TempDir(), "out", "nested")
	require.NoError(t, Extract(bytes.NewReader(buf.Bytes()), dst))

	for name, content := range map[string]string{
		"lib.config.json": `{"name":"mylib","version":"1.0.0"}`,
		"src/index.js":    "module.exports = 42;",
		"src/util/a.js":   "// a",
		"README.md":       "# mylib",
	} {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(got), name)
	}
	info, err := os.Stat(filepath.Join(dst, "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreate_NoWrappingDirectory(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})

	var buf bytes.Buffer
	require.NoError(t, Create(src, &buf))

	gzr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	tr := tar.NewReader(gzr)
	h, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "a.txt", h.Name)
}

func TestCreate_Deterministic(t *testing.T) {
	files := map[string]string{
		"z.txt":     "last",
		"a.txt":     "first",
		"dir/m.txt": "middle",
	}

	srcA := t.TempDir()
	writeTree(t, srcA, files)
	var bufA bytes.Buffer
	require.NoError(t, Create(srcA, &bufA))

	// A second tree with the same content, written later and elsewhere,
	// must archive to the exact same bytes.
	time.Sleep(10 * time.Millisecond)
	srcB := t.TempDir()
	writeTree(t, srcB, files)
	var bufB bytes.Buffer
	require.NoError(t, Create(srcB, &bufB))

	assert.Equal(t, bufA.Bytes(), bufB.Bytes())
}

func TestCreate_FixedMetadata(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})

	var buf bytes.Buffer
	require.NoError(t, Create(src, &buf))

	gzr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	tr := tar.NewReader(gzr)
	h, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, time.Unix(0, 0).UTC(), h.ModTime.UTC())
	assert.Equal(t, 0, h.Uid)
	assert.Equal(t, 0, h.Gid)
}

func TestExtract_RejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	body := []byte("owned")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     "../evil.txt",
		Size:     int64(len(body)),
		Mode:     0644,
	}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())

	dst := filepath.Join(t.TempDir(), "target")
	err = Extract(bytes.NewReader(buf.Bytes()), dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the target directory")
}

func TestExtract_Streams(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"big.bin": string(bytes.Repeat([]byte{0xAB}, 1<<20))})

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := Create(src, pw)
		_ = pw.CloseWithError(err)
		done <- err
	}()

	dst := t.TempDir()
	require.NoError(t, Extract(pr, dst))
	require.NoError(t, <-done)

	info, err := os.Stat(filepath.Join(dst, "big.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), info.Size())
}

func TestCreate_SymlinkInsideTree(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"real.txt": "content"})
	require.NoError(t, os.Symlink("real.txt", filepath.Join(src, "link.txt")))

	var buf bytes.Buffer
	require.NoError(t, Create(src, &buf))

	dst := t.TempDir()
	require.NoError(t, Extract(bytes.NewReader(buf.Bytes()), dst))
	target, err := os.Readlink(filepath.Join(dst, "link.txt"))
	require.NoError(t, err)
	assert.Equal(t, "real.txt", target)
}

func TestCreate_SymlinkEscapingTreeSkipped(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"real.txt": "content"})
	require.NoError(t, os.Symlink("../outside.txt", filepath.Join(src, "escape.txt")))

	var buf bytes.Buffer
	require.NoError(t, Create(src, &buf))

	dst := t.TempDir()
	require.NoError(t, Extract(bytes.NewReader(buf.Bytes()), dst))
	_, err := os.Lstat(filepath.Join(dst, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
