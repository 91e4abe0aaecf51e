package file_test

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tacopkm/tpkm/io/file"
)

func TestPathExpansion(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)
	tests := map[string]string{
		"/home/someuser/tmp": "/home/someuser/tmp",
		"~/tmp":              usr.HomeDir + "/tmp",
		"$TPKMXXX/a/b":       "/tmp/a/b",
		"/a/b/":              "/a/b",
	}
	require.NoError(t, os.Setenv("TPKMXXX", "/tmp"))
	for test, expected := range tests {
		expanded, err := file.ExpandPath(test)
		require.NoError(t, err)
		assert.Equal(t, expected, expanded)
	}
}

func TestMkdirAll_AlreadyExists_WrongPermissions(t *testing.T) {
	dirName := filepath.Join(t.TempDir(), "somedir")
	require.NoError(t, os.MkdirAll(dirName, os.ModePerm))
	err := file.MkdirAll(dirName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists without proper 0700 permissions")
}

func TestMkdirAll_AlreadyExists_OK(t *testing.T) {
	dirName := filepath.Join(t.TempDir(), "somedir")
	require.NoError(t, os.MkdirAll(dirName, file.DirPerms))
	assert.NoError(t, file.MkdirAll(dirName))
}

func TestMkdirAll_OK(t *testing.T) {
	dirName := filepath.Join(t.TempDir(), "somedir")
	require.NoError(t, file.MkdirAll(dirName))
	exists, err := file.HasDir(dirName)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWriteFile_AlreadyExists_WrongPermissions(t *testing.T) {
	dirName := t.TempDir()
	someFileName := filepath.Join(dirName, "somefile.txt")
	require.NoError(t, os.WriteFile(someFileName, []byte("hi"), os.ModePerm))
	err := file.WriteFile(someFileName, []byte("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists without proper 0600 permissions")
}

func TestWriteFile_OK(t *testing.T) {
	dirName := t.TempDir()
	someFileName := filepath.Join(dirName, "somefile.txt")
	require.NoError(t, file.WriteFile(someFileName, []byte("hi")))
	assert.True(t, file.FileExists(someFileName))
	read, err := file.ReadFileAsBytes(someFileName)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), read)
}

func TestCopyFile(t *testing.T) {
	fName := filepath.Join(t.TempDir(), "testfile")
	require.NoError(t, os.WriteFile(fName, []byte{1, 2, 3}, file.FilePerms))
	require.NoError(t, file.CopyFile(fName, fName+"copy"))
	copied, err := file.ReadFileAsBytes(fName + "copy")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, copied)
}

func TestFileExists_OnDirectory(t *testing.T) {
	assert.False(t, file.FileExists(t.TempDir()))
}
