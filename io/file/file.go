// Package file provides the filesystem helpers shared by every tpkm
// component that touches the user's home directory. Wallet and network
// profile files hold key material and endpoints, so directories are
// created 0700 and files written 0600, and helpers refuse to reuse
// paths that exist with looser permissions.
package file

import (
	"io"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DirPerms are the permissions applied to every directory tpkm creates
	// under the user's home.
	DirPerms = os.FileMode(0700)
	// FilePerms are the permissions applied to every file tpkm writes
	// under the user's home.
	FilePerms = os.FileMode(0600)
)

// FileExists returns true if a file exists (and is not a directory) at path.
func FileExists(filename string) bool {
	filePath, err := ExpandPath(filename)
	if err != nil {
		return false
	}
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) || info == nil {
		return false
	}
	return !info.IsDir()
}

// HasDir checks whether a directory exists at the given path.
func HasDir(dirPath string) (bool, error) {
	fullPath, err := ExpandPath(dirPath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// MkdirAll creates a directory (and any missing parents) with tpkm's
// standard 0700 permissions. If the directory already exists with looser
// permissions the call fails rather than silently widening exposure.
func MkdirAll(dirPath string) error {
	expanded, err := ExpandPath(dirPath)
	if err != nil {
		return err
	}
	exists, err := HasDir(expanded)
	if err != nil {
		return err
	}
	if exists {
		info, err := os.Stat(expanded)
		if err != nil {
			return err
		}
		if info.Mode().Perm() != DirPerms {
			return errors.Errorf("dir %s already exists without proper 0700 permissions", expanded)
		}
	}
	return os.MkdirAll(expanded, DirPerms)
}

// WriteFile writes data to a file with tpkm's standard 0600 permissions,
// refusing to overwrite a file that exists with looser permissions.
func WriteFile(fileName string, data []byte) error {
	expanded, err := ExpandPath(fileName)
	if err != nil {
		return err
	}
	if FileExists(expanded) {
		info, err := os.Stat(expanded)
		if err != nil {
			return err
		}
		if info.Mode() != FilePerms {
			return errors.Errorf("file %s already exists without proper 0600 permissions", expanded)
		}
	}
	return os.WriteFile(expanded, data, FilePerms)
}

// ReadFileAsBytes expands a file name's absolute path and reads it.
func ReadFileAsBytes(filename string) ([]byte, error) {
	filePath, err := ExpandPath(filename)
	if err != nil {
		return nil, errors.Wrap(err, "could not determine absolute path of file")
	}
	return os.ReadFile(filepath.Clean(filePath))
}

// CopyFile copies a file from src to dst, preserving tpkm's 0600 mode on
// the destination.
func CopyFile(src, dst string) error {
	if !FileExists(src) {
		return errors.Errorf("file %s does not exist", src)
	}
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = source.Close()
	}()
	target, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerms)
	if err != nil {
		return err
	}
	defer func() {
		_ = target.Close()
	}()
	_, err = io.Copy(target, source)
	return err
}

// ExpandPath expands a file path:
// 1. replaces a leading tilde with the user's home directory,
// 2. expands embedded environment variables,
// 3. cleans the result, e.g. /a/b/../c -> /a/c.
// It has limitations, e.g. ~someuser/tmp is not expanded.
func ExpandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Abs(path.Clean(os.ExpandEnv(p)))
}

// HomeDir returns the home directory of the current user.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
