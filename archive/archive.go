// Package archive builds and unpacks the gzipped tarballs tpkm stores on
// IPFS. Creation is deterministic: entries are walked in sorted order and
// carry fixed metadata (zeroed mtime, uid/gid 0, normalized modes), so two
// archives of identical trees are byte-identical and hash to the same CID.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "archive")

// Fixed timestamp recorded on every entry so identical trees produce
// identical archives regardless of when they were packed.
var zeroTime = time.Unix(0, 0).UTC()

const (
	regularFileMode = 0644
	executableMode  = 0755
)

// Create walks sourceDir and writes its contents as a gzipped tarball to w.
// The directory's contents sit at the archive root: no wrapping directory
// entry is emitted. Symlinks pointing outside the source tree (or unreadable
// ones) are skipped with a warning; every other failure aborts.
func Create(sourceDir string, w io.Writer) error {
	root, err := filepath.Abs(sourceDir)
	if err != nil {
		return errors.Wrapf(err, "could not resolve source directory %s", sourceDir)
	}
	info, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "could not stat source directory %s", sourceDir)
	}
	if !info.IsDir() {
		return errors.Errorf("source %s is not a directory", sourceDir)
	}

	gzw := gzip.NewWriter(w)
	tw := tar.NewWriter(gzw)

	// WalkDir visits entries in lexical order, which fixes entry order.
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     executableMode,
				ModTime:  zeroTime,
				Format:   tar.FormatPAX,
			})
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				log.WithError(err).Warnf("Skipping unreadable symlink %s", name)
				return nil
			}
			if filepath.IsAbs(target) || escapesRoot(rel, target) {
				log.Warnf("Skipping symlink %s: target %s leaves the source directory", name, target)
				return nil
			}
			if _, err := os.Stat(path); err != nil {
				log.Warnf("Symlink %s points at missing target %s", name, target)
			}
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeSymlink,
				Name:     name,
				Linkname: filepath.ToSlash(target),
				Mode:     regularFileMode,
				ModTime:  zeroTime,
				Format:   tar.FormatPAX,
			})
		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			mode := int64(regularFileMode)
			if fi.Mode()&0100 != 0 {
				mode = executableMode
			}
			if err := tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeReg,
				Name:     name,
				Size:     fi.Size(),
				Mode:     mode,
				ModTime:  zeroTime,
				Format:   tar.FormatPAX,
			}); err != nil {
				return err
			}
			f, err := os.Open(filepath.Clean(path))
			if err != nil {
				return err
			}
			_, err = io.Copy(tw, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		default:
			log.Warnf("Skipping irregular file %s", name)
			return nil
		}
	})
	if walkErr != nil {
		return errors.Wrap(walkErr, "could not archive directory")
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "could not finalize tar stream")
	}
	return errors.Wrap(gzw.Close(), "could not finalize gzip stream")
}

// Extract streams a gzipped tarball from r into targetDir, creating the
// directory and any missing parents. The pipeline never buffers the whole
// archive: gzip and tar readers feed each entry straight to disk. Entries
// that name absolute paths or traverse outside targetDir abort extraction.
func Extract(r io.Reader, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return errors.Wrapf(err, "could not create target directory %s", targetDir)
	}
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "could not open gzip stream")
	}
	defer func() {
		_ = gzr.Close()
	}()
	tr := tar.NewReader(gzr)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "could not read tar entry")
		}
		name := filepath.FromSlash(h.Name)
		if filepath.IsAbs(name) || escapesTarget(name) {
			return errors.Errorf("archive entry %q escapes the target directory", h.Name)
		}
		dest := filepath.Join(targetDir, name)

		switch h.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, fs.FileMode(h.Mode)); err != nil {
				return errors.Wrapf(err, "could not create directory %s", dest)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(h.Linkname) || escapesRoot(name, h.Linkname) {
				return errors.Errorf("archive symlink %q escapes the target directory", h.Name)
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return errors.Wrapf(err, "could not create parent of %s", dest)
			}
			if err := os.Symlink(filepath.FromSlash(h.Linkname), dest); err != nil {
				return errors.Wrapf(err, "could not create symlink %s", dest)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return errors.Wrapf(err, "could not create parent of %s", dest)
			}
			f, err := os.OpenFile(filepath.Clean(dest), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fs.FileMode(h.Mode))
			if err != nil {
				return errors.Wrapf(err, "could not create file %s", dest)
			}
			_, err = io.Copy(f, tr)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return errors.Wrapf(err, "could not write file %s", dest)
			}
		default:
			log.Warnf("Skipping unsupported archive entry type %d for %s", h.Typeflag, h.Name)
		}
	}
}

// escapesRoot reports whether a relative symlink target, resolved from the
// entry's directory, leaves the tree root.
func escapesRoot(entryRel, target string) bool {
	resolved := filepath.Join(filepath.Dir(entryRel), filepath.FromSlash(target))
	return escapesTarget(resolved)
}

func escapesTarget(rel string) bool {
	clean := filepath.Clean(rel)
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
