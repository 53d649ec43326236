// Package crate reads .crate archives (gzip-compressed tarballs) and
// compares the file contents of two archives under a canonicalization and
// ignore-list policy.
package crate

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// Archive is a .crate file on disk, either downloaded from the registry or
// produced by a local build.
type Archive struct {
	path string
}

// New returns an Archive for the file at path.
func New(path string) *Archive {
	return &Archive{path: path}
}

// Path returns the archive's location on disk.
func (a *Archive) Path() string { return a.path }

// SHA256 computes the hex digest over the raw, undecompressed archive
// bytes. This is what Cargo records as the lock file checksum.
func (a *Archive) SHA256() (string, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// errStopWalk aborts a walk early without reporting an error.
var errStopWalk = errors.New("stop walk")

// walk streams every regular-file entry of the archive through fn exactly
// once. The reader passed to fn is only valid for the duration of the call.
func (a *Archive) walk(fn func(name string, r io.Reader) error) error {
	f, err := os.Open(a.path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", a.path, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", a.path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(hdr.Name, tr); err != nil {
			if errors.Is(err, errStopWalk) {
				return nil
			}
			return err
		}
	}
}
