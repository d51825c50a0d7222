// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/thediveo/lxkns/log"
)

// MaxCollisions limits how many alternative names Save tries.
const MaxCollisions = 1000

// ErrInvalidName signals an artifact name that isn't a plain file name.
var ErrInvalidName = errors.New("invalid artifact name")

// ErrNotFound signals an unknown artifact.
var ErrNotFound = errors.New("artifact not found")

// Dir is an artifact directory.
type Dir struct {
	path string
}

// New returns a Dir for the specified directory path, creating the directory
// if necessary.
func New(path string) (*Dir, error) {
	if path == "" {
		return nil, errors.New("storage directory must not be empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create storage directory %q, reason: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid storage directory %q, reason: %w", path, err)
	}
	return &Dir{path: abs}, nil
}

// Path returns the absolute directory path.
func (d *Dir) Path() string { return d.path }

// Save the data as a new artifact with the specified name, returning the name
// under which it was actually saved. If an artifact with the same name already
// exists, Save picks the next free name of the form “name_N.ext”.
func (d *Dir) Save(name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; n <= MaxCollisions+1; n++ {
		f, err := os.OpenFile(filepath.Join(d.path, candidate), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
				continue
			}
			return "", fmt.Errorf("cannot save artifact %q, reason: %w", candidate, err)
		}
		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("cannot save artifact %q, reason: %w", candidate, err)
		}
		log.Debugf("saved artifact %q (%d bytes)", candidate, len(data))
		return candidate, nil
	}
	return "", fmt.Errorf("cannot save artifact %q, reason: too many name collisions", name)
}

// Open the named artifact for reading. Names must be plain file names
// without any path components.
func (d *Dir) Open(name string) (*os.File, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.path, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("cannot open artifact %q, reason: %w", name, err)
	}
	if info, err := f.Stat(); err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) ||
		filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
