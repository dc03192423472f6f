// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// AtomicWriteFile replaces path with data so that readers see either the
// previous content or all of the new content, never a torn write.
// Missing parent directories are created with mode 0755.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileWithDir(path, data, perm, 0755)
}

// AtomicWriteFileWithDir is AtomicWriteFile with the mode used for created
// parent directories. Stored documents use 0755; config and history use 0700.
func AtomicWriteFileWithDir(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	_, err := atomicWrite(path, bytes.NewReader(data), filePerm, dirPerm)
	return err
}

// AtomicWriteReader streams r into path with the same guarantees as
// AtomicWriteFile. If r fails part way, path is left untouched.
func AtomicWriteReader(path string, r io.Reader, perm os.FileMode) (int64, error) {
	return atomicWrite(path, r, perm, 0755)
}

func atomicWrite(path string, r io.Reader, filePerm, dirPerm os.FileMode) (int64, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", dir, err)
	}

	st, err := stage(dir, filepath.Base(target))
	if err != nil {
		return 0, err
	}
	n, err := st.fill(r, filePerm)
	if err != nil {
		return n, errors.Join(err, st.discard())
	}
	if err := os.Rename(st.name, target); err != nil {
		return n, errors.Join(fmt.Errorf("replace %s: %w", target, err), st.discard())
	}
	return n, syncDir(dir)
}

// =============================================================================
// STAGING FILE
// =============================================================================

// staged is a temporary sibling of the target. Renames are only atomic
// within one filesystem, so it lives in the target's directory.
type staged struct {
	f    *os.File
	name string
}

func stage(dir, base string) (*staged, error) {
	f, err := os.CreateTemp(dir, "."+base+".tmp-")
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", base, err)
	}
	return &staged{f: f, name: f.Name()}, nil
}

// fill writes, syncs and closes the file, then applies perm.
// Windows refuses to rename a file that is still open.
func (s *staged) fill(r io.Reader, perm os.FileMode) (int64, error) {
	n, err := io.Copy(s.f, r)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", s.name, err)
	}
	if err := s.f.Sync(); err != nil {
		return n, fmt.Errorf("sync %s: %w", s.name, err)
	}
	if err := s.f.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", s.name, err)
	}
	s.f = nil
	if err := os.Chmod(s.name, perm); err != nil {
		return n, fmt.Errorf("chmod %s: %w", s.name, err)
	}
	return n, nil
}

func (s *staged) discard() error {
	if s.f != nil {
		s.f.Close()
	}
	if err := os.Remove(s.name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// syncDir makes the rename durable. Directories cannot be opened for
// syncing on Windows.
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open directory %s: %w", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync directory %s: %w", dir, err)
	}
	return nil
}
