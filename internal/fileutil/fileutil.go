// Package fileutil writes pipeline artifacts without leaving partial files
// behind.
package fileutil

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic streams write's output to a temporary file next to path and
// renames it into place once write and the flush succeed. On failure path is
// left untouched.
func WriteAtomic(path string, mode os.FileMode, write func(io.Writer) error) error {
	return WriteAtomicFile(path, mode, func(file *os.File) error {
		buffered := bufio.NewWriter(file)
		if err := write(buffered); err != nil {
			return err
		}
		if err := buffered.Flush(); err != nil {
			return fmt.Errorf("flush %s: %w", path, err)
		}
		return nil
	})
}

// WriteAtomicFile is WriteAtomic for writers that need the file itself,
// such as encoders that seek back to patch headers.
func WriteAtomicFile(path string, mode os.FileMode, write func(*os.File) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic is WriteAtomic for an in-memory payload.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	return WriteAtomic(path, mode, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Publish moves src to dst. When a rename is impossible (different
// filesystems) it falls back to a verified copy and removes src afterwards.
func Publish(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	if err := copyVerified(src, dst); err != nil {
		return errors.Join(renameErr, err)
	}
	return os.Remove(src)
}

// copyVerified copies src to dst and compares SHA-256 digests of both sides.
// dst is removed on mismatch.
func copyVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcHash := sha256.New()
	err = WriteAtomic(dst, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, io.TeeReader(in, srcHash))
		return err
	})
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	out, err := os.Open(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	dstHash := sha256.New()
	if _, err := io.Copy(dstHash, out); err != nil {
		return err
	}
	if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch for %s", dst)
	}
	return nil
}
