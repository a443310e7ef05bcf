// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Collect copies the resolved artifacts in to an output directory, preserving their paths
// relative to the build root.
func Collect(entries []Entry, outDir string) error {
	for i := range entries {
		entry := &entries[i]
		dst := filepath.Join(outDir, filepath.FromSlash(entry.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
			return err
		}
		reader, err := entry.Open()
		if err != nil {
			return err
		}
		if err := copyFile(reader, dst, entry.Info().Mode().Perm()); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src io.ReadCloser, dst string, perm fs.FileMode) (err error) {
	maybeSetErr := func(_err error) {
		if _err != nil && err == nil {
			err = _err
		}
	}
	defer func() {
		maybeSetErr(src.Close())
	}()

	writer, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(writer, src); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}
