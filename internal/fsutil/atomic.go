// SPDX-License-Identifier: MPL-2.0

// Package fsutil holds filesystem helpers shared by the cache and the
// download writer.
package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to path by creating a temp file in the same
// directory and renaming it over path. Readers see either the old file or the
// complete new one. When ctx is done before the rename, the temp file is
// removed and ctx.Err() is returned.
func WriteFileAtomic(ctx context.Context, path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	renamed = true

	return nil
}
