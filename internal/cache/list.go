// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wit-registry/wit/pkg/witpkg"

	"github.com/bmatcuk/doublestar/v4"
)

// List returns the cached entries whose package name matches pattern, sorted
// by name and then newest version first. Pattern uses doublestar syntax and
// is matched against "namespace:name", or against "namespace:name@version"
// when it contains '@'. An empty pattern matches everything. Corrupt entries
// are skipped and logged.
func (c *Cache) List(pattern string) ([]Entry, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	withVersion := strings.Contains(pattern, "@")

	root := filepath.Join(c.root, indexDir)
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != indexExt {
			return nil
		}

		rec, err := readIndex(path)
		if err != nil {
			c.logger.Warn("skipping unreadable cache index", "path", path, "error", err)
			return nil
		}

		subject := rec.Name
		if withVersion {
			subject += "@" + rec.Version
		}
		ok, err := doublestar.Match(pattern, subject)
		if err != nil || !ok {
			return err
		}

		key, err := rec.key()
		if err != nil {
			c.logger.Warn("skipping cache index with invalid key", "path", path, "error", err)
			return nil
		}
		entry, err := c.load(path, rec)
		if err != nil {
			c.logger.Warn("skipping corrupt cache entry", "path", path, "error", err)
			return nil
		}
		entry.Key = key
		entries = append(entries, *entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if n := strings.Compare(a.Key.Name.String(), b.Key.Name.String()); n != 0 {
			return n
		}
		if n := b.Key.Version.Compare(a.Key.Version); n != 0 {
			return n
		}
		return strings.Compare(a.Key.Registry, b.Key.Registry)
	})

	return entries, nil
}

func (r indexRecord) key() (Key, error) {
	name, err := witpkg.ParseName(r.Name)
	if err != nil {
		return Key{}, err
	}
	v, err := witpkg.ParseVersion(r.Version)
	if err != nil {
		return Key{}, err
	}
	k := Key{Registry: r.Registry, Name: name, Version: v}
	return k, k.Validate()
}
