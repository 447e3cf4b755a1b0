// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wit-registry/wit/internal/config"
	"github.com/wit-registry/wit/internal/fsutil"
	"github.com/wit-registry/wit/pkg/witpkg"
)

const (
	// CacheDirEnv overrides the cache root.
	CacheDirEnv = "WIT_CACHE_DIR"

	blobsDir     = "blobs"
	indexDir     = "index"
	digestAlgo   = "sha256"
	digestPrefix = digestAlgo + ":"
	indexExt     = ".json"
)

var (
	// ErrCacheWrite is returned when an entry cannot be persisted.
	ErrCacheWrite = errors.New("cache write failed")
	// ErrCorruptEntry is returned when an index file is unreadable or its blob
	// is missing or does not match the recorded digest.
	ErrCorruptEntry = errors.New("corrupt cache entry")
	// ErrInvalidKey is returned for keys with a missing component.
	ErrInvalidKey = errors.New("invalid cache key")
)

type (
	// Key identifies a cached release. Version is always a concrete,
	// resolved version.
	Key struct {
		// Registry is the normalized registry URL.
		Registry string
		Name     witpkg.Name
		Version  witpkg.Version
	}

	// Entry is a cached release.
	Entry struct {
		Key       Key
		Content   []byte
		Digest    string
		Size      int64
		FetchedAt time.Time
	}

	// WriteError wraps a failure to persist an entry.
	WriteError struct {
		Key Key
		Err error
	}

	// CorruptEntryError describes an entry that could not be read back.
	CorruptEntryError struct {
		Path   string
		Reason string
	}

	// Cache is an on-disk package cache rooted at a directory.
	Cache struct {
		root   string
		logger *slog.Logger
	}

	// Option configures a Cache.
	Option func(*Cache)

	// indexRecord is the on-disk metadata format.
	indexRecord struct {
		Registry  string    `json:"registry"`
		Name      string    `json:"name"`
		Version   string    `json:"version"`
		Digest    string    `json:"digest"`
		Size      int64     `json:"size"`
		FetchedAt time.Time `json:"fetched_at"`
	}
)

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("caching %s: %v", e.Key, e.Err)
}

// Unwrap exposes ErrCacheWrite and the underlying cause.
func (e *WriteError) Unwrap() []error { return []error{ErrCacheWrite, e.Err} }

// Error implements the error interface.
func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt cache entry %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrCorruptEntry for errors.Is() compatibility.
func (e *CorruptEntryError) Unwrap() error { return ErrCorruptEntry }

// String renders the key as "<registry> <namespace:name>@<version>".
func (k Key) String() string {
	return fmt.Sprintf("%s %s@%s", k.Registry, k.Name, k.Version)
}

// Validate reports whether every component of the key is set.
func (k Key) Validate() error {
	switch {
	case k.Registry == "":
		return fmt.Errorf("%w: missing registry", ErrInvalidKey)
	case k.Name.IsZero():
		return fmt.Errorf("%w: missing package name", ErrInvalidKey)
	case k.Version.IsZero():
		return fmt.Errorf("%w: missing version", ErrInvalidKey)
	}
	return nil
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// DefaultDirWith returns the cache root: $WIT_CACHE_DIR, then the configured
// cache_dir, then <user cache dir>/wit.
func DefaultDirWith(getenv func(string) string, userCacheDir func() (string, error), configured config.CacheDirPath) (string, error) {
	if envPath := getenv(CacheDirEnv); envPath != "" {
		return envPath, nil
	}
	if configured != "" {
		if err := configured.Validate(); err != nil {
			return "", err
		}
		return string(configured), nil
	}

	base, err := userCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(base, config.AppName), nil
}

// Open returns a Cache rooted at root, creating the directory if needed.
func Open(root string, opts ...Option) (*Cache, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("cache root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving cache root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache root: %w", err)
	}

	c := &Cache{root: abs, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Root returns the absolute cache directory.
func (c *Cache) Root() string { return c.root }

// Lookup returns the entry for key. A missing entry yields (nil, false, nil);
// an unreadable one yields an error wrapping ErrCorruptEntry.
func (c *Cache) Lookup(key Key) (*Entry, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	indexPath, err := c.indexPath(key)
	if err != nil {
		return nil, false, err
	}

	rec, err := readIndex(indexPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	entry, err := c.load(indexPath, rec)
	if err != nil {
		return nil, false, err
	}
	entry.Key = key
	return entry, true, nil
}

// Store persists content under key, replacing any existing entry. Errors wrap
// ErrCacheWrite.
func (c *Cache) Store(key Key, content []byte, fetchedAt time.Time) (*Entry, error) {
	if err := key.Validate(); err != nil {
		return nil, &WriteError{Key: key, Err: err}
	}
	indexPath, err := c.indexPath(key)
	if err != nil {
		return nil, &WriteError{Key: key, Err: err}
	}

	sum := sha256.Sum256(content)
	hexSum := hex.EncodeToString(sum[:])

	if err := c.writeBlob(hexSum, content); err != nil {
		return nil, &WriteError{Key: key, Err: err}
	}

	rec := indexRecord{
		Registry:  key.Registry,
		Name:      key.Name.String(),
		Version:   key.Version.String(),
		Digest:    digestPrefix + hexSum,
		Size:      int64(len(content)),
		FetchedAt: fetchedAt.UTC(),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, &WriteError{Key: key, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, &WriteError{Key: key, Err: err}
	}
	if err := fsutil.WriteFileAtomic(context.Background(), indexPath, data, 0o644); err != nil {
		return nil, &WriteError{Key: key, Err: err}
	}

	c.logger.Debug("cached package", "key", key.String(), "digest", rec.Digest, "size", rec.Size)

	return &Entry{
		Key:       key,
		Content:   content,
		Digest:    rec.Digest,
		Size:      rec.Size,
		FetchedAt: rec.FetchedAt,
	}, nil
}

// Clean removes every cached entry. The root directory itself is kept.
func (c *Cache) Clean() error {
	for _, dir := range []string{indexDir, blobsDir} {
		if err := os.RemoveAll(filepath.Join(c.root, dir)); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Cache) writeBlob(hexSum string, content []byte) error {
	path := c.blobPath(hexSum)
	if existing, err := os.ReadFile(path); err == nil {
		sum := sha256.Sum256(existing)
		if hex.EncodeToString(sum[:]) == hexSum {
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(context.Background(), path, content, 0o644)
}

func (c *Cache) load(indexPath string, rec indexRecord) (*Entry, error) {
	hexSum, ok := strings.CutPrefix(rec.Digest, digestPrefix)
	if !ok || !isHex(hexSum) {
		return nil, &CorruptEntryError{Path: indexPath, Reason: fmt.Sprintf("invalid digest %q", rec.Digest)}
	}

	content, err := os.ReadFile(c.blobPath(hexSum))
	if err != nil {
		return nil, &CorruptEntryError{Path: indexPath, Reason: fmt.Sprintf("reading blob: %v", err)}
	}
	sum := sha256.Sum256(content)
	if hex.EncodeToString(sum[:]) != hexSum {
		return nil, &CorruptEntryError{Path: indexPath, Reason: "blob does not match digest"}
	}

	return &Entry{
		Content:   content,
		Digest:    rec.Digest,
		Size:      int64(len(content)),
		FetchedAt: rec.FetchedAt,
	}, nil
}

func (c *Cache) blobPath(hexSum string) string {
	return filepath.Join(c.root, blobsDir, digestAlgo, hexSum)
}

func (c *Cache) indexPath(key Key) (string, error) {
	id, err := RegistryID(key.Registry)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.root, indexDir, id, key.Name.Namespace(), key.Name.Name(), key.Version.String()+indexExt), nil
}

func readIndex(path string) (indexRecord, error) {
	var rec indexRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, &CorruptEntryError{Path: path, Reason: fmt.Sprintf("decoding index: %v", err)}
	}
	return rec, nil
}

// RegistryID converts a registry URL to a path-safe directory name, e.g.
// "https://registry.example.com:8443/api" -> "registry.example.com_8443/api".
// Plain http registries get an "http/" prefix so they never share entries
// with https on the same host. Only the host is case-folded.
func RegistryID(registryURL string) (string, error) {
	rest := registryURL
	prefix := ""
	switch {
	case strings.HasPrefix(rest, "https://"):
		rest = strings.TrimPrefix(rest, "https://")
	case strings.HasPrefix(rest, "http://"):
		rest = strings.TrimPrefix(rest, "http://")
		prefix = "http/"
	}
	rest = strings.Trim(rest, "/")
	host, path, hasPath := strings.Cut(rest, "/")
	rest = strings.ToLower(host)
	if hasPath {
		rest += "/" + path
	}
	rest = strings.ReplaceAll(rest, ":", "_")

	for seg := range strings.SplitSeq(rest, "/") {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `\?#*`) {
			return "", fmt.Errorf("%w: registry %q is not path-safe", ErrInvalidKey, registryURL)
		}
	}

	return filepath.FromSlash(prefix + rest), nil
}

func isHex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
