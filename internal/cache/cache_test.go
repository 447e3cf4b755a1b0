// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wit-registry/wit/internal/config"
	"github.com/wit-registry/wit/pkg/witpkg"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return c
}

func testKey(name, version string) Key {
	return Key{
		Registry: "https://registry.example.com",
		Name:     witpkg.MustParseName(name),
		Version:  witpkg.MustParseVersion(version),
	}
}

func TestStoreThenLookup(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	key := testKey("acme:pkg", "1.2.0")

	if _, ok, err := c.Lookup(key); ok || err != nil {
		t.Fatalf("Lookup() before Store = ok %v, err %v; want miss", ok, err)
	}

	stored, err := c.Store(key, []byte("package acme:pkg;"), testTime)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, ok, err := c.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("Lookup() = ok %v, err %v; want hit", ok, err)
	}
	if string(got.Content) != "package acme:pkg;" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Digest != stored.Digest {
		t.Errorf("Digest = %q, want %q", got.Digest, stored.Digest)
	}
	if !got.FetchedAt.Equal(testTime) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, testTime)
	}
	if got.Key != key {
		t.Errorf("Key = %v, want %v", got.Key, key)
	}
}

func TestLookup_KeyComponentsAreDistinct(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	if _, err := c.Store(testKey("acme:pkg", "1.0.0"), []byte("v1"), testTime); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	others := []Key{
		testKey("acme:pkg", "1.0.1"),
		testKey("acme:other", "1.0.0"),
		{Registry: "https://other.example.com", Name: witpkg.MustParseName("acme:pkg"), Version: witpkg.MustParseVersion("1.0.0")},
		{Registry: "http://registry.example.com", Name: witpkg.MustParseName("acme:pkg"), Version: witpkg.MustParseVersion("1.0.0")},
	}
	for _, k := range others {
		if _, ok, err := c.Lookup(k); ok || err != nil {
			t.Errorf("Lookup(%s) = ok %v, err %v; want miss", k, ok, err)
		}
	}
}

func TestStore_Replaces(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	key := testKey("acme:pkg", "1.0.0")

	if _, err := c.Store(key, []byte("old"), testTime); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	later := testTime.Add(time.Hour)
	if _, err := c.Store(key, []byte("new"), later); err != nil {
		t.Fatalf("Store() replace error = %v", err)
	}

	got, ok, err := c.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("Lookup() = ok %v, err %v", ok, err)
	}
	if string(got.Content) != "new" || !got.FetchedAt.Equal(later) {
		t.Errorf("Lookup() = %q at %v, want %q at %v", got.Content, got.FetchedAt, "new", later)
	}
}

func TestStore_ConcurrentSameKey(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	key := testKey("acme:pkg", "1.0.0")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Store(key, fmt.Appendf(nil, "content-%d", i), testTime); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Store() error = %v", err)
	}

	got, ok, err := c.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("Lookup() after concurrent stores = ok %v, err %v", ok, err)
	}
	if len(got.Content) == 0 {
		t.Error("Lookup() returned empty content")
	}
}

func TestLookup_Corrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		corrupt func(t *testing.T, c *Cache, key Key, e *Entry)
	}{
		{
			name: "blob modified",
			corrupt: func(t *testing.T, c *Cache, _ Key, e *Entry) {
				t.Helper()
				if err := os.WriteFile(c.blobPath(e.Digest[len(digestPrefix):]), []byte("tampered"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "blob missing",
			corrupt: func(t *testing.T, c *Cache, _ Key, e *Entry) {
				t.Helper()
				if err := os.Remove(c.blobPath(e.Digest[len(digestPrefix):])); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "index garbage",
			corrupt: func(t *testing.T, c *Cache, key Key, _ *Entry) {
				t.Helper()
				p, err := c.indexPath(key)
				if err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestCache(t)
			key := testKey("acme:pkg", "1.0.0")
			e, err := c.Store(key, []byte("original"), testTime)
			if err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			tt.corrupt(t, c, key, e)

			_, ok, err := c.Lookup(key)
			if ok {
				t.Error("Lookup() ok = true for corrupt entry")
			}
			if !errors.Is(err, ErrCorruptEntry) {
				t.Errorf("Lookup() error = %v, want ErrCorruptEntry", err)
			}

			// A fresh Store repairs the entry.
			if _, err := c.Store(key, []byte("original"), testTime); err != nil {
				t.Fatalf("Store() repair error = %v", err)
			}
			if _, ok, err := c.Lookup(key); !ok || err != nil {
				t.Errorf("Lookup() after repair = ok %v, err %v", ok, err)
			}
		})
	}
}

func TestStore_WriteFailure(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("read-only directories are writable as root")
	}

	c := newTestCache(t)
	if err := os.Chmod(c.Root(), 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(c.Root(), 0o755) })

	_, err := c.Store(testKey("acme:pkg", "1.0.0"), []byte("x"), testTime)
	if !errors.Is(err, ErrCacheWrite) {
		t.Fatalf("Store() error = %v, want ErrCacheWrite", err)
	}
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("errors.As(*WriteError) failed for %T", err)
	}
}

func TestStore_InvalidKey(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	_, err := c.Store(Key{Name: witpkg.MustParseName("acme:pkg"), Version: witpkg.MustParseVersion("1.0.0")}, []byte("x"), testTime)
	if !errors.Is(err, ErrInvalidKey) || !errors.Is(err, ErrCacheWrite) {
		t.Errorf("Store() error = %v, want ErrInvalidKey and ErrCacheWrite", err)
	}

	_, _, err = c.Lookup(Key{Registry: "https://r.example.com", Name: witpkg.MustParseName("acme:pkg")})
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Lookup() error = %v, want ErrInvalidKey", err)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	key := testKey("acme:pkg", "1.0.0")
	if _, err := c.Store(key, []byte("x"), testTime); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := c.Clean(); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if _, ok, err := c.Lookup(key); ok || err != nil {
		t.Errorf("Lookup() after Clean = ok %v, err %v; want miss", ok, err)
	}
	if _, err := os.Stat(c.Root()); err != nil {
		t.Errorf("root removed by Clean: %v", err)
	}
}

func TestRegistryID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://registry.example.com", want: "registry.example.com"},
		{in: "https://Registry.Example.com:8443/api", want: filepath.FromSlash("registry.example.com_8443/api")},
		{in: "http://localhost:8080", want: filepath.FromSlash("http/localhost_8080")},
		{in: "https://R.example.com/API", want: filepath.FromSlash("r.example.com/API")},
		{in: "https://r.example.com/api", want: filepath.FromSlash("r.example.com/api")},
		{in: "https://r.example.com/../x", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := RegistryID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RegistryID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RegistryID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_PathCaseSeparatesRegistries(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	name := witpkg.MustParseName("ns:pkg")
	v := witpkg.MustParseVersion("1.0.0")
	upper := Key{Registry: "https://r.example.com/API", Name: name, Version: v}
	lower := Key{Registry: "https://r.example.com/api", Name: name, Version: v}

	if _, err := c.Store(upper, []byte("upper"), time.Time{}); err != nil {
		t.Fatalf("Store(upper) error = %v", err)
	}
	if _, ok, err := c.Lookup(lower); err != nil || ok {
		t.Errorf("Lookup(lower) = ok %v, err %v; want a miss", ok, err)
	}
}

func TestDefaultDirWith(t *testing.T) {
	t.Parallel()

	userCache := func() (string, error) { return "/home/u/.cache", nil }
	env := func(v string) func(string) string {
		return func(k string) string {
			if k == CacheDirEnv {
				return v
			}
			return ""
		}
	}

	tests := []struct {
		name       string
		env        string
		configured config.CacheDirPath
		want       string
		wantErr    bool
	}{
		{name: "env wins", env: "/env/cache", configured: "/cfg/cache", want: "/env/cache"},
		{name: "config", configured: "/cfg/cache", want: "/cfg/cache"},
		{name: "user cache dir", want: filepath.Join("/home/u/.cache", "wit")},
		{name: "whitespace config", configured: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DefaultDirWith(env(tt.env), userCache, tt.configured)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DefaultDirWith() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DefaultDirWith() = %q, want %q", got, tt.want)
			}
		})
	}
}
