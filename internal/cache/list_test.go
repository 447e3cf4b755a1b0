// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"os"
	"testing"
)

func TestList(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	for _, k := range []Key{
		testKey("acme:pkg", "1.0.0"),
		testKey("acme:pkg", "1.2.0"),
		testKey("acme:tools", "0.1.0"),
		testKey("wasi:http", "0.2.0"),
	} {
		if _, err := c.Store(k, []byte(k.String()), testTime); err != nil {
			t.Fatalf("Store(%s) error = %v", k, err)
		}
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{pattern: "", want: []string{"acme:pkg@1.2.0", "acme:pkg@1.0.0", "acme:tools@0.1.0", "wasi:http@0.2.0"}},
		{pattern: "acme:*", want: []string{"acme:pkg@1.2.0", "acme:pkg@1.0.0", "acme:tools@0.1.0"}},
		{pattern: "*:http", want: []string{"wasi:http@0.2.0"}},
		{pattern: "acme:pkg@1.0.*", want: []string{"acme:pkg@1.0.0"}},
		{pattern: "none:*", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			entries, err := c.List(tt.pattern)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Key.Name.String()+"@"+e.Key.Version.String())
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("List(%q)[%d] = %s, want %s", tt.pattern, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestList_SkipsCorrupt(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	good := testKey("acme:good", "1.0.0")
	bad := testKey("acme:bad", "1.0.0")
	if _, err := c.Store(good, []byte("good"), testTime); err != nil {
		t.Fatal(err)
	}
	e, err := c.Store(bad, []byte("bad"), testTime)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(c.blobPath(e.Digest[len(digestPrefix):])); err != nil {
		t.Fatal(err)
	}

	entries, err := c.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Key != good {
		t.Errorf("List() = %v, want only %s", entries, good)
	}
}

func TestList_EmptyCacheAndBadPattern(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	entries, err := c.List("")
	if err != nil || len(entries) != 0 {
		t.Errorf("List() on empty cache = %v, %v", entries, err)
	}
	if _, err := c.List("[unclosed"); err == nil {
		t.Error("List() expected error for invalid pattern")
	}
}
