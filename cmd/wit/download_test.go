// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/wit-registry/wit/internal/config"
	"github.com/wit-registry/wit/internal/testutil"
)

func TestDownloadCommand_WritesPackage(t *testing.T) {
	t.Parallel()

	reg := &witRegistry{namespace: "ns", name: "pkg", releases: map[string]string{
		"1.0.0": "package ns:pkg@1.0.0;",
		"1.2.0": "package ns:pkg@1.2.0;",
	}}
	url := newWitRegistry(t, reg)
	h := newHarness(t, &staticProvider{client: &config.ClientConfig{HomeURL: config.RegistryURL(url)}})
	cacheDir := t.TempDir()

	if err := h.run("download", "--cache-dir", cacheDir, "ns:pkg", h.wd); err != nil {
		t.Fatalf("download error = %v (stderr: %s)", err, h.stderr)
	}

	out := filepath.Join(h.wd, "pkg.wit")
	if got := testutil.MustReadFile(t, out); got != "package ns:pkg@1.2.0;" {
		t.Errorf("pkg.wit = %q", got)
	}
	stdout := h.stdout.String()
	if !strings.Contains(stdout, "ns:pkg@1.2.0") || !strings.Contains(stdout, out) {
		t.Errorf("stdout = %q, want version and path", stdout)
	}
	if !strings.Contains(stdout, "(registry)") {
		t.Errorf("stdout = %q, want registry source", stdout)
	}
}

func TestDownloadCommand_ExactVersionFromCache(t *testing.T) {
	t.Parallel()

	reg := &witRegistry{namespace: "ns", name: "pkg", releases: map[string]string{
		"1.0.0": "package ns:pkg@1.0.0;",
	}}
	url := newWitRegistry(t, reg)
	h := newHarness(t, &staticProvider{client: &config.ClientConfig{HomeURL: config.RegistryURL(url)}})
	cacheDir := t.TempDir()
	out := filepath.Join(h.wd, "deps", "pkg.wit")

	args := []string{"download", "--cache-dir", cacheDir, "--version", "1.0.0", "-o", out, "ns:pkg"}
	if err := h.run(args...); err != nil {
		t.Fatalf("first download error = %v (stderr: %s)", err, h.stderr)
	}
	served := reg.requests.Load()

	h.stdout.Reset()
	if err := h.run(args...); err != nil {
		t.Fatalf("second download error = %v (stderr: %s)", err, h.stderr)
	}
	if reg.requests.Load() != served {
		t.Errorf("second download hit the registry (%d -> %d requests)", served, reg.requests.Load())
	}
	if !strings.Contains(h.stdout.String(), "(cache)") {
		t.Errorf("stdout = %q, want cache source", h.stdout.String())
	}
	if got := testutil.MustReadFile(t, out); got != "package ns:pkg@1.0.0;" {
		t.Errorf("output = %q", got)
	}
}

func TestDownloadCommand_ProjectRegistryAlias(t *testing.T) {
	t.Parallel()

	reg := &witRegistry{namespace: "ns", name: "pkg", releases: map[string]string{"0.1.0": "x"}}
	url := newWitRegistry(t, reg)
	h := newHarness(t, &staticProvider{
		client: &config.ClientConfig{HomeURL: "https://home.invalid"},
		project: &config.ProjectConfig{Registries: map[string]config.RegistryURL{
			"internal": config.RegistryURL(url),
		}},
	})

	if err := h.run("download", "--cache-dir", t.TempDir(), "--registry", "internal", "ns:pkg", h.wd); err != nil {
		t.Fatalf("download error = %v (stderr: %s)", err, h.stderr)
	}
	if reg.requests.Load() == 0 {
		t.Error("project registry was not contacted")
	}
}

func TestDownloadCommand_Errors(t *testing.T) {
	t.Parallel()

	reg := &witRegistry{namespace: "ns", name: "pkg", releases: map[string]string{"1.0.0": "x"}}
	url := config.RegistryURL(newWitRegistry(t, reg))

	tests := []struct {
		name     string
		client   *config.ClientConfig
		args     []string
		wantCode int
		wantKind string
	}{
		{
			name:     "registry not configured",
			client:   config.DefaultConfig(),
			args:     []string{"ns:pkg"},
			wantCode: ExitUserError,
			wantKind: "RegistryNotConfigured",
		},
		{
			name:     "invalid version",
			client:   &config.ClientConfig{HomeURL: url},
			args:     []string{"--version", "latest", "ns:pkg"},
			wantCode: ExitUserError,
			wantKind: "InvalidVersionFormat",
		},
		{
			name:     "invalid name",
			client:   &config.ClientConfig{HomeURL: url},
			args:     []string{"pkg"},
			wantCode: ExitUserError,
			wantKind: "InvalidPackageName",
		},
		{
			name:     "package not found",
			client:   &config.ClientConfig{HomeURL: url},
			args:     []string{"ns:other"},
			wantCode: ExitUserError,
			wantKind: "PackageNotFound",
		},
		{
			name:     "version not found",
			client:   &config.ClientConfig{HomeURL: url},
			args:     []string{"--version", "9.9.9", "ns:pkg"},
			wantCode: ExitUserError,
			wantKind: "VersionNotFound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, &staticProvider{client: tt.client})
			args := append([]string{"download", "--cache-dir", t.TempDir()}, tt.args...)
			err := h.run(args...)
			if got := exitCode(t, err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d", got, tt.wantCode)
			}
			if !strings.Contains(h.stderr.String(), tt.wantKind) {
				t.Errorf("stderr = %q, want kind %s", h.stderr.String(), tt.wantKind)
			}
			testutil.AssertNoFile(t, filepath.Join(h.wd, "pkg.wit"))
		})
	}
}

func TestDownloadCommand_OutputWriteFailed(t *testing.T) {
	t.Parallel()

	reg := &witRegistry{namespace: "ns", name: "pkg", releases: map[string]string{"1.0.0": "x"}}
	url := newWitRegistry(t, reg)
	h := newHarness(t, &staticProvider{client: &config.ClientConfig{HomeURL: config.RegistryURL(url)}})

	blocker := filepath.Join(h.wd, "file")
	testutil.MustWriteFile(t, blocker, "not a directory")

	err := h.run("download", "--cache-dir", t.TempDir(), "-o", filepath.Join(blocker, "pkg.wit"), "ns:pkg")
	if got := exitCode(t, err); got != ExitUnexpected {
		t.Errorf("exit code = %d, want %d", got, ExitUnexpected)
	}
	if !strings.Contains(h.stderr.String(), "OutputWriteFailed") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestDownloadCommand_RequiresName(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &staticProvider{})
	if err := h.run("download"); err == nil {
		t.Fatal("download without NAME succeeded")
	}
}
