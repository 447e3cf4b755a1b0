// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/wit-registry/wit/internal/config"
)

type (
	// staticProvider returns fixed configuration layers.
	staticProvider struct {
		client  *config.ClientConfig
		project *config.ProjectConfig
		loadErr error
	}

	// cliHarness runs the command tree against in-memory streams.
	cliHarness struct {
		app    *App
		stdout *bytes.Buffer
		stderr *bytes.Buffer
		wd     string
	}

	// witRegistry serves one package over the registry HTTP API.
	witRegistry struct {
		namespace string
		name      string
		// releases maps version to content.
		releases map[string]string
		requests atomic.Int32
	}
)

func (p *staticProvider) Load(context.Context, config.LoadOptions) (*config.ClientConfig, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.client == nil {
		return config.DefaultConfig(), nil
	}
	return p.client, nil
}

func (p *staticProvider) LoadProject(context.Context, string) (*config.ProjectConfig, error) {
	return p.project, nil
}

func newHarness(t *testing.T, provider config.Provider) *cliHarness {
	t.Helper()

	h := &cliHarness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		wd:     t.TempDir(),
	}
	h.app = NewApp(Dependencies{
		Config: provider,
		Stdout: h.stdout,
		Stderr: h.stderr,
		Getenv: func(string) string { return "" },
		Getwd:  func() (string, error) { return h.wd, nil },
	})
	return h
}

// run executes args and returns the resulting error.
func (h *cliHarness) run(args ...string) error {
	root := NewRootCommand(h.app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error %v is not an *ExitError", err)
	}
	return exitErr.Code
}

func (r *witRegistry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.requests.Add(1)

	base := "/v1/packages/" + r.namespace + "/" + r.name
	type release struct {
		Version string `json:"version"`
		Digest  string `json:"digest"`
	}

	switch {
	case req.URL.Path == base:
		info := struct {
			Name     string    `json:"name"`
			Releases []release `json:"releases"`
		}{Name: r.namespace + ":" + r.name}
		for v, content := range r.releases {
			sum := sha256.Sum256([]byte(content))
			info.Releases = append(info.Releases, release{Version: v, Digest: "sha256:" + hex.EncodeToString(sum[:])})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	case strings.HasPrefix(req.URL.Path, base+"/releases/"):
		v := strings.TrimSuffix(strings.TrimPrefix(req.URL.Path, base+"/releases/"), "/content")
		if content, ok := r.releases[v]; ok {
			_, _ = w.Write([]byte(content))
			return
		}
		http.NotFound(w, req)
	default:
		http.NotFound(w, req)
	}
}

func newWitRegistry(t *testing.T, r *witRegistry) string {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}
