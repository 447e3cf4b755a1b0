// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"wit": Execute,
	})
}

// TestScripts runs the wit binary against the scripts in testdata/script.
// Each script gets its own registry at $REGISTRY_URL serving wasi:http.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			srv := httptest.NewServer(&witRegistry{namespace: "wasi", name: "http", releases: map[string]string{
				"0.1.0":      "package wasi:http@0.1.0;\n",
				"0.2.0":      "package wasi:http@0.2.0;\n",
				"0.3.0-rc.1": "package wasi:http@0.3.0-rc.1;\n",
			}})
			env.Defer(srv.Close)

			env.Setenv("REGISTRY_URL", srv.URL)
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, ".config"))
			env.Setenv("WIT_CACHE_DIR", filepath.Join(env.WorkDir, "cache"))
			return nil
		},
		ContinueOnError: true,
	})
}
