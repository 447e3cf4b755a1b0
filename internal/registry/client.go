// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/wit-registry/wit/pkg/witpkg"

	"github.com/schollz/progressbar/v3"
)

const (
	// TokenEnvVar names the environment variable holding the registry bearer token.
	TokenEnvVar = "WIT_REGISTRY_TOKEN"

	// maxJSONResponseBytes is the upper bound on package metadata size (10 MB).
	maxJSONResponseBytes = 10 << 20

	// maxContentBytes is the upper bound on downloaded package content (64 MB).
	maxContentBytes = 64 << 20

	digestPrefix = "sha256:"
)

type (
	// Package is a fetched release.
	Package struct {
		Name    witpkg.Name
		Version witpkg.Version
		// Digest is the verified content digest ("sha256:<hex>").
		Digest  string
		Content []byte
	}

	// Release is one entry of a package's release list.
	Release struct {
		Version witpkg.Version
		Digest  string
		Yanked  bool
	}

	// packageInfo is the JSON wire format of GET /v1/packages/{ns}/{name}.
	packageInfo struct {
		Name     string        `json:"name"`
		Releases []releaseInfo `json:"releases"`
	}

	releaseInfo struct {
		Version string `json:"version"`
		Digest  string `json:"digest"`
		Yanked  bool   `json:"yanked"`
	}

	// HTTPClient talks to a registry over its HTTP API.
	HTTPClient struct {
		httpClient *http.Client
		token      string
		userAgent  string
		progress   io.Writer
		logger     *slog.Logger
	}

	// ClientOption configures an HTTPClient during construction.
	ClientOption func(*HTTPClient)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithToken sets the bearer token sent to the registry host.
func WithToken(token string) ClientOption {
	return func(h *HTTPClient) {
		h.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(h *HTTPClient) {
		h.userAgent = ua
	}
}

// WithProgress renders a download progress bar to w. A nil writer disables it.
func WithProgress(w io.Writer) ClientOption {
	return func(h *HTTPClient) {
		h.progress = w
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(h *HTTPClient) {
		h.logger = l
	}
}

// NewHTTPClient creates an HTTPClient with sensible defaults.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		userAgent:  "wit/dev",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListReleases returns every release of name, newest first.
func (c *HTTPClient) ListReleases(ctx context.Context, endpoint Endpoint, name witpkg.Name) ([]Release, error) {
	infoURL := packageURL(endpoint, name)

	resp, err := c.doRequest(ctx, endpoint, infoURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &PackageNotFoundError{Name: name.String(), Registry: endpoint.URL}
	default:
		return nil, &FetchError{URL: redactURL(infoURL), StatusCode: resp.StatusCode}
	}

	var info packageInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&info); err != nil {
		return nil, &FetchError{URL: redactURL(infoURL), Err: fmt.Errorf("decoding package metadata: %w", err)}
	}

	releases := make([]Release, 0, len(info.Releases))
	for _, ri := range info.Releases {
		v, err := witpkg.ParseVersion(ri.Version)
		if err != nil {
			c.logger.Debug("skipping release with invalid version", "package", name.String(), "version", ri.Version)
			continue
		}
		releases = append(releases, Release{Version: v, Digest: ri.Digest, Yanked: ri.Yanked})
	}
	sortReleases(releases)

	return releases, nil
}

// ResolveRelease returns the version Fetch would download for req, using only
// the package metadata.
func (c *HTTPClient) ResolveRelease(ctx context.Context, endpoint Endpoint, name witpkg.Name, req witpkg.Requirement) (witpkg.Version, error) {
	rel, err := c.resolve(ctx, endpoint, name, req)
	if err != nil {
		return witpkg.Version{}, err
	}
	return rel.Version, nil
}

// Fetch resolves req against the registry and downloads the matching content,
// verifying it against the release digest.
func (c *HTTPClient) Fetch(ctx context.Context, endpoint Endpoint, name witpkg.Name, req witpkg.Requirement) (*Package, error) {
	rel, err := c.resolve(ctx, endpoint, name, req)
	if err != nil {
		return nil, err
	}

	contentURL := packageURL(endpoint, name) + "/releases/" + url.PathEscape(rel.Version.String()) + "/content"

	resp, err := c.doRequest(ctx, endpoint, contentURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &VersionNotFoundError{
			Name:        name.String(),
			Requirement: req.String(),
			Reason:      fmt.Sprintf("registry has no content for %s", rel.Version),
		}
	default:
		return nil, &FetchError{URL: redactURL(contentURL), StatusCode: resp.StatusCode}
	}

	content, err := c.readContent(resp, name, rel.Version)
	if err != nil {
		return nil, &FetchError{URL: redactURL(contentURL), Err: err}
	}

	digest, err := verifyDigest(content, rel.Digest)
	if err != nil {
		return nil, &FetchError{URL: redactURL(contentURL), Err: err}
	}

	return &Package{Name: name, Version: rel.Version, Digest: digest, Content: content}, nil
}

func (c *HTTPClient) resolve(ctx context.Context, endpoint Endpoint, name witpkg.Name, req witpkg.Requirement) (Release, error) {
	releases, err := c.ListReleases(ctx, endpoint, name)
	if err != nil {
		return Release{}, err
	}

	selectable := make([]witpkg.Version, 0, len(releases))
	byVersion := make(map[string]Release, len(releases))
	for _, r := range releases {
		if r.Yanked {
			continue
		}
		selectable = append(selectable, r.Version)
		byVersion[r.Version.String()] = r
	}

	v, ok := req.Select(selectable)
	if !ok {
		available := make([]string, 0, len(selectable))
		for _, sv := range selectable {
			available = append(available, sv.String())
		}
		return Release{}, &VersionNotFoundError{Name: name.String(), Requirement: req.String(), Available: available}
	}

	c.logger.Debug("resolved release", "package", name.String(), "requirement", req.String(), "version", v.String())
	return byVersion[v.String()], nil
}

// readContent reads at most maxContentBytes, rendering a progress bar when enabled.
func (c *HTTPClient) readContent(resp *http.Response, name witpkg.Name, v witpkg.Version) ([]byte, error) {
	var body io.Reader = io.LimitReader(resp.Body, maxContentBytes+1)

	if c.progress != nil && resp.ContentLength > 0 {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(c.progress),
			progressbar.OptionSetDescription(fmt.Sprintf("downloading %s@%s", name, v)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
		body = io.TeeReader(body, bar)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if buf.Len() > maxContentBytes {
		return nil, fmt.Errorf("content exceeds maximum size of %d bytes", maxContentBytes)
	}
	return buf.Bytes(), nil
}

// doRequest creates and executes a GET request, attaching the token only when
// the request targets the endpoint host.
func (c *HTTPClient) doRequest(ctx context.Context, endpoint Endpoint, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: redactURL(reqURL), Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("User-Agent", c.userAgent)

	if c.token != "" && isEndpointHost(req.URL, endpoint) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("registry request", "url", redactURL(reqURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: redactURL(reqURL), Err: err}
	}

	return resp, nil
}

// verifyDigest checks content against a "sha256:<hex>" digest and returns the
// digest of content. An empty expected digest is accepted.
func verifyDigest(content []byte, expected string) (string, error) {
	sum := sha256.Sum256(content)
	actual := digestPrefix + hex.EncodeToString(sum[:])

	if expected == "" {
		return actual, nil
	}
	if !strings.HasPrefix(expected, digestPrefix) {
		return "", fmt.Errorf("unsupported digest algorithm in %q", expected)
	}
	if !strings.EqualFold(expected, actual) {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, expected, actual)
	}
	return actual, nil
}

func packageURL(endpoint Endpoint, name witpkg.Name) string {
	return endpoint.URL + "/v1/packages/" + url.PathEscape(name.Namespace()) + "/" + url.PathEscape(name.Name())
}

func sortReleases(releases []Release) {
	slices.SortStableFunc(releases, func(a, b Release) int {
		return b.Version.Compare(a.Version)
	})
}

// isEndpointHost reports whether reqURL targets the registry host, so the
// token can be safely attached.
func isEndpointHost(reqURL *url.URL, endpoint Endpoint) bool {
	base, err := url.Parse(endpoint.URL)
	if err != nil {
		return false
	}
	return strings.EqualFold(reqURL.Host, base.Host)
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
