// Common test helpers
package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/cache"
	"github.com/meghashyamc/folio/config"
	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/db/searchdb"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/render"
	"github.com/meghashyamc/folio/services/library"
	"github.com/meghashyamc/folio/services/search"
	"github.com/meghashyamc/folio/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

var testBlogFiles = map[string]string{
	"hello-world.md": "---\ntitle: Hello World\ndescription: First post\ndate: 2024-01-01\ntags: [Go, Web]\n---\n" +
		"# Hello World\n\nWelcome to the blog. Read the [docs](https://go.dev).",
	"concurrency.md": "---\ntitle: Concurrency patterns\ndate: 2024-02-01\ntags: [Go]\n---\n" +
		"Goroutines and channels. We benchmarked worker pools.",
	"machine-learning.mdx": "---\ntitle: Intro to ML\ndate: 2024-03-01\ntags: [Machine Learning]\n---\n" +
		"Gradient descent, explained.",
	"draft.md":  "---\ntitle: Secret draft\ndate: 2024-04-01\ntags: [Go]\npublished: false\n---\nNot ready.",
	"broken.md": "---\ntitle: [unclosed\n---\nbody",
}

type testCase struct {
	name           string
	requestHeaders map[string]string
	requestBody    map[string]any
	queryParams    map[string]string
	endpoint       string
	expectedStatus int
	assertData     func(assert *require.Assertions, data map[string]any)
}

type testServer struct {
	router  *gin.Engine
	library *library.Library
	blogDir string
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func writeTestFiles(assert *require.Assertions, dir string, files map[string]string) {
	for relPath, content := range files {
		fullPath := filepath.Join(dir, relPath)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		assert.NoError(err, "could not create test sub-directory")
		err = os.WriteFile(fullPath, []byte(content), 0644)
		assert.NoError(err, "could not write test file")
	}
}

func newTestCollection(assert *require.Assertions, testLogger logger.Logger, cfg *config.Config, name string, dir string) *library.Collection {
	loader := content.NewLoader(testLogger, dir)
	snapshots := cache.New(name, loader, testLogger, cache.WithTTL(cfg.GetCacheTTL()), cache.WithRetryBackoff(cfg.GetCacheRetryBackoff()))
	fulltext, err := searchdb.NewMemOnly(testLogger)
	assert.NoError(err, "could not create search database")
	return library.NewCollection(name, testLogger, loader, snapshots, search.New(testLogger, cfg.GetSearchCacheSize()), fulltext)
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {

	t.Setenv("ENV", "test")

	cfg, err := config.Load("")
	assert.NoError(err, "could not load config")

	blogDir := t.TempDir()
	writeTestFiles(assert, blogDir, testBlogFiles)

	testLogger := newTestLogger()
	lib := library.New(testLogger,
		newTestCollection(assert, testLogger, cfg, library.BlogCollection, blogDir),
		newTestCollection(assert, testLogger, cfg, library.ProjectsCollection, filepath.Join(t.TempDir(), "missing")),
	)
	t.Cleanup(func() {
		assert.NoError(lib.Close(), "could not close library")
	})

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.UseRawPath = true

	group := router.Group("/api")
	SetupDocuments(group, testLogger, lib, render.New(), validator)
	SetupTags(group, testLogger, lib, validator)
	SetupSearch(group, testLogger, lib, validator)
	SetupRefresh(group, testLogger, lib)

	return &testServer{router: router, library: lib, blogDir: blogDir}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func runTestCases(t *testing.T, server *testServer, method string, testCases []testCase) {
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(server.router, assert, method, testCase.endpoint, testCase.requestHeaders, testCase.requestBody, testCase.queryParams)
			responseBytes := w.Body.Bytes()
			assert.Equal(testCase.expectedStatus, w.Code, "response gotten was %s", string(responseBytes))

			var responseMap map[string]any
			assert.NoError(json.Unmarshal(responseBytes, &responseMap))
			if testCase.expectedStatus >= http.StatusBadRequest {
				assert.NotEmpty(responseMap["errors"], "failed requests should explain why")
				return
			}
			if testCase.assertData != nil {
				data, ok := responseMap["data"].(map[string]any)
				assert.True(ok, "expected data object in response")
				testCase.assertData(assert, data)
			}
		})
	}
}

func slugsFrom(assert *require.Assertions, documents any) []string {
	list, ok := documents.([]any)
	assert.True(ok, "expected a list of documents")
	slugs := make([]string, 0, len(list))
	for _, item := range list {
		doc := item.(map[string]any)
		if nested, ok := doc["document"].(map[string]any); ok {
			doc = nested
		}
		slugs = append(slugs, doc["slug"].(string))
	}
	return slugs
}
