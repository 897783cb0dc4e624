package server

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"rwid/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var routeParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerDocsCoverAPIRoutes(t *testing.T) {
	env := newTestEnv(t, "")

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc))

	undocumented := map[string]bool{
		"/swagger/*":         true,
		"/metrics/dashboard": true,
	}

	checked := 0
	for _, r := range env.app.GetRoutes(true) {
		if r.Method == http.MethodHead || !strings.HasPrefix(r.Path, "/api/") {
			continue
		}
		path := strings.TrimPrefix(r.Path, "/api")
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
		}
		if undocumented[path] {
			continue
		}
		path = routeParam.ReplaceAllString(path, "{$1}")

		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "%s %s missing from swagger docs", r.Method, path) {
			continue
		}
		_, ok = ops[strings.ToLower(r.Method)]
		assert.True(t, ok, "%s %s missing from swagger docs", r.Method, path)
		checked++
	}
	assert.GreaterOrEqual(t, checked, 16)
	assert.Contains(t, doc.Paths, "/feature-flags")
}
