package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"movietracker/httpserver"
	"movietracker/pkg/config"

	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{AppEnv: "local", Port: 8080}
	cfg.Backend.Mode = config.BackendRemote
	cfg.Backend.BaseURL = "http://localhost:8000"
	cfg.Backend.PublicURL = "http://localhost:8000"
	cfg.Backend.ReportUnavailable = true
	return cfg
}

func newTestServer(t *testing.T, options ...httpserver.Options) *httpserver.Server {
	t.Helper()
	server, err := httpserver.New(append([]httpserver.Options{httpserver.WithConfig(testConfig())}, options...)...)
	require.NoError(t, err)
	return server
}

func makeRequest(server *httpserver.Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	return makeJSONRequest(server, method, path, nil, headers)
}

func makeJSONRequest(server *httpserver.Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		var raw []byte
		if s, ok := body.(string); ok {
			raw = []byte(s)
		} else {
			raw, _ = json.Marshal(body)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) httpserver.APIResponse {
	t.Helper()
	var resp httpserver.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
