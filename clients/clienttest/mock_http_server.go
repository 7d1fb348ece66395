// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package clienttest

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
)

// MockHTTPServer is a test HTTP server serving canned responses by path.
type MockHTTPServer struct {
	URL string

	mu        sync.RWMutex
	responses map[string][]byte
}

// NewMockHTTPServer starts a mock server, shut down when the test ends.
func NewMockHTTPServer(t *testing.T) *MockHTTPServer {
	t.Helper()
	m := &MockHTTPServer{responses: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		body, ok := m.responses[r.URL.Path]
		m.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	m.URL = srv.URL
	return m
}

// SetResponse sets the response body served at the given path.
func (m *MockHTTPServer) SetResponse(t *testing.T, path string, response []byte) {
	t.Helper()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	m.mu.Lock()
	m.responses[path] = response
	m.mu.Unlock()
}

// SetResponseFromFile sets the response served at the given path to the
// contents of the file.
func (m *MockHTTPServer) SetResponseFromFile(t *testing.T, path, file string) {
	t.Helper()
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read response file %s: %v", file, err)
	}
	m.SetResponse(t, path, b)
}
