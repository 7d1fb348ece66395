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

package datasource

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var errAPIFailed = errors.New("API query failed")

// cacheExpiry is how long cached registry responses stay valid when reloaded
// from a persisted cache.
const cacheExpiry = 6 * time.Hour

// response is a cacheable representation of a registry HTTP response.
type response struct {
	StatusCode int
	Body       []byte
}

// RequestCache is a map with single-flight semantics: concurrent Gets for the
// same key share one call to the compute function.
type RequestCache[K comparable, V any] struct {
	mu       sync.Mutex
	cache    map[K]V
	inflight map[K]*sync.WaitGroup
}

// NewRequestCache creates a new RequestCache.
func NewRequestCache[K comparable, V any]() *RequestCache[K, V] {
	return &RequestCache[K, V]{
		cache:    make(map[K]V),
		inflight: make(map[K]*sync.WaitGroup),
	}
}

// Get returns the cached value for the key, computing and caching it with fn
// on a miss. Only successful computations are cached.
func (rc *RequestCache[K, V]) Get(key K, fn func() (V, error)) (V, error) {
	for {
		rc.mu.Lock()
		if v, ok := rc.cache[key]; ok {
			rc.mu.Unlock()
			return v, nil
		}
		if wg, ok := rc.inflight[key]; ok {
			rc.mu.Unlock()
			// Another goroutine is computing this key; wait and re-check.
			wg.Wait()
			continue
		}
		wg := &sync.WaitGroup{}
		wg.Add(1)
		rc.inflight[key] = wg
		rc.mu.Unlock()

		v, err := fn()
		rc.mu.Lock()
		if err == nil {
			rc.cache[key] = v
		}
		delete(rc.inflight, key)
		rc.mu.Unlock()
		wg.Done()
		return v, err
	}
}

// GetMap returns a copy of the cached entries.
func (rc *RequestCache[K, V]) GetMap() map[K]V {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make(map[K]V, len(rc.cache))
	for k, v := range rc.cache {
		out[k] = v
	}
	return out
}

// SetMap replaces the cached entries.
func (rc *RequestCache[K, V]) SetMap(m map[K]V) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cache = make(map[K]V, len(m))
	for k, v := range m {
		rc.cache[k] = v
	}
}

func gobMarshal(v any) ([]byte, error) {
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func gobUnmarshal(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}

// writeFile writes data to path, creating parent directories as needed.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
