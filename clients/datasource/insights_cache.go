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
	"time"

	pb "deps.dev/api/v3"
	"google.golang.org/protobuf/proto"
)

// insightsCache is the persisted form of a CachedInsightsClient's caches.
// Proto messages are stored marshalled because gob cannot encode them.
type insightsCache struct {
	Timestamp         *time.Time
	PackageCache      map[packageKey][]byte
	VersionCache      map[versionKey][]byte
	RequirementsCache map[versionKey][]byte
}

func marshalProtoMap[K comparable, V proto.Message](m map[K]V) (map[K][]byte, error) {
	out := make(map[K][]byte, len(m))
	for k, v := range m {
		b, err := proto.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}

func unmarshalProtoMap[K comparable, V any, PV interface {
	proto.Message
	*V
}](m map[K][]byte, out *map[K]PV) error {
	*out = make(map[K]PV, len(m))
	for k, b := range m {
		v := PV(new(V))
		if err := proto.Unmarshal(b, v); err != nil {
			return err
		}
		(*out)[k] = v
	}
	return nil
}

// GobEncode encodes the response caches to bytes.
func (c *CachedInsightsClient) GobEncode() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cacheTimestamp == nil {
		now := time.Now().UTC()
		c.cacheTimestamp = &now
	}

	cache := insightsCache{Timestamp: c.cacheTimestamp}
	var err error
	if cache.PackageCache, err = marshalProtoMap(c.packageCache.GetMap()); err != nil {
		return nil, err
	}
	if cache.VersionCache, err = marshalProtoMap(c.versionCache.GetMap()); err != nil {
		return nil, err
	}
	if cache.RequirementsCache, err = marshalProtoMap(c.requirementsCache.GetMap()); err != nil {
		return nil, err
	}

	return gobMarshal(cache)
}

// GobDecode restores the response caches from bytes. Expired caches decode
// to an empty state.
func (c *CachedInsightsClient) GobDecode(b []byte) error {
	var cache insightsCache
	if err := gobUnmarshal(b, &cache); err != nil {
		return err
	}

	if cache.Timestamp != nil && time.Since(*cache.Timestamp) >= cacheExpiry {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cacheTimestamp = cache.Timestamp

	var pkgs map[packageKey]*pb.Package
	if err := unmarshalProtoMap(cache.PackageCache, &pkgs); err != nil {
		return err
	}
	var vers map[versionKey]*pb.Version
	if err := unmarshalProtoMap(cache.VersionCache, &vers); err != nil {
		return err
	}
	var reqs map[versionKey]*pb.Requirements
	if err := unmarshalProtoMap(cache.RequirementsCache, &reqs); err != nil {
		return err
	}

	c.packageCache.SetMap(pkgs)
	c.versionCache.SetMap(vers)
	c.requirementsCache.SetMap(reqs)

	return nil
}
