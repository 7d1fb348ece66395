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
	"encoding/json"
	"fmt"
)

// IndexResponse is a project page of the PyPI Simple Index JSON API.
// https://docs.pypi.org/api/index-api/
type IndexResponse struct {
	Name     string   `json:"name"`
	Files    []File   `json:"files"`
	Versions []string `json:"versions"`
}

// File is one distribution file listed on a project page.
type File struct {
	Name   string `json:"filename"`
	URL    string `json:"url"`
	Yanked Yanked `json:"yanked"`
}

// Yanked reports whether a distribution file was yanked. The API serves
// either a boolean or a string holding the yanked reason.
type Yanked struct {
	Value bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (y *Yanked) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		y.Value = b
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		// Any reason string means the file is yanked.
		y.Value = true
		return nil
	}

	return fmt.Errorf("could not unmarshal %s as yanked", string(data))
}
