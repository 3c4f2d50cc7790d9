// Copyright 2025 The Golette Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package golette

import "sync"

// State is a typed-by-convention key/value store shared across the
// application: startup hooks put connections and clients in, handlers take
// them out. Safe for concurrent use.
type State struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewState returns an empty State.
func NewState() *State {
	return &State{m: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
}

// Get returns the value under key and whether it was present.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	v, ok := s.m[key]
	s.mu.RUnlock()
	return v, ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *State) Delete(key string) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
