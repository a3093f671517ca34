// Copyright 2026, the bump authors.
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

// Package repoindex persists the set of discovered repositories along with
// a per-repo last-checked watermark, per spec §3 and §4.5.
package repoindex

import (
	"fmt"
	"sync"
	"time"

	"github.com/chains-project/bump/internal/store"
)

// Entry is one repository's index record.
type Entry struct {
	URL           string `json:"url"`
	LastCheckedAt string `json:"lastCheckedAt,omitempty"`
}

// LastChecked parses LastCheckedAt, treating an empty value as epoch zero
// per spec §3 ("lastCheckedAt = ∅ means 'never'").
func (e Entry) LastChecked() time.Time {
	if e.LastCheckedAt == "" {
		return time.Unix(0, 0).UTC()
	}
	t, err := store.ParseTime(e.LastCheckedAt)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// Index is the in-memory, JSON-backed mapping "owner/project" -> Entry.
// Safe for concurrent use: the Miner writes disjoint keys (one goroutine per
// repository), but the map access itself is still mutex-guarded since a read
// (e.g. from Find checking for an existing entry) can race with writes.
type Index struct {
	doc *store.Doc

	mu      sync.Mutex
	entries map[string]Entry
}

// Load reads the index document at path, creating an empty index if the
// file does not yet exist.
func Load(path string) (*Index, error) {
	doc := store.NewDoc(path)
	entries, err := store.Load[map[string]Entry](doc)
	if err != nil {
		return nil, fmt.Errorf("loading repository index: %w", err)
	}
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return &Index{doc: doc, entries: entries}, nil
}

// Get returns the entry for key ("owner/project") and whether it exists.
func (idx *Index) Get(key string) (Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e, ok := idx.entries[key]
	return e, ok
}

// Put inserts or replaces the entry for key and persists the whole index.
// Rewriting wholesale after each repo's mining pass is acceptable per spec
// §3: concurrent writers touch disjoint keys, so last-writer-wins per key
// never loses a concurrent update to a different key (each writer holds the
// lock only long enough to mutate its own key and flush).
func (idx *Index) Put(key string, e Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[key] = e
	return idx.flushLocked()
}

// Keys returns all indexed "owner/project" keys.
func (idx *Index) Keys() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	return keys
}

func (idx *Index) flushLocked() error {
	snapshot := make(map[string]Entry, len(idx.entries))
	for k, v := range idx.entries {
		snapshot[k] = v
	}
	if err := store.Save(idx.doc, snapshot); err != nil {
		return fmt.Errorf("persisting repository index: %w", err)
	}
	return nil
}

// Touch sets the entry's LastCheckedAt to now and persists it — the
// checkpoint-after-every-repo behavior Mine relies on.
func (idx *Index) Touch(key string, url string, now time.Time) error {
	return idx.Put(key, Entry{URL: url, LastCheckedAt: store.FormatTime(now)})
}
