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

// Package patchcache memoizes pull-request unified diffs and file contents
// at a commit, per spec §4.2. It is process-local, unbounded, and optional:
// a miss falls through to the fetcher and is cached on success only.
package patchcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// PRKey identifies a pull request for diff caching.
type PRKey struct {
	Org     string
	Project string
	Number  int
}

// ContentKey identifies a file at a commit for content caching.
type ContentKey struct {
	Org     string
	Project string
	Commit  string
	Path    string
}

// DiffFetcher fetches a PR's unified diff from the Forge.
type DiffFetcher interface {
	FetchDiff(ctx context.Context, key PRKey) (string, error)
}

// ContentFetcher fetches a file's contents at a commit from the Forge.
type ContentFetcher interface {
	FetchContent(ctx context.Context, key ContentKey) (string, error)
}

// Cache holds both memoizations. The zero value is usable once its fetchers
// are set via New.
type Cache struct {
	diffs    sync.Map // PRKey -> string
	contents sync.Map // ContentKey -> string

	diffFetcher    DiffFetcher
	contentFetcher ContentFetcher
}

// New returns a Cache that falls through to the given fetchers on a miss.
func New(diffFetcher DiffFetcher, contentFetcher ContentFetcher) *Cache {
	return &Cache{diffFetcher: diffFetcher, contentFetcher: contentFetcher}
}

// GetDiff returns the cached diff for key, fetching and caching it on a
// miss. A network failure returns ("", false) rather than an error — per spec
// §4.2, "returns empty on network failure without raising" — two racing
// misses performing the same fetch is an accepted inefficiency, not a bug.
func (c *Cache) GetDiff(ctx context.Context, key PRKey) (string, bool) {
	if v, ok := c.diffs.Load(key); ok {
		return v.(string), true
	}
	diff, err := c.diffFetcher.FetchDiff(ctx, key)
	if err != nil {
		glog.Warningf("patchcache: fetching diff for %s/%s#%d: %v", key.Org, key.Project, key.Number, err)
		return "", false
	}
	c.diffs.Store(key, diff)
	return diff, true
}

// GetContent returns the cached file content at a commit, fetching and
// caching it on a miss.
func (c *Cache) GetContent(ctx context.Context, key ContentKey) (string, bool) {
	if v, ok := c.contents.Load(key); ok {
		return v.(string), true
	}
	content, err := c.contentFetcher.FetchContent(ctx, key)
	if err != nil {
		glog.Warningf("patchcache: fetching %s at %s: %v", key.Path, key.Commit, err)
		return "", false
	}
	c.contents.Store(key, content)
	return content, true
}

// RemoveDiff evicts a cached diff, called by filters that reject a PR to
// bound memory use (spec §4.2).
func (c *Cache) RemoveDiff(key PRKey) {
	c.diffs.Delete(key)
}

// String gives PRKey a stable, debuggable representation for log lines.
func (k PRKey) String() string {
	return fmt.Sprintf("%s/%s#%d", k.Org, k.Project, k.Number)
}
