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

package patchcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingDiffFetcher struct {
	calls int32
	diff  string
	err   error
}

func (f *countingDiffFetcher) FetchDiff(ctx context.Context, key PRKey) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.diff, f.err
}

type countingContentFetcher struct {
	calls   int32
	content string
	err     error
}

func (f *countingContentFetcher) FetchContent(ctx context.Context, key ContentKey) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.content, f.err
}

func TestGetDiffCachesOnSuccess(t *testing.T) {
	fetcher := &countingDiffFetcher{diff: "diff content"}
	c := New(fetcher, &countingContentFetcher{})
	key := PRKey{Org: "org", Project: "proj", Number: 42}

	diff, ok := c.GetDiff(context.Background(), key)
	assert.True(t, ok)
	assert.Equal(t, "diff content", diff)

	diff, ok = c.GetDiff(context.Background(), key)
	assert.True(t, ok)
	assert.Equal(t, "diff content", diff)
	assert.EqualValues(t, 1, fetcher.calls)
}

func TestGetDiffOnNetworkFailureReturnsEmptyWithoutError(t *testing.T) {
	fetcher := &countingDiffFetcher{err: errors.New("network down")}
	c := New(fetcher, &countingContentFetcher{})

	diff, ok := c.GetDiff(context.Background(), PRKey{Org: "o", Project: "p", Number: 1})
	assert.False(t, ok)
	assert.Empty(t, diff)
}

func TestRemoveDiffEvictsEntry(t *testing.T) {
	fetcher := &countingDiffFetcher{diff: "d"}
	c := New(fetcher, &countingContentFetcher{})
	key := PRKey{Org: "o", Project: "p", Number: 1}

	_, _ = c.GetDiff(context.Background(), key)
	c.RemoveDiff(key)
	_, _ = c.GetDiff(context.Background(), key)

	assert.EqualValues(t, 2, fetcher.calls)
}

func TestGetContentCachesByCommitPath(t *testing.T) {
	fetcher := &countingContentFetcher{content: "pom contents"}
	c := New(&countingDiffFetcher{}, fetcher)
	key := ContentKey{Org: "o", Project: "p", Commit: "abc", Path: "pom.xml"}

	first, ok := c.GetContent(context.Background(), key)
	assert.True(t, ok)
	second, ok := c.GetContent(context.Background(), key)
	assert.True(t, ok)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, fetcher.calls)
}
