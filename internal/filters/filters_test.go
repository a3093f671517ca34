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

package filters

import (
	"context"
	"testing"
	"time"

	"github.com/chains-project/bump/internal/patchcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jettyPomDiff = `--- a/pom.xml
+++ b/pom.xml
@@ -1,5 +1,5 @@
     <dependency>
       <groupId>org.eclipse.jetty</groupId>
       <artifactId>jetty-server</artifactId>
-      <version>9.4.17.v20190418</version>
+      <version>10.0.10</version>
     </dependency>
`

type fakeDiffFetcher struct{ diff string }

func (f fakeDiffFetcher) FetchDiff(ctx context.Context, key patchcache.PRKey) (string, error) {
	return f.diff, nil
}

type fakeStats struct {
	changedFiles, additions, deletions int
	filename                           string
}

func (f fakeStats) PullRequestDiffStat(ctx context.Context, owner, repo string, number int) (int, int, int, string, error) {
	return f.changedFiles, f.additions, f.deletions, f.filename, nil
}

func TestChangesOnlyDependencyVersionInPomXMLAcceptsSingleLineBump(t *testing.T) {
	cache := patchcache.New(fakeDiffFetcher{diff: jettyPomDiff}, nil)
	stats := fakeStats{changedFiles: 1, additions: 1, deletions: 1, filename: "pom.xml"}

	ok, err := ChangesOnlyDependencyVersionInPomXML(context.Background(), cache, stats, PR{Org: "o", Project: "p", Number: 1})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChangesOnlyDependencyVersionInPomXMLRejectsTwoFiles(t *testing.T) {
	cache := patchcache.New(fakeDiffFetcher{diff: jettyPomDiff}, nil)
	stats := fakeStats{changedFiles: 2, additions: 1, deletions: 1, filename: "pom.xml"}

	ok, err := ChangesOnlyDependencyVersionInPomXML(context.Background(), cache, stats, PR{Org: "o", Project: "p", Number: 1})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangesOnlyDependencyVersionInPomXMLEvictsRejectedPRFromCache(t *testing.T) {
	fetcher := &countingFetcher{diff: "not a pom change"}
	cache := patchcache.New(fetcher, nil)
	stats := fakeStats{changedFiles: 1, additions: 2, deletions: 1, filename: "pom.xml"}
	pr := PR{Org: "o", Project: "p", Number: 1}

	ok, err := ChangesOnlyDependencyVersionInPomXML(context.Background(), cache, stats, pr)
	require.NoError(t, err)
	assert.False(t, ok)

	// Re-fetching after rejection must hit the fetcher again, proving the
	// entry was evicted rather than left cached.
	_, _ = cache.GetDiff(context.Background(), pr.cacheKey())
	assert.Equal(t, 2, fetcher.calls)
}

type countingFetcher struct {
	diff  string
	calls int
}

func (f *countingFetcher) FetchDiff(ctx context.Context, key patchcache.PRKey) (string, error) {
	f.calls++
	return f.diff, nil
}

type fakeWorkflowChecker struct {
	failed bool
}

func (f fakeWorkflowChecker) WorkflowRunFailed(ctx context.Context, owner, repo, branch, headSHA string) (bool, error) {
	return f.failed, nil
}

func TestBreaksBuild(t *testing.T) {
	pr := PR{Org: "o", Project: "p", Number: 1, HeadSHA: "abc", HeadBranch: "feature"}

	ok, err := BreaksBuild(context.Background(), fakeWorkflowChecker{failed: true}, pr)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = BreaksBuild(context.Background(), fakeWorkflowChecker{failed: false}, pr)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreatedBefore(t *testing.T) {
	watermark := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := PR{CreatedAt: watermark.Add(-time.Hour)}
	newer := PR{CreatedAt: watermark.Add(time.Hour)}

	assert.True(t, CreatedBefore(older, watermark))
	assert.False(t, CreatedBefore(newer, watermark))
}
