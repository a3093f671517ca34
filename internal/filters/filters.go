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

// Package filters implements the three pure pull-request predicates of
// spec §4.3: changesOnlyDependencyVersionInPomXML, breaksBuild, and
// createdBefore.
package filters

import (
	"context"
	"fmt"
	"time"

	"github.com/chains-project/bump/internal/candidate"
	"github.com/chains-project/bump/internal/patchcache"
)

// PR is the handle the filters operate over — the subset of forge.PullRequest
// needed, kept decoupled from the forge package so filters stay pure and
// independently testable.
type PR struct {
	Org        string
	Project    string
	Number     int
	CreatedAt  time.Time
	HeadSHA    string
	HeadBranch string
}

func (p PR) cacheKey() patchcache.PRKey {
	return patchcache.PRKey{Org: p.Org, Project: p.Project, Number: p.Number}
}

// DiffStatFetcher reports a PR's changed-file count, line counts, and sole
// filename, as the Forge reports them.
type DiffStatFetcher interface {
	PullRequestDiffStat(ctx context.Context, owner, repo string, number int) (changedFiles, additions, deletions int, filename string, err error)
}

// WorkflowRunChecker reports whether a failing pull_request-event workflow
// run exists for a PR's head.
type WorkflowRunChecker interface {
	WorkflowRunFailed(ctx context.Context, owner, repo, branch, headSHA string) (bool, error)
}

// ChangesOnlyDependencyVersionInPomXML accepts a PR iff it touches exactly
// one file, with a 1+1 addition/deletion diffstat, whose diff carries a
// single version-bump inside a <dependency> block of a pom.xml, per spec
// §4.3. Rejected PRs are evicted from the patch cache to bound memory.
func ChangesOnlyDependencyVersionInPomXML(ctx context.Context, cache *patchcache.Cache, stats DiffStatFetcher, pr PR) (bool, error) {
	changedFiles, additions, deletions, filename, err := stats.PullRequestDiffStat(ctx, pr.Org, pr.Project, pr.Number)
	if err != nil {
		return false, fmt.Errorf("fetching diffstat for %s/%s#%d: %w", pr.Org, pr.Project, pr.Number, err)
	}

	diff, ok := cache.GetDiff(ctx, pr.cacheKey())
	if !ok {
		cache.RemoveDiff(pr.cacheKey())
		return false, nil
	}

	accept := candidate.IsSingleLineVersionBumpInPomXML(candidate.ChangedFileStats{
		ChangedFiles: changedFiles,
		Additions:    additions,
		Deletions:    deletions,
		Filename:     filename,
	}, diff)

	if !accept {
		cache.RemoveDiff(pr.cacheKey())
	}
	return accept, nil
}

// BreaksBuild accepts a PR iff the Forge reports a completed,
// failure-concluded, pull_request-event workflow run whose head SHA matches
// the PR's head, per spec §4.3.
func BreaksBuild(ctx context.Context, checker WorkflowRunChecker, pr PR) (bool, error) {
	failed, err := checker.WorkflowRunFailed(ctx, pr.Org, pr.Project, pr.HeadBranch, pr.HeadSHA)
	if err != nil {
		return false, fmt.Errorf("checking workflow runs for %s/%s#%d: %w", pr.Org, pr.Project, pr.Number, err)
	}
	return failed, nil
}

// CreatedBefore accepts a PR iff it was created strictly before t, used to
// short-circuit paginated walks once the watermark is reached (spec §4.3,
// §4.5).
func CreatedBefore(pr PR, t time.Time) bool {
	return pr.CreatedAt.Before(t)
}
