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

package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v55/github"
)

// Repository is the subset of repo metadata the Miner needs.
type Repository struct {
	Owner         string
	Name          string
	URL           string
	DefaultBranch string
	Stars         int
	Fork          bool
	CreatedAt     time.Time
}

// SearchRepositoriesCreatedOn searches for non-fork Java repositories
// created on the given day with at least minStars stars, per spec §4.5's
// Find operation. Results are date-sharded one day at a time by the caller
// to stay under the Forge's 1000-result search cap.
func (c *Client) SearchRepositoriesCreatedOn(ctx context.Context, day time.Time, minStars int) ([]Repository, error) {
	query := fmt.Sprintf("language:Java fork:false stars:>=%d created:%s", minStars, day.Format("2006-01-02"))
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 100}}

	var all []Repository
	for {
		result, err := call(c, ctx, func() (*github.RepositoriesSearchResult, *github.Response, error) {
			return c.gh.Search.Repositories(ctx, query, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("searching repositories created on %s: %w", day.Format("2006-01-02"), err)
		}
		for _, r := range result.Repositories {
			all = append(all, Repository{
				Owner:         r.GetOwner().GetLogin(),
				Name:          r.GetName(),
				URL:           r.GetHTMLURL(),
				DefaultBranch: r.GetDefaultBranch(),
				Stars:         r.GetStargazersCount(),
				Fork:          r.GetFork(),
				CreatedAt:     r.GetCreatedAt().Time,
			})
		}
		if len(result.Repositories) < opts.PerPage {
			break
		}
		opts.Page++
		if opts.Page*opts.PerPage >= 1000 {
			break // Forge search cap (spec §2's "pagination across a 1000-result search cap")
		}
	}
	return all, nil
}

// HasPomXMLInTree reports whether the repository's default-branch tree
// contains any path containing "pom.xml", per spec §4.5 Find's repo filter.
func (c *Client) HasPomXMLInTree(ctx context.Context, owner, repo, defaultBranch string) (bool, error) {
	tree, err := call(c, ctx, func() (*github.Tree, *github.Response, error) {
		return c.gh.Git.GetTree(ctx, owner, repo, defaultBranch, true)
	})
	if err != nil {
		return false, fmt.Errorf("fetching tree for %s/%s: %w", owner, repo, err)
	}
	for _, entry := range tree.Entries {
		if containsPomXML(entry.GetPath()) {
			return true, nil
		}
	}
	return false, nil
}

func containsPomXML(path string) bool {
	const needle = "pom.xml"
	if len(path) < len(needle) {
		return false
	}
	for i := 0; i+len(needle) <= len(path); i++ {
		if path[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// HasPullRequestEventWorkflowRun reports whether the repository has at
// least one workflow run triggered by a pull_request event, per spec §4.5
// Find's second repo filter.
func (c *Client) HasPullRequestEventWorkflowRun(ctx context.Context, owner, repo string) (bool, error) {
	runs, err := call(c, ctx, func() (*github.WorkflowRuns, *github.Response, error) {
		return c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, &github.ListWorkflowRunsOptions{
			Event:       "pull_request",
			ListOptions: github.ListOptions{PerPage: 1},
		})
	})
	if err != nil {
		return false, fmt.Errorf("listing workflow runs for %s/%s: %w", owner, repo, err)
	}
	return runs.GetTotalCount() > 0, nil
}

// PullRequest is the subset of PR metadata the filters and candidate model
// need.
type PullRequest struct {
	Number      int
	URL         string
	CreatedAt   time.Time
	HeadSHA     string
	HeadBranch  string
	AuthorLogin string
	AuthorIsBot bool
}

// ListPullRequestsDescending lists PRs for owner/repo in creation-descending
// order, a page at a time, invoking pageFn per page. pageFn returns false to
// stop paging early (used by Mine's watermark short-circuit, spec §4.5).
func (c *Client) ListPullRequestsDescending(ctx context.Context, owner, repo string, pageFn func([]PullRequest) (keepGoing bool)) error {
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 50},
	}
	for {
		prs, err := call(c, ctx, func() ([]*github.PullRequest, *github.Response, error) {
			return c.gh.PullRequests.List(ctx, owner, repo, opts)
		})
		if err != nil {
			return fmt.Errorf("listing pull requests for %s/%s: %w", owner, repo, err)
		}
		if len(prs) == 0 {
			return nil
		}
		page := make([]PullRequest, 0, len(prs))
		for _, pr := range prs {
			page = append(page, PullRequest{
				Number:      pr.GetNumber(),
				URL:         pr.GetHTMLURL(),
				CreatedAt:   pr.GetCreatedAt(),
				HeadSHA:     pr.GetHead().GetSHA(),
				HeadBranch:  pr.GetHead().GetRef(),
				AuthorLogin: pr.GetUser().GetLogin(),
				AuthorIsBot: pr.GetUser().GetType() == "Bot",
			})
		}
		if !pageFn(page) {
			return nil
		}
		opts.Page++
	}
}

// PullRequestDiff fetches the unified diff for a PR.
func (c *Client) PullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, err := call(c, ctx, func() (string, *github.Response, error) {
		return c.gh.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Diff})
	})
	if err != nil {
		return "", fmt.Errorf("fetching diff for %s/%s#%d: %w", owner, repo, number, err)
	}
	return diff, nil
}

// PullRequestDiffStat fetches the file-level diffstat for a PR.
func (c *Client) PullRequestDiffStat(ctx context.Context, owner, repo string, number int) (changedFiles, additions, deletions int, filename string, err error) {
	files, callErr := call(c, ctx, func() ([]*github.CommitFile, *github.Response, error) {
		return c.gh.PullRequests.ListFiles(ctx, owner, repo, number, &github.ListOptions{PerPage: 10})
	})
	if callErr != nil {
		return 0, 0, 0, "", fmt.Errorf("fetching changed files for %s/%s#%d: %w", owner, repo, number, callErr)
	}
	var adds, dels int
	var fname string
	for _, f := range files {
		adds += f.GetAdditions()
		dels += f.GetDeletions()
		fname = f.GetFilename()
	}
	return len(files), adds, dels, fname, nil
}

// WorkflowRunFailed reports whether the repo has a completed,
// failure-concluded, pull_request-event workflow run on branch whose head
// matches headSHA, per spec §4.3's breaksBuild predicate.
func (c *Client) WorkflowRunFailed(ctx context.Context, owner, repo, branch, headSHA string) (bool, error) {
	runs, err := call(c, ctx, func() (*github.WorkflowRuns, *github.Response, error) {
		return c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, &github.ListWorkflowRunsOptions{
			Event:       "pull_request",
			Status:      "completed",
			Branch:      branch,
			ListOptions: github.ListOptions{PerPage: 30},
		})
	})
	if err != nil {
		return false, fmt.Errorf("listing workflow runs for %s/%s: %w", owner, repo, err)
	}
	for _, run := range runs.WorkflowRuns {
		if run.GetConclusion() == "failure" && run.GetHeadSHA() == headSHA {
			return true, nil
		}
	}
	return false, nil
}

// FileContentAt fetches and base64-decodes a file's content at a commit.
func (c *Client) FileContentAt(ctx context.Context, owner, repo, commit, path string) (string, error) {
	content, err := call(c, ctx, func() (*github.RepositoryContent, *github.Response, error) {
		fc, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: commit})
		return fc, resp, err
	})
	if err != nil {
		return "", fmt.Errorf("fetching %s at %s in %s/%s: %w", path, commit, owner, repo, err)
	}
	decoded, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding content of %s at %s: %w", path, commit, err)
	}
	return decoded, nil
}

// CommitAuthorLogin returns the login (and bot flag) of the author of a
// commit.
func (c *Client) CommitAuthorLogin(ctx context.Context, owner, repo, sha string) (login string, isBot bool, err error) {
	commit, callErr := c.getCommit(ctx, owner, repo, sha)
	if callErr != nil {
		return "", false, fmt.Errorf("fetching commit %s in %s/%s: %w", sha, owner, repo, callErr)
	}
	author := commit.GetAuthor()
	if author == nil {
		return "", false, nil
	}
	return author.GetLogin(), author.GetType() == "Bot", nil
}

// ParentSHA returns the first parent of the given commit, used by the
// Candidate Model's authorship query for the pre-commit side of a breaking
// update (spec §4.4).
func (c *Client) ParentSHA(ctx context.Context, owner, repo, sha string) (string, error) {
	commit, err := c.getCommit(ctx, owner, repo, sha)
	if err != nil {
		return "", fmt.Errorf("fetching commit %s in %s/%s: %w", sha, owner, repo, err)
	}
	if len(commit.Parents) == 0 {
		return "", fmt.Errorf("commit %s in %s/%s has no parent", sha, owner, repo)
	}
	return commit.Parents[0].GetSHA(), nil
}

func (c *Client) getCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error) {
	return call(c, ctx, func() (*github.RepositoryCommit, *github.Response, error) {
		return c.gh.Repositories.GetCommit(ctx, owner, repo, sha, &github.ListOptions{})
	})
}

// TagExists reports whether the given tag name exists in owner/repo.
func (c *Client) TagExists(ctx context.Context, owner, repo, tag string) (bool, error) {
	opts := &github.ListOptions{PerPage: 100}
	for {
		tags, err := call(c, ctx, func() ([]*github.RepositoryTag, *github.Response, error) {
			return c.gh.Repositories.ListTags(ctx, owner, repo, opts)
		})
		if err != nil {
			return false, fmt.Errorf("listing tags for %s/%s: %w", owner, repo, err)
		}
		if len(tags) == 0 {
			return false, nil
		}
		for _, t := range tags {
			if t.GetName() == tag {
				return true, nil
			}
		}
		opts.Page++
	}
}
