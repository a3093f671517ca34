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

// Package miner implements the Find and Mine operations of spec §4.5: Find
// discovers candidate repositories day by day, Mine walks each repository's
// pull requests for breaking dependency updates.
package miner

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/chains-project/bump/internal/candidate"
	"github.com/chains-project/bump/internal/filters"
	"github.com/chains-project/bump/internal/forge"
	"github.com/chains-project/bump/internal/patchcache"
	"github.com/chains-project/bump/internal/repoindex"
	"github.com/chains-project/bump/internal/store"
	"github.com/chains-project/bump/internal/tokenpool"
)

// SearchConfig mirrors spec §6's search-config JSON document.
type SearchConfig struct {
	MinNumberOfStars     int    `json:"minNumberOfStars"`
	EarliestCreationDate string `json:"earliestCreationDate"`
}

// EarliestCreation parses EarliestCreationDate in the on-disk time layout.
func (c SearchConfig) EarliestCreation() (time.Time, error) {
	return store.ParseTime(c.EarliestCreationDate)
}

// Miner drives Find and Mine over a credential pool, writing discovered
// repositories and emitted candidates to disk as it goes.
type Miner struct {
	Pool       *tokenpool.Pool
	Candidates *store.Dir
	Cache      *patchcache.Cache
}

// New builds a Miner.
func New(pool *tokenpool.Pool, candidates *store.Dir, cache *patchcache.Cache) *Miner {
	return &Miner{Pool: pool, Candidates: candidates, Cache: cache}
}

func clientFor(ctx context.Context, c *tokenpool.Credential) *forge.Client {
	return forge.NewClient(ctx, c.Token)
}

// Find populates index with repositories matching spec §4.5's Find filters,
// walking backward from today one day at a time until earliestCreationDate,
// checkpointing the index after every day.
func (m *Miner) Find(ctx context.Context, index *repoindex.Index, cfg SearchConfig) error {
	earliest, err := cfg.EarliestCreation()
	if err != nil {
		return fmt.Errorf("miner: parsing earliestCreationDate: %w", err)
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	var errs *multierror.Error

	for !day.Before(earliest) {
		if err := m.findDay(ctx, index, day, cfg.MinNumberOfStars); err != nil {
			glog.Errorf("miner: find day %s: %v", day.Format("2006-01-02"), err)
			errs = multierror.Append(errs, err)
		}
		day = day.AddDate(0, 0, -1)
	}
	return errs.ErrorOrNil()
}

// findDay runs one day's shard of the Find search and appends matching
// repositories to the index, which is saved after each repository is added.
func (m *Miner) findDay(ctx context.Context, index *repoindex.Index, day time.Time, minStars int) error {
	cred := m.Pool.Acquire()
	defer m.Pool.Release(cred)
	client := clientFor(ctx, cred)

	repos, err := client.SearchRepositoriesCreatedOn(ctx, day, minStars)
	if err != nil {
		return fmt.Errorf("searching repositories created on %s: %w", day.Format("2006-01-02"), err)
	}

	var errs *multierror.Error
	for _, repo := range repos {
		key := repo.Owner + "/" + repo.Name
		if _, ok := index.Get(key); ok {
			continue
		}

		hasPom, err := client.HasPomXMLInTree(ctx, repo.Owner, repo.Name, repo.DefaultBranch)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if !hasPom {
			continue
		}

		hasRun, err := client.HasPullRequestEventWorkflowRun(ctx, repo.Owner, repo.Name)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if !hasRun {
			continue
		}

		if err := index.Put(key, repoindex.Entry{URL: repo.URL}); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		glog.V(1).Infof("miner: found %s", key)
	}
	return errs.ErrorOrNil()
}

// Mine walks every indexed repository's pull requests at parallelism equal
// to the token-pool size, emitting candidates and updating each repository's
// watermark on completion, per spec §4.5.
func (m *Miner) Mine(ctx context.Context, index *repoindex.Index) error {
	keys := index.Keys()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Pool.Size())

	for _, key := range keys {
		key := key
		g.Go(func() error {
			entry, ok := index.Get(key)
			if !ok {
				return nil
			}
			if err := m.mineRepo(gctx, index, key, entry); err != nil {
				glog.Errorf("miner: mining %s: %v", key, err)
			}
			return nil // best-effort: one repo's failure never aborts the batch (spec §7)
		})
	}
	return g.Wait()
}

func splitOwnerProject(key string) (owner, project string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return "", key
}

func (m *Miner) mineRepo(ctx context.Context, index *repoindex.Index, key string, entry repoindex.Entry) error {
	cred := m.Pool.Acquire()
	defer m.Pool.Release(cred)
	client := clientFor(ctx, cred)

	owner, project := splitOwnerProject(key)
	watermark := entry.LastChecked()
	now := time.Now().UTC()

	var errs *multierror.Error
	err := client.ListPullRequestsDescending(ctx, owner, project, func(page []forge.PullRequest) bool {
		for _, pr := range page {
			fp := filters.PR{
				Org:        owner,
				Project:    project,
				Number:     pr.Number,
				CreatedAt:  pr.CreatedAt,
				HeadSHA:    pr.HeadSHA,
				HeadBranch: pr.HeadBranch,
			}
			if filters.CreatedBefore(fp, watermark) {
				return false
			}
			if err := m.considerPR(ctx, client, owner, project, pr); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		return true
	})
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := index.Touch(key, entry.URL, now); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("updating watermark for %s: %w", key, err))
	}
	return errs.ErrorOrNil()
}

func (m *Miner) considerPR(ctx context.Context, client *forge.Client, owner, project string, pr forge.PullRequest) error {
	fp := filters.PR{
		Org:        owner,
		Project:    project,
		Number:     pr.Number,
		CreatedAt:  pr.CreatedAt,
		HeadSHA:    pr.HeadSHA,
		HeadBranch: pr.HeadBranch,
	}

	onlyVersionBump, err := filters.ChangesOnlyDependencyVersionInPomXML(ctx, m.Cache, diffStatAdapter{client}, fp)
	if err != nil {
		return fmt.Errorf("filtering %s/%s#%d: %w", owner, project, pr.Number, err)
	}
	if !onlyVersionBump {
		return nil
	}

	breaks, err := filters.BreaksBuild(ctx, client, fp)
	if err != nil {
		return fmt.Errorf("checking breakage for %s/%s#%d: %w", owner, project, pr.Number, err)
	}
	if !breaks {
		return nil
	}

	bu, err := m.buildCandidate(ctx, client, owner, project, pr)
	if err != nil {
		return fmt.Errorf("building candidate for %s/%s#%d: %w", owner, project, pr.Number, err)
	}
	if err := store.Write(m.Candidates, bu.BreakingCommit, bu); err != nil {
		return fmt.Errorf("persisting candidate %s: %w", bu.BreakingCommit, err)
	}
	glog.Infof("miner: emitted candidate %s (%s/%s#%d)", bu.BreakingCommit, owner, project, pr.Number)
	return nil
}

type diffStatAdapter struct{ c *forge.Client }

func (a diffStatAdapter) PullRequestDiffStat(ctx context.Context, owner, repo string, number int) (int, int, int, string, error) {
	return a.c.PullRequestDiffStat(ctx, owner, repo, number)
}

// buildCandidate constructs the full BreakingUpdate record for a PR already
// known to pass both filters, per spec §4.4.
func (m *Miner) buildCandidate(ctx context.Context, client *forge.Client, owner, project string, pr forge.PullRequest) (*candidate.BreakingUpdate, error) {
	diff, err := client.PullRequestDiff(ctx, owner, project, pr.Number)
	if err != nil {
		return nil, err
	}
	extracted, _ := candidate.DiffExtract(diff)

	bu := candidate.NewCandidate(pr.HeadSHA, pr.URL, project, owner)
	bu.UpdatedDependency.GroupID = extracted.GroupID
	bu.UpdatedDependency.ArtifactID = extracted.ArtifactID
	bu.UpdatedDependency.PreviousVersion = extracted.PreviousVersion
	bu.UpdatedDependency.NewVersion = extracted.NewVersion
	bu.UpdatedDependency.Scope = extracted.Scope
	bu.UpdatedDependency.VersionUpdateType = candidate.ClassifyVersionUpdate(extracted.PreviousVersion, extracted.NewVersion)

	pomContent, err := client.FileContentAt(ctx, owner, project, pr.HeadSHA, "pom.xml")
	if err != nil {
		glog.Warningf("miner: fetching pom.xml at %s: %v", pr.HeadSHA, err)
	} else if pom, parseErr := candidate.ParsePOM(pomContent); parseErr != nil {
		glog.Warningf("miner: parsing pom.xml at %s: %v", pr.HeadSHA, parseErr)
	} else {
		bu.UpdatedDependency.Section = candidate.ResolveDependencySection(pom, extracted.GroupID, extracted.ArtifactID)
	}

	bu.PRAuthor = candidate.ClassifyAuthor(pr.AuthorLogin, pr.AuthorIsBot)

	parentSHA, err := client.ParentSHA(ctx, owner, project, pr.HeadSHA)
	if err != nil {
		glog.Warningf("miner: resolving parent of %s: %v", pr.HeadSHA, err)
		bu.PreCommitAuthor = candidate.AuthorUnknown
	} else if parentLogin, parentIsBot, err := client.CommitAuthorLogin(ctx, owner, project, parentSHA); err != nil {
		glog.Warningf("miner: fetching parent commit author: %v", err)
		bu.PreCommitAuthor = candidate.AuthorUnknown
	} else {
		bu.PreCommitAuthor = candidate.ClassifyAuthor(parentLogin, parentIsBot)
	}

	breakingLogin, breakingIsBot, err := client.CommitAuthorLogin(ctx, owner, project, pr.HeadSHA)
	if err != nil {
		glog.Warningf("miner: fetching breaking commit author: %v", err)
		bu.BreakingCommitAuthor = candidate.AuthorUnknown
	} else {
		bu.BreakingCommitAuthor = candidate.ClassifyAuthor(breakingLogin, breakingIsBot)
	}

	return bu, nil
}
