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

package result

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/golang/glog"
)

// CacheRepo pushes files (the Reproducer pushes the breaking build's log)
// to a forge cache repository, one
// file per append-only commit on a fixed branch, per spec §4.9's optional
// pushFile operation. Failures here are logged only — they never block
// the Reproducer's progress (spec §7's "cache-repo push failure").
type CacheRepo struct {
	LocalPath string
	RemoteURL string
	Branch    string
	Token     string
}

// OpenCacheRepo clones RemoteURL into localPath (or opens it if already
// cloned) on the given branch.
func OpenCacheRepo(localPath, remoteURL, branch, token string) (*CacheRepo, error) {
	auth := &http.BasicAuth{Username: "x-access-token", Password: token}

	_, err := git.PlainOpen(localPath)
	if err == git.ErrRepositoryNotExists {
		_, err = git.PlainClone(localPath, false, &git.CloneOptions{
			URL:           remoteURL,
			ReferenceName: plumbing.NewBranchReferenceName(branch),
			Auth:          auth,
			SingleBranch:  true,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("opening cache repository %s: %w", remoteURL, err)
	}
	return &CacheRepo{LocalPath: localPath, RemoteURL: remoteURL, Branch: branch, Token: token}, nil
}

// PushFile writes name under the repository root, commits it, and pushes to
// Branch. Best-effort: the caller logs and continues on error per spec §7.
func (c *CacheRepo) PushFile(commit, name string, content []byte) error {
	repo, err := git.PlainOpen(c.LocalPath)
	if err != nil {
		return fmt.Errorf("opening cache repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening cache repository worktree: %w", err)
	}

	target := filepath.Join(c.LocalPath, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	if _, err := worktree.Add(name); err != nil {
		return fmt.Errorf("staging %s: %w", name, err)
	}
	_, err = worktree.Commit(fmt.Sprintf("add %s for %s", name, commit), &git.CommitOptions{
		Author: &object.Signature{
			Name:  "bump",
			Email: "bump@chains-project.org",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}

	err = repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", c.Branch, c.Branch))},
		Auth:       &http.BasicAuth{Username: "x-access-token", Password: c.Token},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("pushing %s: %w", name, err)
	}

	glog.Infof("result: pushed %s to cache repository (%s)", name, commit)
	return nil
}
